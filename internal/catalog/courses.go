package catalog

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/luct-reporting/luct-bot/internal/forms"
	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/screen"
)

type CoursesAPI interface {
	ListCourses(ctx context.Context, q string) ([]models.Course, error)
	CreateCourse(ctx context.Context, in models.CourseInput) error
	DeleteCourse(ctx context.Context, id int64) error
}

const CourseDeletePrompt = "Are you sure you want to delete this course?"

type Courses struct {
	api   CoursesAPI
	roles RoleSource
	log   *zap.Logger
	list  listState[models.Course]
}

func NewCourses(api CoursesAPI, roles RoleSource, log *zap.Logger) *Courses {
	return &Courses{api: api, roles: roles, log: nopIfNil(log)}
}

func (c *Courses) Load(ctx context.Context) error {
	return c.list.load(ctx, c.log, "courses", "Failed to fetch courses", c.api.ListCourses)
}

func (c *Courses) Search(ctx context.Context, q string) error {
	c.list.setQuery(strings.TrimSpace(q))
	return c.Load(ctx)
}

// Create adds a course; program leaders only.
func (c *Courses) Create(ctx context.Context, in models.CourseInput) error {
	if err := require(c.roles, "Only program leaders can add courses.", models.PL); err != nil {
		return err
	}
	in.Name, in.Code = strings.TrimSpace(in.Name), strings.TrimSpace(in.Code)
	if err := forms.Validate(in); err != nil {
		return err
	}
	if err := c.api.CreateCourse(ctx, in); err != nil {
		return mutationError(ctx, c.log, "create course", err, "Error creating course")
	}
	c.list.setNotice(screen.Ok("Course added successfully"))
	return c.Load(ctx)
}

func (c *Courses) Delete(ctx context.Context, id int64, confirm screen.Confirmer) error {
	if err := require(c.roles, "Only program leaders can delete courses.", models.PL); err != nil {
		return err
	}
	if confirm == nil || !confirm.Confirm(ctx, CourseDeletePrompt) {
		return nil
	}
	if err := c.api.DeleteCourse(ctx, id); err != nil {
		return mutationError(ctx, c.log, "delete course", err, "Error deleting course")
	}
	c.list.setNotice(screen.Ok("Course deleted successfully"))
	return c.Load(ctx)
}

func (c *Courses) Items() []models.Course      { return c.list.snapshot() }
func (c *Courses) Notice() *screen.Notice      { return c.list.takeNotice() }
func (c *Courses) CanManage() bool             { return roleOf(c.roles) == models.PL }
func (c *Courses) Reset()                      { c.list.reset() }
func (c *Courses) Lecturers() []LecturerOption { return UniqueLecturers(c.Items()) }

// LecturerOption is a lecturer that can be assigned to a lecture.
type LecturerOption struct {
	ID   int64
	Name string
}

// UniqueLecturers derives the assignable lecturers from the course list,
// skipping courses without a lecturer. Order follows first appearance.
func UniqueLecturers(courses []models.Course) []LecturerOption {
	seen := make(map[int64]int)
	var out []LecturerOption
	for _, c := range courses {
		if c.LecturerID == nil || c.LecturerID.Int64() == 0 {
			continue
		}
		id := c.LecturerID.Int64()
		if i, ok := seen[id]; ok {
			// a later course may carry the name the first one lacked
			if out[i].Name == "" {
				out[i].Name = c.LecturerName
			}
			continue
		}
		seen[id] = len(out)
		out = append(out, LecturerOption{ID: id, Name: c.LecturerName})
	}
	return out
}

// FindCourseByCode matches code case-insensitively.
func FindCourseByCode(courses []models.Course, code string) (models.Course, bool) {
	code = strings.TrimSpace(code)
	for _, c := range courses {
		if strings.EqualFold(strings.TrimSpace(c.DisplayCode()), code) {
			return c, true
		}
	}
	return models.Course{}, false
}

func sortedCourseIDs(lectures []models.Lecture) []int64 {
	set := make(map[int64]struct{})
	for _, l := range lectures {
		set[l.CourseID.Int64()] = struct{}{}
	}
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
