package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/luct-reporting/luct-bot/internal/forms"
	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/screen"
)

type LecturesAPI interface {
	ListLectures(ctx context.Context) ([]models.Lecture, error)
	CreateLecture(ctx context.Context, in models.LectureInput) (models.Lecture, error)
	DeleteLecture(ctx context.Context, id int64) error
	AvailableReports(ctx context.Context) ([]models.Report, error)
	ListCourses(ctx context.Context, q string) ([]models.Course, error)
}

const LectureDeletePrompt = "Are you sure you want to delete this lecture?"

// Lectures lists scheduled lectures. Program leaders assign, delete and
// promote submitted reports into lectures.
type Lectures struct {
	api     LecturesAPI
	roles   RoleSource
	log     *zap.Logger
	list    listState[models.Lecture]
	courses listState[models.Course]
	avail   listState[models.Report]
}

func NewLectures(api LecturesAPI, roles RoleSource, log *zap.Logger) *Lectures {
	return &Lectures{api: api, roles: roles, log: nopIfNil(log)}
}

func (l *Lectures) Load(ctx context.Context) error {
	return l.list.load(ctx, l.log, "lectures", "Failed to fetch lectures",
		func(ctx context.Context, _ string) ([]models.Lecture, error) { return l.api.ListLectures(ctx) })
}

// LoadCourses fetches the course list backing the assign form.
func (l *Lectures) LoadCourses(ctx context.Context) error {
	return l.courses.load(ctx, l.log, "courses", "Failed to fetch courses", l.api.ListCourses)
}

// LoadAvailable fetches reports that may be promoted.
func (l *Lectures) LoadAvailable(ctx context.Context) error {
	return l.avail.load(ctx, l.log, "available reports", "Failed to fetch available reports",
		func(ctx context.Context, _ string) ([]models.Report, error) { return l.api.AvailableReports(ctx) })
}

func (l *Lectures) Assign(ctx context.Context, in models.LectureInput) error {
	if err := require(l.roles, "Only program leaders can assign lectures.", models.PL); err != nil {
		return err
	}
	in.DateOfLecture = strings.TrimSpace(in.DateOfLecture)
	if err := forms.Validate(in); err != nil {
		return err
	}
	created, err := l.api.CreateLecture(ctx, in)
	if err != nil {
		return mutationError(ctx, l.log, "assign lecture", err, "Failed to assign lecture")
	}
	l.list.setNotice(screen.Ok(fmt.Sprintf("Lecture assigned successfully: ID %d", created.ID)))
	if err := l.Load(ctx); err != nil {
		return err
	}
	if in.ReportID != nil {
		return l.LoadAvailable(ctx)
	}
	return l.LoadCourses(ctx)
}

func (l *Lectures) Delete(ctx context.Context, id int64, confirm screen.Confirmer) error {
	if err := require(l.roles, "Only program leaders can delete lectures.", models.PL); err != nil {
		return err
	}
	if confirm == nil || !confirm.Confirm(ctx, LectureDeletePrompt) {
		return nil
	}
	if err := l.api.DeleteLecture(ctx, id); err != nil {
		return mutationError(ctx, l.log, "delete lecture", err, "Failed to delete lecture")
	}
	l.list.setNotice(screen.Ok("Lecture deleted successfully"))
	return l.Load(ctx)
}

// Candidates are available reports no listed lecture links to.
func (l *Lectures) Candidates() []models.Report {
	linked := make(map[int64]struct{})
	for _, lec := range l.list.snapshot() {
		if lec.ReportID != nil {
			linked[lec.ReportID.Int64()] = struct{}{}
		}
	}
	var out []models.Report
	for _, r := range l.avail.snapshot() {
		if _, ok := linked[r.ID]; !ok {
			out = append(out, r)
		}
	}
	return out
}

// Promote turns a candidate report into a lecture. The course is found
// by code; the lecturer comes from the report, or from the course.
func (l *Lectures) Promote(ctx context.Context, reportID int64) error {
	if err := require(l.roles, "Only program leaders can assign lectures.", models.PL); err != nil {
		return err
	}
	var rep *models.Report
	for _, r := range l.Candidates() {
		if r.ID == reportID {
			rep = &r
			break
		}
	}
	if rep == nil {
		return screen.NotFound("Report is not available for promotion.", nil)
	}
	course, ok := FindCourseByCode(l.courses.snapshot(), rep.CourseCode)
	if !ok {
		return screen.Validation(fmt.Sprintf("No course matches code %q.", rep.CourseCode))
	}
	var lecturer int64
	switch {
	case rep.LecturerID != nil && rep.LecturerID.Int64() > 0:
		lecturer = rep.LecturerID.Int64()
	case course.LecturerID != nil:
		lecturer = course.LecturerID.Int64()
	}
	if lecturer == 0 {
		return screen.Validation("The report has no lecturer and the course has none assigned.")
	}
	id := rep.ID
	return l.Assign(ctx, models.LectureInput{
		CourseID:      course.ID,
		LecturerID:    lecturer,
		DateOfLecture: dateOnly(rep.DateOfLecture),
		ReportID:      &id,
	})
}

// dateOnly trims a timestamp like 2024-03-01T00:00:00.000Z to its date.
func dateOnly(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i == len("2006-01-02") {
		return s[:i]
	}
	return s
}

func (l *Lectures) Items() []models.Lecture     { return l.list.snapshot() }
func (l *Lectures) Courses() []models.Course    { return l.courses.snapshot() }
func (l *Lectures) Lecturers() []LecturerOption { return UniqueLecturers(l.courses.snapshot()) }
func (l *Lectures) CanManage() bool             { return roleOf(l.roles) == models.PL }

// Notice returns the first pending notice of the lecture, course and
// report lists.
func (l *Lectures) Notice() *screen.Notice {
	for _, n := range []*screen.Notice{l.list.takeNotice(), l.courses.takeNotice(), l.avail.takeNotice()} {
		if n != nil {
			return n
		}
	}
	return nil
}

func (l *Lectures) Reset() {
	l.list.reset()
	l.courses.reset()
	l.avail.reset()
}

// ParseID reads a numeric id typed by the user.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "#")), 10, 64)
	if err != nil || id <= 0 {
		return 0, screen.Validation("Please enter a valid numeric id.")
	}
	return id, nil
}
