package catalog

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/screen"
)

type ClassesAPI interface {
	ListClasses(ctx context.Context, q string) ([]models.Class, error)
	CreateClass(ctx context.Context, in models.ClassInput) (models.Class, error)
	UpdateClass(ctx context.Context, id int64, in models.ClassInput) error
	DeleteClass(ctx context.Context, id int64) error
}

const (
	ClassDeletePrompt = "Are you sure you want to delete this class?"

	msgClassBoth    = "Both class name and venue are required."
	msgClassCreated = "New class created successfully"
	msgClassUpdated = "Class updated successfully"
	msgClassDeleted = "Class deleted successfully"
)

// Classes lists classes for lecturers and program leaders. Lecturers
// create and edit; both may delete.
type Classes struct {
	api   ClassesAPI
	roles RoleSource
	log   *zap.Logger
	list  listState[models.Class]

	editMu  sync.Mutex
	editID  int64
	editing models.ClassInput
}

func NewClasses(api ClassesAPI, roles RoleSource, log *zap.Logger) *Classes {
	return &Classes{api: api, roles: roles, log: nopIfNil(log)}
}

func (c *Classes) Load(ctx context.Context) error {
	return c.list.load(ctx, c.log, "classes", "Failed to fetch classes", c.api.ListClasses)
}

func (c *Classes) Search(ctx context.Context, q string) error {
	c.list.setQuery(strings.TrimSpace(q))
	return c.Load(ctx)
}

func classInput(name, venue string) (models.ClassInput, error) {
	in := models.ClassInput{ClassName: strings.TrimSpace(name), Venue: strings.TrimSpace(venue)}
	if in.ClassName == "" || in.Venue == "" {
		return in, screen.Validation(msgClassBoth)
	}
	return in, nil
}

func (c *Classes) Create(ctx context.Context, name, venue string) error {
	if err := require(c.roles, "Only lecturers can add classes.", models.Lecturer); err != nil {
		return err
	}
	in, err := classInput(name, venue)
	if err != nil {
		return err
	}
	if _, err := c.api.CreateClass(ctx, in); err != nil {
		return mutationError(ctx, c.log, "create class", err, "Failed to create class")
	}
	c.list.setNotice(screen.Ok(msgClassCreated))
	return c.Load(ctx)
}

// StartEdit copies the class into the inline edit buffer.
func (c *Classes) StartEdit(id int64) error {
	if err := require(c.roles, "Only lecturers can edit classes.", models.Lecturer); err != nil {
		return err
	}
	for _, cl := range c.Items() {
		if cl.ClassID == id {
			c.editMu.Lock()
			c.editID = id
			c.editing = models.ClassInput{ClassName: cl.ClassName, Venue: cl.Venue}
			c.editMu.Unlock()
			return nil
		}
	}
	return screen.NotFound("Class not found. Refresh and try again.", nil)
}

// SetEdit updates one field of the edit buffer: "class_name" or "venue".
func (c *Classes) SetEdit(field, value string) {
	c.editMu.Lock()
	defer c.editMu.Unlock()
	switch field {
	case "class_name":
		c.editing.ClassName = value
	case "venue":
		c.editing.Venue = value
	}
}

// Editing returns the class under edit, 0 when none.
func (c *Classes) Editing() (int64, models.ClassInput) {
	c.editMu.Lock()
	defer c.editMu.Unlock()
	return c.editID, c.editing
}

func (c *Classes) CancelEdit() {
	c.editMu.Lock()
	defer c.editMu.Unlock()
	c.editID, c.editing = 0, models.ClassInput{}
}

func (c *Classes) SaveEdit(ctx context.Context) error {
	if err := require(c.roles, "Only lecturers can edit classes.", models.Lecturer); err != nil {
		return err
	}
	id, buf := c.Editing()
	if id == 0 {
		return screen.Validation("Nothing is being edited.")
	}
	in, err := classInput(buf.ClassName, buf.Venue)
	if err != nil {
		return err
	}
	if err := c.api.UpdateClass(ctx, id, in); err != nil {
		return mutationError(ctx, c.log, "update class", err, "Failed to update class")
	}
	c.CancelEdit()
	c.list.setNotice(screen.Ok(msgClassUpdated))
	return c.Load(ctx)
}

func (c *Classes) Delete(ctx context.Context, id int64, confirm screen.Confirmer) error {
	if err := require(c.roles, "You cannot delete classes.", models.Lecturer, models.PL); err != nil {
		return err
	}
	if confirm == nil || !confirm.Confirm(ctx, ClassDeletePrompt) {
		return nil
	}
	if err := c.api.DeleteClass(ctx, id); err != nil {
		return mutationError(ctx, c.log, "delete class", err, "Failed to delete class")
	}
	c.list.setNotice(screen.Ok(msgClassDeleted))
	return c.Load(ctx)
}

func (c *Classes) Items() []models.Class  { return c.list.snapshot() }
func (c *Classes) Notice() *screen.Notice { return c.list.takeNotice() }
func (c *Classes) CanEdit() bool          { return roleOf(c.roles) == models.Lecturer }
func (c *Classes) CanDelete() bool        { return roleOf(c.roles).In(models.Lecturer, models.PL) }

func (c *Classes) Reset() {
	c.list.reset()
	c.CancelEdit()
}
