// Package rating is the peer rating screen: lecturers rate students,
// students rate lectures. Other roles see nothing and trigger no calls.
package rating

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/luct-reporting/luct-bot/internal/apiclient"
	"github.com/luct-reporting/luct-bot/internal/fetchgen"
	"github.com/luct-reporting/luct-bot/internal/forms"
	"github.com/luct-reporting/luct-bot/internal/logging"
	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/screen"
)

type API interface {
	StudentsToRate(ctx context.Context) ([]models.RatingTarget, error)
	LecturesToRate(ctx context.Context) ([]models.RatingTarget, error)
	ListRatings(ctx context.Context) ([]models.Rating, error)
	SubmitRating(ctx context.Context, in models.RatingInput) (string, error)
}

type RoleSource interface {
	Role() (models.Role, bool)
}

const (
	MsgNoAccess    = "You do not have access to rate or view ratings."
	msgNeedRating  = "Please enter a rating."
	msgRange       = "Rating must be a whole number from 1 to 5."
	msgLoadTargets = "Failed to load items."
	msgLoadRatings = "Failed to load ratings."
	msgSubmit      = "Error submitting rating"
)

// Draft is the unsent input for one target.
type Draft struct {
	Rating  string
	Comment string
}

type Screen struct {
	api   API
	roles RoleSource
	log   *zap.Logger

	mu      sync.Mutex
	targets []models.RatingTarget
	ratings []models.Rating
	drafts  map[int64]Draft
	notice  *screen.Notice

	targetsGen fetchgen.Tracker
	ratingsGen fetchgen.Tracker
}

func New(api API, roles RoleSource, log *zap.Logger) *Screen {
	if log == nil {
		log = zap.NewNop()
	}
	return &Screen{api: api, roles: roles, log: log, drafts: make(map[int64]Draft)}
}

func (s *Screen) role() models.Role {
	r, _ := s.roles.Role()
	return r
}

func (s *Screen) allowed() bool { return s.role().In(models.Lecturer, models.Student) }

func (s *Screen) Title() string {
	switch s.role() {
	case models.Lecturer:
		return "Rate Students"
	case models.Student:
		return "Rate Lectures"
	default:
		return "Ratings"
	}
}

// Reset drops targets, ratings and drafts; used when the session role changes.
func (s *Screen) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets, s.ratings, s.notice = nil, nil, nil
	s.drafts = make(map[int64]Draft)
	s.targetsGen.Begin()
	s.ratingsGen.Begin()
}

// Load fetches targets and past ratings independently.
func (s *Screen) Load(ctx context.Context) error {
	if !s.allowed() {
		s.mu.Lock()
		s.targets = []models.RatingTarget{}
		s.ratings = []models.Rating{}
		s.notice = screen.Inform(MsgNoAccess)
		s.mu.Unlock()
		return screen.Denied(MsgNoAccess)
	}
	err := s.LoadTargets(ctx)
	if rerr := s.LoadRatings(ctx); err == nil {
		err = rerr
	}
	return err
}

func (s *Screen) LoadTargets(ctx context.Context) error {
	var fetch func(context.Context) ([]models.RatingTarget, error)
	switch s.role() {
	case models.Lecturer:
		fetch = s.api.StudentsToRate
	case models.Student:
		fetch = s.api.LecturesToRate
	default:
		s.mu.Lock()
		s.targets = []models.RatingTarget{}
		s.mu.Unlock()
		return screen.Denied(MsgNoAccess)
	}

	ticket := s.targetsGen.Begin()
	list, err := fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ticket.Current() {
		logging.With(ctx, s.log).Debug("stale targets response dropped")
		return nil
	}
	if err != nil {
		s.warn(ctx, "fetch rating targets", err)
		s.targets = []models.RatingTarget{}
		serr := apiclient.ScreenError(err, msgLoadTargets)
		s.notice = screen.Alert(screen.Message(serr))
		return serr
	}
	s.targets = list
	for _, t := range list {
		if _, ok := s.drafts[t.ID]; !ok {
			s.drafts[t.ID] = Draft{}
		}
	}
	return nil
}

func (s *Screen) LoadRatings(ctx context.Context) error {
	if !s.allowed() {
		return screen.Denied(MsgNoAccess)
	}
	ticket := s.ratingsGen.Begin()
	list, err := s.api.ListRatings(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ticket.Current() {
		logging.With(ctx, s.log).Debug("stale ratings response dropped")
		return nil
	}
	if err != nil {
		s.warn(ctx, "fetch ratings", err)
		s.ratings = []models.Rating{}
		serr := apiclient.ScreenError(err, msgLoadRatings)
		s.notice = screen.Alert(screen.Message(serr))
		return serr
	}
	if list == nil {
		list = []models.Rating{}
	}
	s.ratings = list
	return nil
}

func (s *Screen) SetRating(id int64, v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.drafts[id]
	d.Rating = v
	s.drafts[id] = d
}

func (s *Screen) SetComment(id int64, v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.drafts[id]
	d.Comment = v
	s.drafts[id] = d
}

func (s *Screen) Draft(id int64) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drafts[id]
}

// Submit sends the draft for target id. An empty rating is rejected
// before any call; on success only that draft is cleared.
func (s *Screen) Submit(ctx context.Context, id int64) error {
	if !s.allowed() {
		return screen.Denied(MsgNoAccess)
	}
	d := s.Draft(id)
	raw := strings.TrimSpace(d.Rating)
	if raw == "" {
		return s.fail(screen.Validation(msgNeedRating))
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return s.fail(screen.Validation(msgRange))
	}
	in := models.RatingInput{TargetID: id, Rating: n}
	if c := strings.TrimSpace(d.Comment); c != "" {
		in.Comment = &c
	}
	if err := forms.Validate(in); err != nil {
		return s.fail(screen.Validation(msgRange))
	}

	msg, err := s.api.SubmitRating(ctx, in)
	if err != nil {
		s.warn(ctx, "submit rating", err)
		return s.fail(apiclient.ScreenError(err, msgSubmit))
	}
	if msg == "" {
		msg = "Rating submitted"
	}

	s.mu.Lock()
	s.drafts[id] = Draft{}
	s.notice = screen.Ok(msg)
	s.mu.Unlock()
	return s.LoadRatings(ctx)
}

func (s *Screen) Targets() []models.RatingTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.targets == nil {
		return nil
	}
	out := make([]models.RatingTarget, len(s.targets))
	copy(out, s.targets)
	return out
}

func (s *Screen) Ratings() []models.Rating {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ratings == nil {
		return nil
	}
	out := make([]models.Rating, len(s.ratings))
	copy(out, s.ratings)
	return out
}

// Notice returns and clears the pending notice.
func (s *Screen) Notice() *screen.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.notice
	s.notice = nil
	return n
}

func (s *Screen) fail(err error) error {
	s.mu.Lock()
	s.notice = screen.Alert(screen.Message(err))
	s.mu.Unlock()
	return err
}

func (s *Screen) warn(ctx context.Context, what string, err error) {
	if apiclient.IsSystem(err) {
		logging.With(ctx, s.log).Warn(what+" failed", zap.Error(err))
	}
}
