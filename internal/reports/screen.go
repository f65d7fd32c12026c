// Package reports is the lecture report screen: list, submit, edit, delete,
// PRL feedback and spreadsheet export. Every mutation re-fetches the list.
package reports

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/luct-reporting/luct-bot/internal/apiclient"
	"github.com/luct-reporting/luct-bot/internal/export"
	"github.com/luct-reporting/luct-bot/internal/fetchgen"
	"github.com/luct-reporting/luct-bot/internal/forms"
	"github.com/luct-reporting/luct-bot/internal/logging"
	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/screen"
)

// API is the subset of the reporting API this screen calls.
type API interface {
	ListReports(ctx context.Context, q string) ([]models.Report, error)
	ListPRLFeedbackReports(ctx context.Context) ([]models.Report, error)
	ListClasses(ctx context.Context, q string) ([]models.Class, error)
	CreateClass(ctx context.Context, in models.ClassInput) (models.Class, error)
	CreateReport(ctx context.Context, in models.ReportInput) error
	UpdateReport(ctx context.Context, id int64, in models.ReportInput) error
	DeleteReport(ctx context.Context, id int64) error
	SubmitFeedback(ctx context.Context, id int64, feedback string) (string, error)
}

type RoleSource interface {
	Role() (models.Role, bool)
}

const (
	msgFetchReports  = "Error fetching reports"
	msgFetchClasses  = "Error fetching classes"
	msgNeedClass     = "Please enter a class name."
	msgCreateClass   = "Error creating new class. Please try again or use an existing class name."
	msgSubmit        = "Error submitting report"
	msgEdit          = "Error editing report"
	msgDelete        = "Error deleting report"
	msgFeedbackEmpty = "Please enter feedback before submitting."
	msgFeedbackPRL   = "Access denied: Only PRL can submit feedback."
	msgFeedback404   = "Report not found. Refresh and try again."
	msgFeedbackNet   = "Network or server error. Please try again."
	msgFeedbackErr   = "Error submitting feedback"

	// DeletePrompt is what the Confirmer is asked before a delete.
	DeletePrompt = "Are you sure you want to delete this report?"
)

type Screen struct {
	api       API
	roles     RoleSource
	log       *zap.Logger
	exportDir string

	mu           sync.Mutex
	reports      []models.Report
	classes      []models.Class
	query        string
	notice       *screen.Notice
	form         Draft
	defaultTotal string
	expanded     int64
	edits        map[int64]Draft
	feedback     map[int64]string

	reportsGen fetchgen.Tracker
	classesGen fetchgen.Tracker
}

func New(api API, roles RoleSource, log *zap.Logger, exportDir string) *Screen {
	if log == nil {
		log = zap.NewNop()
	}
	return &Screen{
		api:       api,
		roles:     roles,
		log:       log,
		exportDir: exportDir,
		form:      NewDraft(),
		edits:     make(map[int64]Draft),
		feedback:  make(map[int64]string),
	}
}

func (s *Screen) role() models.Role {
	r, _ := s.roles.Role()
	return r
}

// Reset drops all local state; used when the session role changes.
func (s *Screen) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = nil
	s.classes = nil
	s.query = ""
	s.notice = nil
	s.form = NewDraft()
	s.defaultTotal = ""
	s.expanded = 0
	s.edits = make(map[int64]Draft)
	s.feedback = make(map[int64]string)
	s.reportsGen.Begin()
	s.classesGen.Begin()
}

// Load fetches reports and classes, as on first display.
func (s *Screen) Load(ctx context.Context) error {
	err := s.Refresh(ctx)
	if cerr := s.refreshClasses(ctx); err == nil {
		err = cerr
	}
	return err
}

// Search re-fetches the list filtered by q. The pl feed ignores q.
func (s *Screen) Search(ctx context.Context, q string) error {
	s.mu.Lock()
	s.query = strings.TrimSpace(q)
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// Refresh re-fetches the report list for the current role.
func (s *Screen) Refresh(ctx context.Context) error {
	role := s.role()
	s.mu.Lock()
	q := s.query
	s.mu.Unlock()

	ticket := s.reportsGen.Begin()
	var (
		list []models.Report
		err  error
	)
	if role == models.PL {
		list, err = s.api.ListPRLFeedbackReports(ctx)
	} else {
		list, err = s.api.ListReports(ctx, q)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ticket.Current() {
		logging.With(ctx, s.log).Debug("stale reports response dropped", zap.Uint64("gen", ticket.Gen()))
		return nil
	}
	if err != nil {
		s.warn(ctx, "fetch reports", err)
		if role == models.PL {
			s.reports = []models.Report{}
			return nil
		}
		serr := withMsg(apiclient.ScreenError(err, msgFetchReports), msgFetchReports)
		s.notice = screen.Alert(msgFetchReports)
		return serr
	}
	if list == nil {
		list = []models.Report{}
	}
	s.reports = list
	if len(list) > 0 && s.defaultTotal == "" {
		if t := list[0].TotalRegistered.Int64(); t != 0 {
			s.defaultTotal = formatInt(t)
		}
	}
	if role != models.PL && s.notice != nil && s.notice.Level == screen.Danger {
		s.notice = nil
	}
	return nil
}

func (s *Screen) refreshClasses(ctx context.Context) error {
	ticket := s.classesGen.Begin()
	list, err := s.api.ListClasses(ctx, "")

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ticket.Current() {
		logging.With(ctx, s.log).Debug("stale classes response dropped", zap.Uint64("gen", ticket.Gen()))
		return nil
	}
	if err != nil {
		s.warn(ctx, "fetch classes", err)
		if s.role() == models.PL {
			return nil
		}
		s.notice = screen.Alert(msgFetchClasses)
		return withMsg(apiclient.ScreenError(err, msgFetchClasses), msgFetchClasses)
	}
	s.classes = list
	return nil
}

// SetField updates the submission form.
func (s *Screen) SetField(key, value string) error {
	if _, ok := FieldByKey(key); !ok {
		return screen.Validation("Unknown field " + key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form[key] = value
	return nil
}

// Submit runs the lecturer submission: resolve or create the class, then
// create the report. A failed class step sends no report.
func (s *Screen) Submit(ctx context.Context) error {
	if s.role() != models.Lecturer {
		return screen.Denied("Only lecturers can submit reports.")
	}
	s.mu.Lock()
	draft := s.form.Clone()
	defaultTotal := s.defaultTotal
	s.mu.Unlock()

	if strings.TrimSpace(draft[FieldClassName]) == "" {
		return s.fail(screen.Validation(msgNeedClass))
	}
	if missing := draft.Missing(); len(missing) > 0 {
		return s.fail(screen.Validation("Please fill in: " + strings.Join(missing, ", ")))
	}
	// validate before any side effect so a bad date cannot leave an orphan class
	if _, err := NormalizeDate(draft[FieldDate]); err != nil {
		return s.fail(err)
	}

	classID, created, err := s.resolveClass(ctx, draft[FieldClassName], draft[FieldVenue])
	if err != nil {
		return s.fail(err)
	}
	in, err := buildInput(draft, classID, defaultTotal)
	if err != nil {
		return s.fail(err)
	}
	if err := s.api.CreateReport(ctx, in); err != nil {
		s.warn(ctx, "create report", err)
		return s.fail(withMsg(apiclient.ScreenError(err, msgSubmit), msgSubmit))
	}

	s.mu.Lock()
	s.form = NewDraft()
	s.form[FieldTotalRegistered] = s.defaultTotal
	s.notice = screen.Ok("Report submitted successfully")
	s.mu.Unlock()

	err = s.Refresh(ctx)
	if created {
		if cerr := s.refreshClasses(ctx); err == nil {
			err = cerr
		}
	}
	return err
}

// resolveClass matches name against the loaded classes case-insensitively
// and creates the class when nothing matches.
func (s *Screen) resolveClass(ctx context.Context, name, venue string) (int64, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false, screen.Validation(msgNeedClass)
	}
	if id, ok := s.matchClass(name); ok {
		return id, false, nil
	}
	in := models.ClassInput{ClassName: name, Venue: strings.TrimSpace(venue)}
	if err := forms.Validate(in); err != nil {
		return 0, false, err
	}
	c, err := s.api.CreateClass(ctx, in)
	if err != nil {
		s.warn(ctx, "create class", err)
		return 0, false, withMsg(apiclient.ScreenError(err, msgCreateClass), msgCreateClass)
	}
	if c.ClassID == 0 {
		return 0, false, screen.Decode(msgCreateClass, nil)
	}
	return c.ClassID, true, nil
}

func (s *Screen) matchClass(name string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.classes {
		if strings.EqualFold(strings.TrimSpace(c.ClassName), name) {
			return c.ClassID, true
		}
	}
	return 0, false
}

// StartEdit opens the edit panel for id, seeded from the loaded report.
func (s *Screen) StartEdit(id int64) error {
	if s.role() != models.Lecturer {
		return screen.Denied("Only lecturers can edit reports.")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.findLocked(id)
	if !ok {
		return screen.NotFound("Report not found. Refresh and try again.", nil)
	}
	s.edits[id] = draftFromReport(r)
	return nil
}

func (s *Screen) SetEditField(id int64, key, value string) error {
	if _, ok := FieldByKey(key); !ok {
		return screen.Validation("Unknown field " + key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.edits[id]
	if !ok {
		return screen.Validation("Report is not being edited.")
	}
	d[key] = value
	return nil
}

func (s *Screen) CancelEdit(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.edits, id)
}

// SaveEdit applies the same class resolution as Submit, then PUTs the report.
func (s *Screen) SaveEdit(ctx context.Context, id int64) error {
	if s.role() != models.Lecturer {
		return screen.Denied("Only lecturers can edit reports.")
	}
	s.mu.Lock()
	d, ok := s.edits[id]
	draft := d.Clone()
	defaultTotal := s.defaultTotal
	s.mu.Unlock()
	if !ok {
		return screen.Validation("Report is not being edited.")
	}
	if _, err := NormalizeDate(draft[FieldDate]); err != nil {
		return s.fail(err)
	}

	classID, created, err := s.resolveClass(ctx, draft[FieldClassName], draft[FieldVenue])
	if err != nil {
		return s.fail(err)
	}
	in, err := buildInput(draft, classID, defaultTotal)
	if err != nil {
		return s.fail(err)
	}
	if err := s.api.UpdateReport(ctx, id, in); err != nil {
		s.warn(ctx, "update report", err)
		serr := apiclient.ScreenError(err, msgEdit)
		if screen.KindOf(serr) != screen.KindNotFound {
			serr = withMsg(serr, msgEdit)
		}
		return s.fail(serr)
	}

	s.mu.Lock()
	delete(s.edits, id)
	s.notice = screen.Ok("Report updated successfully")
	s.mu.Unlock()

	err = s.Refresh(ctx)
	if created {
		if cerr := s.refreshClasses(ctx); err == nil {
			err = cerr
		}
	}
	return err
}

// Delete removes a report after confirmation. A declined prompt sends nothing.
func (s *Screen) Delete(ctx context.Context, id int64, c screen.Confirmer) error {
	if !s.role().In(models.Lecturer, models.PL) {
		return screen.Denied("You are not allowed to delete reports.")
	}
	if c == nil || !c.Confirm(ctx, DeletePrompt) {
		return nil
	}
	if err := s.api.DeleteReport(ctx, id); err != nil {
		s.warn(ctx, "delete report", err)
		serr := apiclient.ScreenError(err, msgDelete)
		if screen.KindOf(serr) != screen.KindNotFound {
			serr = withMsg(serr, msgDelete)
		}
		return s.fail(serr)
	}

	s.mu.Lock()
	delete(s.edits, id)
	delete(s.feedback, id)
	if s.expanded == id {
		s.expanded = 0
	}
	s.notice = screen.Ok("Report deleted")
	s.mu.Unlock()
	return s.Refresh(ctx)
}

func (s *Screen) SetFeedback(id int64, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback[id] = text
}

func (s *Screen) FeedbackDraft(id int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feedback[id]
}

// SubmitFeedback posts the PRL's feedback draft for id.
// Any other role is refused before a request is made.
func (s *Screen) SubmitFeedback(ctx context.Context, id int64) error {
	if s.role() != models.PRL {
		return s.fail(screen.Denied(msgFeedbackPRL))
	}
	text := strings.TrimSpace(s.FeedbackDraft(id))
	if err := forms.Validate(models.FeedbackInput{Feedback: text}); err != nil {
		return s.fail(screen.Validation(msgFeedbackEmpty))
	}

	msg, err := s.api.SubmitFeedback(ctx, id, text)
	if err != nil {
		s.warn(ctx, "submit feedback", err)
		var serr error
		switch {
		case apiclient.IsForbidden(err):
			serr = &screen.Error{Kind: screen.KindDenied, Msg: msgFeedbackPRL, Err: err}
		case apiclient.IsNotFound(err):
			serr = screen.NotFound(msgFeedback404, err)
		case apiclient.IsTransport(err):
			serr = screen.Transport(msgFeedbackNet, err)
		default:
			serr = apiclient.ScreenError(err, msgFeedbackErr)
		}
		return s.fail(serr)
	}
	if msg == "" {
		msg = "Feedback submitted successfully"
	}

	s.mu.Lock()
	s.feedback[id] = ""
	s.notice = screen.Ok(msg)
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// Toggle opens id's detail panel, closing any other; toggling the open one closes it.
func (s *Screen) Toggle(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expanded == id {
		s.expanded = 0
		return
	}
	s.expanded = id
}

// Export writes every loaded report to a spreadsheet and returns its path.
func (s *Screen) Export(ctx context.Context) (string, error) {
	s.mu.Lock()
	snapshot := append([]models.Report(nil), s.reports...)
	s.mu.Unlock()

	f, err := export.ReportsWorkbook(snapshot)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	path, err := export.Save(f, s.exportDir, export.ReportsFile)
	if err != nil {
		return "", err
	}
	logging.With(ctx, s.log).Info("reports exported", zap.Int("rows", len(snapshot)), zap.String("path", path))
	return path, nil
}

// Accessors

func (s *Screen) Reports() []models.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Report(nil), s.reports...)
}

func (s *Screen) Report(id int64) (models.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(id)
}

func (s *Screen) Classes() []models.Class {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Class(nil), s.classes...)
}

func (s *Screen) Form() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.Clone()
}

// ResetForm clears the submission form, keeping the remembered total.
func (s *Screen) ResetForm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = NewDraft()
	s.form[FieldTotalRegistered] = s.defaultTotal
}

func (s *Screen) DefaultTotal() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaultTotal
}

func (s *Screen) Expanded() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded
}

func (s *Screen) Editing(id int64) (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.edits[id]
	if !ok {
		return nil, false
	}
	return d.Clone(), true
}

// Notice returns and clears the pending notice.
func (s *Screen) Notice() *screen.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.notice
	s.notice = nil
	return n
}

func (s *Screen) findLocked(id int64) (models.Report, bool) {
	for _, r := range s.reports {
		if r.ID == id {
			return r, true
		}
	}
	return models.Report{}, false
}

// fail records err as a notice unless the role suppresses them.
func (s *Screen) fail(err error) error {
	if s.role() != models.PL {
		s.mu.Lock()
		s.notice = screen.Alert(screen.Message(err))
		s.mu.Unlock()
	}
	return err
}

func (s *Screen) warn(ctx context.Context, what string, err error) {
	if apiclient.IsSystem(err) {
		logging.With(ctx, s.log).Warn(what+" failed", zap.Error(err))
	}
}

// withMsg keeps the kind and cause of err but replaces the user text.
func withMsg(err error, msg string) error {
	return &screen.Error{Kind: screen.KindOf(err), Msg: msg, Err: err}
}
