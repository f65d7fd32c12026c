package reports

import (
	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/screen"
)

type Action string

const (
	ActionDetails  Action = "details"
	ActionEdit     Action = "edit"
	ActionDelete   Action = "delete"
	ActionFeedback Action = "feedback"
	ActionExport   Action = "export"
)

// Item is one report as rendered, with its per-report UI state.
type Item struct {
	Report   models.Report
	Expanded bool
	Editing  bool
	Edit     Draft
	Feedback string
}

// View is the role-specific rendering of the screen. Exactly one of
// LecturerView, PRLView, PLView or ReadOnlyView is returned by Screen.View.
type View interface {
	Title() string
	// Actions lists what may be done to a single report.
	Actions() []Action
	view()
}

type LecturerView struct {
	Form   Draft
	Items  []Item
	Notice *screen.Notice
}

type PRLView struct {
	Items  []Item
	Notice *screen.Notice
}

// PLView never carries a notice; fetch errors are suppressed for this role.
type PLView struct {
	Items []Item
}

type ReadOnlyView struct {
	Items  []Item
	Notice *screen.Notice
}

func (LecturerView) Title() string { return "Submit Report" }
func (PRLView) Title() string      { return "View Lecture Reports & Add Feedback" }
func (PLView) Title() string       { return "View PRL Reports" }
func (ReadOnlyView) Title() string { return "View Reports" }

func (LecturerView) Actions() []Action { return []Action{ActionDetails, ActionEdit, ActionDelete} }
func (PRLView) Actions() []Action      { return []Action{ActionDetails, ActionFeedback} }
func (PLView) Actions() []Action       { return []Action{ActionDetails, ActionDelete} }
func (ReadOnlyView) Actions() []Action { return []Action{ActionDetails} }

func (LecturerView) view() {}
func (PRLView) view()      {}
func (PLView) view()       {}
func (ReadOnlyView) view() {}

// Items returns the items of any view.
func Items(v View) []Item {
	switch v := v.(type) {
	case LecturerView:
		return v.Items
	case PRLView:
		return v.Items
	case PLView:
		return v.Items
	case ReadOnlyView:
		return v.Items
	default:
		return nil
	}
}

// Allows reports whether v offers action a.
func Allows(v View, a Action) bool {
	if a == ActionExport {
		return true
	}
	for _, x := range v.Actions() {
		if x == a {
			return true
		}
	}
	return false
}

// View snapshots the screen for the current role. The pending notice is consumed.
func (s *Screen) View() View {
	role := s.role()
	notice := s.Notice()

	s.mu.Lock()
	items := make([]Item, 0, len(s.reports))
	for _, r := range s.reports {
		it := Item{Report: r, Expanded: s.expanded == r.ID, Feedback: s.feedback[r.ID]}
		if e, ok := s.edits[r.ID]; ok {
			it.Editing = true
			it.Edit = e.Clone()
		}
		items = append(items, it)
	}
	form := s.form.Clone()
	s.mu.Unlock()

	switch role {
	case models.Lecturer:
		return LecturerView{Form: form, Items: items, Notice: notice}
	case models.PRL:
		return PRLView{Items: items, Notice: notice}
	case models.PL:
		return PLView{Items: items}
	default:
		return ReadOnlyView{Items: items, Notice: notice}
	}
}
