package reports

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/luct-reporting/luct-bot/internal/apiclient"
	"github.com/luct-reporting/luct-bot/internal/export"
	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/screen"
	"github.com/luct-reporting/luct-bot/internal/testutil/fakeapi"
)

type fixedRole models.Role

func (r fixedRole) Role() (models.Role, bool) { return models.Role(r), r != "" }

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newScreen(t *testing.T, api *fakeapi.Server, role models.Role) *Screen {
	t.Helper()
	client := apiclient.New(api.URL, fakeapi.Header, nil, staticToken(fakeapi.Token(t, role)))
	return New(client, fixedRole(role), nil, t.TempDir())
}

func fillForm(t *testing.T, s *Screen, overrides map[string]string) {
	t.Helper()
	values := map[string]string{
		FieldFaculty:          "FICT",
		FieldClassName:        "BSCSM1",
		FieldWeek:             "6",
		FieldDate:             "2025-03-04",
		FieldCourseName:       "Data Structures",
		FieldCourseCode:       "DS101",
		FieldLecturerName:     "Mr Mokoena",
		FieldActualStudents:   "40",
		FieldScheduledTime:    "08:30",
		FieldTopicTaught:      "Binary trees",
		FieldLearningOutcomes: "Traverse a tree",
	}
	for k, v := range overrides {
		values[k] = v
	}
	for k, v := range values {
		if err := s.SetField(k, v); err != nil {
			t.Fatal(err)
		}
	}
}

func keysContainInOrder(got []string, want ...string) bool {
	i := 0
	for _, k := range got {
		if i < len(want) && k == want[i] {
			i++
		}
	}
	return i == len(want)
}

func count(keys []string, key string) int {
	n := 0
	for _, k := range keys {
		if k == key {
			n++
		}
	}
	return n
}

func TestSubmit_ExistingClassReused(t *testing.T) {
	ctx := context.Background()
	api := fakeapi.New(t)
	api.Classes = []models.Class{{ClassID: 3, ClassName: "Math101", Venue: "Hall 1"}}
	s := newScreen(t, api, models.Lecturer)
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}

	for _, typed := range []string{"Math101", "math101", "  MATH101 "} {
		t.Run(typed, func(t *testing.T) {
			api.Reset()
			fillForm(t, s, map[string]string{FieldClassName: typed})
			if err := s.Submit(ctx); err != nil {
				t.Fatal(err)
			}
			if n := len(api.CallsTo(http.MethodPost, "/classes")); n != 0 {
				t.Fatalf("class created %d times for %q", n, typed)
			}
			posts := api.CallsTo(http.MethodPost, "/reports")
			if len(posts) != 1 || posts[0].Body["class_id"] != float64(3) {
				t.Fatalf("report posts = %+v", posts)
			}
		})
	}
	api.Do(func(api *fakeapi.Server) {
		if len(api.Classes) != 1 {
			t.Fatalf("classes = %+v", api.Classes)
		}
	})
}

func TestSubmit_NewClassCreatedFirst(t *testing.T) {
	ctx := context.Background()
	api := fakeapi.New(t)
	s := newScreen(t, api, models.Lecturer)
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}
	api.Reset()

	fillForm(t, s, map[string]string{FieldClassName: "Math101", FieldVenue: "Room 4"})
	if err := s.Submit(ctx); err != nil {
		t.Fatal(err)
	}

	keys := api.Keys()
	if count(keys, "POST /classes") != 1 || count(keys, "POST /reports") != 1 {
		t.Fatalf("calls = %v", keys)
	}
	if !keysContainInOrder(keys, "POST /classes", "POST /reports", "GET /reports") {
		t.Fatalf("calls out of order: %v", keys)
	}

	classBody := api.CallsTo(http.MethodPost, "/classes")[0].Body
	if classBody["class_name"] != "Math101" || classBody["venue"] != "Room 4" {
		t.Fatalf("class body = %v", classBody)
	}
	var newID float64
	api.Do(func(api *fakeapi.Server) { newID = float64(api.Classes[0].ClassID) })
	if got := api.CallsTo(http.MethodPost, "/reports")[0].Body["class_id"]; got != newID {
		t.Fatalf("report class_id = %v, want %v", got, newID)
	}

	form := s.Form()
	if form[FieldClassName] != "" || form[FieldTopicTaught] != "" {
		t.Fatalf("form not reset: %v", form)
	}
	if len(s.Reports()) != 1 {
		t.Fatalf("list not re-fetched: %+v", s.Reports())
	}
	if n := s.Notice(); n == nil || n.Level != screen.Success {
		t.Fatalf("notice = %+v", n)
	}

	// the new class is now known, so a second submit reuses it
	api.Reset()
	fillForm(t, s, map[string]string{FieldClassName: "MATH101"})
	if err := s.Submit(ctx); err != nil {
		t.Fatal(err)
	}
	if n := len(api.CallsTo(http.MethodPost, "/classes")); n != 0 {
		t.Fatalf("second submit created %d classes", n)
	}
}

func TestSubmit_ClassCreateFailureAborts(t *testing.T) {
	ctx := context.Background()
	api := fakeapi.New(t)
	s := newScreen(t, api, models.Lecturer)
	_ = s.Load(ctx)
	api.Fail(http.MethodPost, "/classes", http.StatusInternalServerError)

	fillForm(t, s, map[string]string{FieldClassName: "Physics9"})
	err := s.Submit(ctx)
	if screen.Message(err) != msgCreateClass {
		t.Fatalf("err = %v", err)
	}
	if n := len(api.CallsTo(http.MethodPost, "/reports")); n != 0 {
		t.Fatalf("report sent after failed class step (%d)", n)
	}
	if s.Form()[FieldClassName] != "Physics9" {
		t.Fatal("form must survive a failed submission")
	}
	if n := s.Notice(); n == nil || n.Text != msgCreateClass {
		t.Fatalf("notice = %+v", n)
	}
}

func TestSubmit_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		overrides map[string]string
		wantMsg   string
	}{
		{"no_class", map[string]string{FieldClassName: " "}, msgNeedClass},
		{"missing_topic", map[string]string{FieldTopicTaught: ""}, "Please fill in: Topic Taught"},
		{"bad_date", map[string]string{FieldDate: "next tuesday"}, "Invalid date of lecture"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := fakeapi.New(t)
			s := newScreen(t, api, models.Lecturer)
			_ = s.Load(ctx)
			api.Reset()

			fillForm(t, s, tt.overrides)
			err := s.Submit(ctx)
			if screen.KindOf(err) != screen.KindValidation {
				t.Fatalf("kind = %s (%v)", screen.KindOf(err), err)
			}
			if !strings.HasPrefix(screen.Message(err), tt.wantMsg) {
				t.Fatalf("msg = %q", screen.Message(err))
			}
			if len(api.Calls()) != 0 {
				t.Fatalf("calls = %v", api.Keys())
			}
		})
	}
}

func TestSubmit_Coercion(t *testing.T) {
	ctx := context.Background()
	api := fakeapi.New(t)
	api.Classes = []models.Class{{ClassID: 3, ClassName: "BSCSM1"}}
	api.Reports = []models.Report{{ID: 1, ClassID: 3, ClassName: "BSCSM1", TotalRegistered: 45}}
	s := newScreen(t, api, models.Lecturer)
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if s.DefaultTotal() != "45" {
		t.Fatalf("default total = %q", s.DefaultTotal())
	}

	fillForm(t, s, map[string]string{
		FieldWeek:           "6th",
		FieldActualStudents: "lots",
		FieldDate:           "04/03/2025",
	})
	if err := s.Submit(ctx); err != nil {
		t.Fatal(err)
	}
	call := api.CallsTo(http.MethodPost, "/reports")[0]
	body := call.Body
	if body["week_of_reporting"] != float64(6) ||
		body["actual_number_of_students_present"] != float64(0) ||
		body["total_number_of_registered_students"] != float64(45) ||
		body["date_of_lecture"] != "2025-03-04" {
		t.Fatalf("body = %v", body)
	}
	if v, ok := body["lecturer_id"]; !ok || v != nil {
		t.Fatalf("lecturer_id should be sent as null, body = %s", call.RawBody)
	}
	if s.Form()[FieldTotalRegistered] != "45" {
		t.Fatal("remembered total not kept after reset")
	}
}

func TestSubmit_OnlyLecturer(t *testing.T) {
	for _, role := range []models.Role{models.Student, models.PRL, models.PL} {
		t.Run(string(role), func(t *testing.T) {
			api := fakeapi.New(t)
			s := newScreen(t, api, role)
			fillForm(t, s, nil)
			if err := s.Submit(context.Background()); screen.KindOf(err) != screen.KindDenied {
				t.Fatalf("kind = %s", screen.KindOf(err))
			}
			if len(api.Calls()) != 0 {
				t.Fatalf("calls = %v", api.Keys())
			}
		})
	}
}

func TestEdit(t *testing.T) {
	ctx := context.Background()
	api := fakeapi.New(t)
	api.Classes = []models.Class{{ClassID: 3, ClassName: "BSCSM1"}}
	api.Reports = []models.Report{{
		ID: 5, FacultyName: "FICT", ClassID: 3, ClassName: "BSCSM1", WeekOfReporting: 2,
		DateOfLecture: "2025-02-10T00:00:00.000Z", TopicTaught: "Stacks", TotalRegistered: 30,
	}}
	s := newScreen(t, api, models.Lecturer)
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}

	if err := s.StartEdit(5); err != nil {
		t.Fatal(err)
	}
	d, ok := s.Editing(5)
	if !ok || d[FieldClassName] != "BSCSM1" || d[FieldWeek] != "2" {
		t.Fatalf("seeded draft = %v", d)
	}
	if s.Expanded() != 0 {
		t.Fatal("editing must not change expansion")
	}

	_ = s.SetEditField(5, FieldClassName, "BSCSM2")
	_ = s.SetEditField(5, FieldTopicTaught, "Queues")
	api.Reset()
	if err := s.SaveEdit(ctx, 5); err != nil {
		t.Fatal(err)
	}

	if !keysContainInOrder(api.Keys(), "POST /classes", "PUT /reports/5", "GET /reports") {
		t.Fatalf("calls = %v", api.Keys())
	}
	put := api.CallsTo(http.MethodPut, "/reports/5")[0].Body
	if put["topic_taught"] != "Queues" || put["date_of_lecture"] != "2025-02-10" {
		t.Fatalf("put body = %v", put)
	}
	if _, still := s.Editing(5); still {
		t.Fatal("edit panel should close after save")
	}
	if r, _ := s.Report(5); r.ClassName != "BSCSM2" {
		t.Fatalf("list not re-fetched: %+v", r)
	}

	t.Run("renamed_to_existing_class", func(t *testing.T) {
		if err := s.StartEdit(5); err != nil {
			t.Fatal(err)
		}
		_ = s.SetEditField(5, FieldClassName, " bscsm1 ")
		api.Reset()
		if err := s.SaveEdit(ctx, 5); err != nil {
			t.Fatal(err)
		}
		if n := len(api.CallsTo(http.MethodPost, "/classes")); n != 0 {
			t.Fatalf("existing class created again %d times", n)
		}
		if put := api.CallsTo(http.MethodPut, "/reports/5")[0].Body; put["class_id"] != float64(3) {
			t.Fatalf("put body = %v", put)
		}
	})

	t.Run("cancel", func(t *testing.T) {
		_ = s.StartEdit(5)
		s.CancelEdit(5)
		if _, ok := s.Editing(5); ok {
			t.Fatal("cancel should close the panel")
		}
	})

	t.Run("vanished_report", func(t *testing.T) {
		_ = s.StartEdit(5)
		api.Do(func(api *fakeapi.Server) { api.Reports = nil })
		err := s.SaveEdit(ctx, 5)
		if screen.KindOf(err) != screen.KindNotFound {
			t.Fatalf("kind = %s (%v)", screen.KindOf(err), err)
		}
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("declined_sends_nothing", func(t *testing.T) {
		api := fakeapi.New(t)
		api.Reports = []models.Report{{ID: 1}}
		s := newScreen(t, api, models.Lecturer)
		_ = s.Load(ctx)
		api.Reset()
		if err := s.Delete(ctx, 1, screen.Declined); err != nil {
			t.Fatal(err)
		}
		if len(api.Calls()) != 0 {
			t.Fatalf("calls = %v", api.Keys())
		}
	})

	t.Run("confirmed_refetches", func(t *testing.T) {
		api := fakeapi.New(t)
		seen := "Reviewed"
		api.Reports = []models.Report{{ID: 1, Feedback: &seen}, {ID: 2, Feedback: &seen}}
		s := newScreen(t, api, models.PL)
		_ = s.Load(ctx)
		s.Toggle(1)

		var prompt string
		c := screen.ConfirmFunc(func(_ context.Context, p string) bool { prompt = p; return true })
		if err := s.Delete(ctx, 1, c); err != nil {
			t.Fatal(err)
		}
		if prompt != DeletePrompt {
			t.Fatalf("prompt = %q", prompt)
		}
		if got := s.Reports(); len(got) != 1 || got[0].ID != 2 {
			t.Fatalf("reports = %+v", got)
		}
		if s.Expanded() != 0 {
			t.Fatal("deleted report still expanded")
		}
	})

	t.Run("missing_is_not_found", func(t *testing.T) {
		api := fakeapi.New(t)
		s := newScreen(t, api, models.Lecturer)
		err := s.Delete(ctx, 99, screen.Confirmed)
		if screen.KindOf(err) != screen.KindNotFound {
			t.Fatalf("kind = %s (%v)", screen.KindOf(err), err)
		}
	})

	t.Run("prl_denied", func(t *testing.T) {
		api := fakeapi.New(t)
		s := newScreen(t, api, models.PRL)
		if err := s.Delete(ctx, 1, screen.Confirmed); screen.KindOf(err) != screen.KindDenied {
			t.Fatalf("kind = %s", screen.KindOf(err))
		}
		if len(api.Calls()) != 0 {
			t.Fatalf("calls = %v", api.Keys())
		}
	})
}

func TestFeedback(t *testing.T) {
	ctx := context.Background()

	t.Run("prl_success", func(t *testing.T) {
		api := fakeapi.New(t)
		api.Reports = []models.Report{{ID: 7, TopicTaught: "Sorting"}}
		s := newScreen(t, api, models.PRL)
		if err := s.Load(ctx); err != nil {
			t.Fatal(err)
		}
		api.Reset()

		s.SetFeedback(7, "Good session")
		if err := s.SubmitFeedback(ctx, 7); err != nil {
			t.Fatal(err)
		}
		posts := api.CallsTo(http.MethodPost, "/reports/feedback/7")
		if len(posts) != 1 {
			t.Fatalf("calls = %v", api.Keys())
		}
		if !reflect.DeepEqual(posts[0].Body, map[string]any{"feedback": "Good session"}) {
			t.Fatalf("body = %s", posts[0].RawBody)
		}
		if n := s.Notice(); n == nil || n.Level != screen.Success || n.Text != "Feedback submitted successfully" {
			t.Fatalf("notice = %+v", n)
		}
		if s.FeedbackDraft(7) != "" {
			t.Fatal("draft not cleared")
		}
		if r, _ := s.Report(7); r.Feedback == nil || *r.Feedback != "Good session" {
			t.Fatalf("list not re-fetched: %+v", r)
		}
	})

	t.Run("non_prl_never_calls", func(t *testing.T) {
		for _, role := range []models.Role{models.Lecturer, models.PL, models.Student} {
			api := fakeapi.New(t)
			s := newScreen(t, api, role)
			s.SetFeedback(7, "Good session")
			err := s.SubmitFeedback(ctx, 7)
			if screen.KindOf(err) != screen.KindDenied || screen.Message(err) != msgFeedbackPRL {
				t.Fatalf("%s: %v", role, err)
			}
			if len(api.Calls()) != 0 {
				t.Fatalf("%s: calls = %v", role, api.Keys())
			}
		}
	})

	t.Run("blank_rejected", func(t *testing.T) {
		api := fakeapi.New(t)
		s := newScreen(t, api, models.PRL)
		s.SetFeedback(7, "   ")
		if err := s.SubmitFeedback(ctx, 7); screen.Message(err) != msgFeedbackEmpty {
			t.Fatalf("err = %v", err)
		}
		if len(api.Calls()) != 0 {
			t.Fatalf("calls = %v", api.Keys())
		}
	})

	t.Run("status_messages", func(t *testing.T) {
		tests := []struct {
			status   int
			wantKind screen.Kind
			wantMsg  string
		}{
			{http.StatusForbidden, screen.KindDenied, msgFeedbackPRL},
			{http.StatusNotFound, screen.KindNotFound, msgFeedback404},
			{http.StatusTeapot, screen.KindUnknown, "I'm a teapot"},
		}
		for _, tt := range tests {
			api := fakeapi.New(t)
			api.Fail(http.MethodPost, "/reports/feedback/7", tt.status)
			s := newScreen(t, api, models.PRL)
			s.SetFeedback(7, "ok")
			err := s.SubmitFeedback(ctx, 7)
			if screen.KindOf(err) != tt.wantKind || screen.Message(err) != tt.wantMsg {
				t.Fatalf("status %d: kind=%s msg=%q", tt.status, screen.KindOf(err), screen.Message(err))
			}
			if s.FeedbackDraft(7) != "ok" {
				t.Fatalf("status %d: draft cleared on failure", tt.status)
			}
		}
	})
}

func TestList_ErrorHandlingByRole(t *testing.T) {
	ctx := context.Background()

	t.Run("pl_suppressed", func(t *testing.T) {
		api := fakeapi.New(t)
		api.Fail(http.MethodGet, "/reports/prl-feedback", http.StatusInternalServerError)
		s := newScreen(t, api, models.PL)
		if err := s.Refresh(ctx); err != nil {
			t.Fatalf("pl fetch error must be suppressed: %v", err)
		}
		v, ok := s.View().(PLView)
		if !ok {
			t.Fatalf("view = %T", s.View())
		}
		if v.Items == nil || len(v.Items) != 0 {
			t.Fatalf("items = %+v", v.Items)
		}
		if len(api.CallsTo(http.MethodGet, "/reports")) != 0 {
			t.Fatal("pl must use the feedback feed")
		}
	})

	t.Run("lecturer_alerted_list_kept", func(t *testing.T) {
		api := fakeapi.New(t)
		api.Reports = []models.Report{{ID: 1}}
		s := newScreen(t, api, models.Lecturer)
		_ = s.Refresh(ctx)
		api.Fail(http.MethodGet, "/reports", http.StatusInternalServerError)

		err := s.Refresh(ctx)
		if screen.Message(err) != msgFetchReports {
			t.Fatalf("err = %v", err)
		}
		v := s.View().(LecturerView)
		if v.Notice == nil || v.Notice.Text != msgFetchReports {
			t.Fatalf("notice = %+v", v.Notice)
		}
		if len(v.Items) != 1 {
			t.Fatal("previous list should be kept")
		}
	})
}

func TestSearch_PassesQuery(t *testing.T) {
	api := fakeapi.New(t)
	api.Reports = []models.Report{{ID: 1, CourseName: "Networks"}, {ID: 2, CourseName: "Databases"}}
	s := newScreen(t, api, models.PRL)
	if err := s.Search(context.Background(), "net"); err != nil {
		t.Fatal(err)
	}
	if got := s.Reports(); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("reports = %+v", got)
	}
	if api.Calls()[0].Query != "net" {
		t.Fatalf("q = %q", api.Calls()[0].Query)
	}
}

func TestExpansionAndExport(t *testing.T) {
	ctx := context.Background()
	api := fakeapi.New(t)
	api.Classes = []models.Class{{ClassID: 3, ClassName: "BSCSM1"}}
	api.Reports = []models.Report{
		{ID: 1, ClassID: 3, TopicTaught: "Arrays"},
		{ID: 2, ClassID: 3, TopicTaught: "Lists"},
		{ID: 3, ClassID: 3, TopicTaught: "Maps"},
	}
	s := newScreen(t, api, models.Lecturer)
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}

	s.Toggle(1)
	s.Toggle(2)
	if s.Expanded() != 2 {
		t.Fatalf("expanded = %d", s.Expanded())
	}
	_ = s.StartEdit(3)
	s.Toggle(2)
	if s.Expanded() != 0 {
		t.Fatal("toggling the open report should close it")
	}
	if _, ok := s.Editing(3); !ok {
		t.Fatal("edit state must be independent of expansion")
	}
	s.Toggle(1)

	path, err := s.Export(ctx)
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(export.ReportsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header + 3", len(rows))
	}
	seen := map[string]int{}
	for _, r := range rows[1:] {
		seen[r[12]]++
	}
	for _, topic := range []string{"Arrays", "Lists", "Maps"} {
		if seen[topic] != 1 {
			t.Fatalf("topic %q exported %d times", topic, seen[topic])
		}
	}
}

// slowAPI holds the first ListReports call until released.
type slowAPI struct {
	API
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (a *slowAPI) ListReports(ctx context.Context, q string) ([]models.Report, error) {
	if q == "slow" {
		a.once.Do(func() { close(a.entered) })
		<-a.release
		return []models.Report{{ID: 100, TopicTaught: "stale"}}, nil
	}
	return a.API.ListReports(ctx, q)
}

func TestRefresh_StaleResponseDropped(t *testing.T) {
	ctx := context.Background()
	api := fakeapi.New(t)
	api.Reports = []models.Report{{ID: 1, TopicTaught: "fresh"}}
	client := apiclient.New(api.URL, fakeapi.Header, nil, staticToken(fakeapi.Token(t, models.PRL)))
	slow := &slowAPI{API: client, entered: make(chan struct{}), release: make(chan struct{})}
	s := New(slow, fixedRole(models.PRL), nil, t.TempDir())

	done := make(chan error, 1)
	go func() { done <- s.Search(ctx, "slow") }()

	select {
	case <-slow.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("slow fetch never started")
	}
	if err := s.Search(ctx, ""); err != nil {
		t.Fatal(err)
	}
	close(slow.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	got := s.Reports()
	if len(got) != 1 || got[0].TopicTaught != "fresh" {
		t.Fatalf("stale response applied: %+v", got)
	}
}
