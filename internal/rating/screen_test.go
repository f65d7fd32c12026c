package rating

import (
	"context"
	"net/http"
	"testing"

	"github.com/luct-reporting/luct-bot/internal/apiclient"
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
	return New(client, fixedRole(role), nil)
}

func TestLoad_TargetsByRole(t *testing.T) {
	ctx := context.Background()

	t.Run("lecturer_rates_students", func(t *testing.T) {
		api := fakeapi.New(t)
		api.StudentsToRate = []models.RatingTarget{{ID: 1, Username: "neo"}}
		s := newScreen(t, api, models.Lecturer)
		if err := s.Load(ctx); err != nil {
			t.Fatal(err)
		}
		if len(api.CallsTo(http.MethodGet, "/students-to-rate")) != 1 ||
			len(api.CallsTo(http.MethodGet, "/lectures-to-rate")) != 0 {
			t.Fatalf("calls = %v", api.Keys())
		}
		if s.Title() != "Rate Students" || s.Targets()[0].Label() != "neo" {
			t.Fatalf("title=%q targets=%+v", s.Title(), s.Targets())
		}
	})

	t.Run("student_rates_lectures", func(t *testing.T) {
		api := fakeapi.New(t)
		api.LecturesToRate = []models.RatingTarget{{ID: 3}}
		s := newScreen(t, api, models.Student)
		if err := s.Load(ctx); err != nil {
			t.Fatal(err)
		}
		if s.Title() != "Rate Lectures" || s.Targets()[0].Label() != "Lecture 3" {
			t.Fatalf("title=%q targets=%+v", s.Title(), s.Targets())
		}
	})

	for _, role := range []models.Role{models.PRL, models.PL} {
		t.Run(string(role)+"_no_access", func(t *testing.T) {
			api := fakeapi.New(t)
			s := newScreen(t, api, role)
			err := s.Load(ctx)
			if screen.KindOf(err) != screen.KindDenied || screen.Message(err) != MsgNoAccess {
				t.Fatalf("err = %v", err)
			}
			if len(api.Calls()) != 0 {
				t.Fatalf("calls = %v", api.Keys())
			}
			if s.Targets() == nil || len(s.Targets()) != 0 {
				t.Fatal("targets should be an empty list")
			}
			if n := s.Notice(); n == nil || n.Text != MsgNoAccess {
				t.Fatalf("notice = %+v", n)
			}
		})
	}
}

func TestSubmit_StudentScenario(t *testing.T) {
	ctx := context.Background()
	api := fakeapi.New(t)
	api.LecturesToRate = []models.RatingTarget{{ID: 3, CourseName: "Networks"}, {ID: 4}}
	s := newScreen(t, api, models.Student)
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}
	s.SetRating(4, "2")
	api.Reset()

	s.SetRating(3, "5")
	if err := s.Submit(ctx, 3); err != nil {
		t.Fatal(err)
	}

	posts := api.CallsTo(http.MethodPost, "/rating")
	if len(posts) != 1 {
		t.Fatalf("calls = %v", api.Keys())
	}
	if want := `{"target_id":3,"rating":5,"comment":null}`; posts[0].RawBody != want {
		t.Fatalf("body = %s, want %s", posts[0].RawBody, want)
	}
	if keys := api.Keys(); keys[len(keys)-1] != "GET /rating" {
		t.Fatalf("ratings not re-fetched: %v", keys)
	}
	if d := s.Draft(3); d != (Draft{}) {
		t.Fatalf("draft 3 = %+v", d)
	}
	if s.Draft(4).Rating != "2" {
		t.Fatal("other drafts must be untouched")
	}
	if len(s.Ratings()) != 1 {
		t.Fatalf("ratings = %+v", s.Ratings())
	}
	if n := s.Notice(); n == nil || n.Text != "Rating submitted successfully" {
		t.Fatalf("notice = %+v", n)
	}
}

func TestSubmit_WithComment(t *testing.T) {
	api := fakeapi.New(t)
	s := newScreen(t, api, models.Lecturer)
	s.SetRating(9, "4")
	s.SetComment(9, " Participates well ")
	if err := s.Submit(context.Background(), 9); err != nil {
		t.Fatal(err)
	}
	body := api.CallsTo(http.MethodPost, "/rating")[0].Body
	if body["comment"] != "Participates well" || body["rating"] != float64(4) {
		t.Fatalf("body = %v", body)
	}
}

func TestSubmit_RejectedLocally(t *testing.T) {
	tests := []struct {
		name   string
		rating string
		want   string
	}{
		{"empty", "", msgNeedRating},
		{"blank", "  ", msgNeedRating},
		{"zero", "0", msgRange},
		{"six", "6", msgRange},
		{"word", "five", msgRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := fakeapi.New(t)
			s := newScreen(t, api, models.Student)
			s.SetRating(3, tt.rating)
			err := s.Submit(context.Background(), 3)
			if screen.KindOf(err) != screen.KindValidation || screen.Message(err) != tt.want {
				t.Fatalf("err = %v", err)
			}
			if len(api.Calls()) != 0 {
				t.Fatalf("calls = %v", api.Keys())
			}
		})
	}
}

func TestSubmit_ServerError(t *testing.T) {
	api := fakeapi.New(t)
	api.Fail(http.MethodPost, "/rating", http.StatusBadRequest)
	s := newScreen(t, api, models.Student)
	s.SetRating(3, "5")
	err := s.Submit(context.Background(), 3)
	if screen.KindOf(err) != screen.KindValidation {
		t.Fatalf("kind = %s", screen.KindOf(err))
	}
	if s.Draft(3).Rating != "5" {
		t.Fatal("draft lost on failure")
	}
}

func TestLoad_DraftsKept(t *testing.T) {
	ctx := context.Background()
	api := fakeapi.New(t)
	api.LecturesToRate = []models.RatingTarget{{ID: 3}}
	s := newScreen(t, api, models.Student)
	_ = s.Load(ctx)
	s.SetRating(3, "4")
	if err := s.LoadTargets(ctx); err != nil {
		t.Fatal(err)
	}
	if s.Draft(3).Rating != "4" {
		t.Fatal("reloading targets must not wipe drafts")
	}
}
