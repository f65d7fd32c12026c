package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/screen"
	"github.com/luct-reporting/luct-bot/internal/testutil/fakeapi"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestClient_AttachesCredential(t *testing.T) {
	api := fakeapi.New(t)
	tok := fakeapi.Token(t, models.Lecturer)
	c := New(api.URL, fakeapi.Header, nil, staticToken(tok))

	if _, err := c.ListReports(context.Background(), ""); err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	calls := api.CallsTo(http.MethodGet, "/reports")
	if len(calls) != 1 {
		t.Fatalf("calls = %v", api.Keys())
	}
	if calls[0].Token != tok {
		t.Fatalf("token header = %q", calls[0].Token)
	}
}

func TestClient_AnonymousOmitsHeader(t *testing.T) {
	api := fakeapi.New(t)
	c := New(api.URL, fakeapi.Header, nil, staticToken(""))

	_, err := c.ListReports(context.Background(), "")
	if !IsUnauthorized(err) {
		t.Fatalf("want 401, got %v", err)
	}
	if got := ServerMessage(err, "fallback"); got != "No token, authorization denied" {
		t.Fatalf("server message = %q", got)
	}
}

func TestClient_SearchQueryEncoded(t *testing.T) {
	api := fakeapi.New(t)
	api.Reports = []models.Report{
		{ID: 1, CourseName: "Data Structures"},
		{ID: 2, CourseName: "Networks"},
	}
	c := New(api.URL, fakeapi.Header, nil, staticToken(fakeapi.Token(t, models.PL)))

	got, err := c.ListReports(context.Background(), "data str")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("filtered = %+v", got)
	}
	if q := api.Calls()[0].Query; q != "data str" {
		t.Fatalf("q = %q", q)
	}
}

func TestClient_StatusClassification(t *testing.T) {
	api := fakeapi.New(t)
	c := New(api.URL, fakeapi.Header, nil, staticToken(fakeapi.Token(t, models.Lecturer)))
	ctx := context.Background()

	err := c.DeleteReport(ctx, 42)
	if !IsNotFound(err) || IsSystem(err) {
		t.Fatalf("delete missing: %v", err)
	}

	_, err = c.SubmitFeedback(ctx, 1, "good")
	if !IsForbidden(err) {
		t.Fatalf("feedback as lecturer: %v", err)
	}

	api.Fail(http.MethodGet, "/classes", http.StatusInternalServerError)
	_, err = c.ListClasses(ctx, "")
	if !IsSystem(err) {
		t.Fatalf("500 should be system: %v", err)
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, "", nil, nil)
	_, err := c.ListCourses(context.Background(), "")
	if !IsTransport(err) || !IsSystem(err) {
		t.Fatalf("want transport error, got %v", err)
	}
}

func TestClient_LoginAndRatingsEnvelope(t *testing.T) {
	api := fakeapi.New(t)
	api.AddUser("mpho", "secret", models.Student)
	api.Ratings = []models.Rating{{ID: 7, Rating: 4}}
	ctx := context.Background()

	anon := New(api.URL, fakeapi.Header, nil, nil)
	if _, err := anon.Login(ctx, models.Credentials{Username: "mpho", Password: "nope"}); err == nil {
		t.Fatal("expected login failure")
	}
	tok, err := anon.Login(ctx, models.Credentials{Username: "mpho", Password: "secret"})
	if err != nil || tok == "" {
		t.Fatalf("login: %q %v", tok, err)
	}

	c := New(api.URL, fakeapi.Header, nil, staticToken(tok))
	got, err := c.ListRatings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Rating.Int() != 4 {
		t.Fatalf("ratings = %+v", got)
	}
}

func TestScreenError(t *testing.T) {
	api := fakeapi.New(t)
	c := New(api.URL, fakeapi.Header, nil, staticToken(fakeapi.Token(t, models.Lecturer)))
	ctx := context.Background()

	tests := []struct {
		name     string
		call     func() error
		wantKind screen.Kind
		wantMsg  string
	}{
		{
			name:     "not_found",
			call:     func() error { return c.DeleteReport(ctx, 999) },
			wantKind: screen.KindNotFound,
			wantMsg:  "Report not found",
		},
		{
			name:     "denied",
			call:     func() error { _, err := c.SubmitFeedback(ctx, 1, "x"); return err },
			wantKind: screen.KindDenied,
			wantMsg:  "Access denied",
		},
		{
			name:     "validation",
			call:     func() error { _, err := c.CreateClass(ctx, models.ClassInput{}); return err },
			wantKind: screen.KindValidation,
			wantMsg:  "class_name is required",
		},
		{
			name: "server_error_uses_fallback_kind_unknown",
			call: func() error {
				api.Fail(http.MethodGet, "/monitoring", http.StatusBadGateway)
				_, err := c.ListMonitoring(ctx, "")
				return err
			},
			wantKind: screen.KindUnknown,
			wantMsg:  "Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ScreenError(tt.call(), "fallback")
			if screen.KindOf(err) != tt.wantKind {
				t.Fatalf("kind = %s, want %s (%v)", screen.KindOf(err), tt.wantKind, err)
			}
			if screen.Message(err) != tt.wantMsg {
				t.Fatalf("msg = %q, want %q", screen.Message(err), tt.wantMsg)
			}
		})
	}

	if ScreenError(nil, "x") != nil {
		t.Fatal("nil in, nil out")
	}
}

func TestDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", nil, nil)
	_, err := c.ListLectures(context.Background())
	if !IsDecode(err) || !IsSystem(err) {
		t.Fatalf("want decode error, got %v", err)
	}
	if screen.KindOf(ScreenError(err, "Error fetching lectures")) != screen.KindDecode {
		t.Fatal("decode should map to KindDecode")
	}
}
