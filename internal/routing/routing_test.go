package routing

import (
	"sync"
	"testing"

	"github.com/luct-reporting/luct-bot/internal/models"
)

func TestGuard(t *testing.T) {
	tests := []struct {
		name   string
		role   models.Role
		authed bool
		path   Path
		want   Path
		ok     bool
	}{
		{"anon_public", "", false, Register, Register, true},
		{"anon_protected", "", false, Reports, Login, false},
		{"anon_unknown", "", false, "/nope", Login, false},
		{"student_reports", models.Student, true, Reports, RateLectures, false},
		{"lecturer_reports", models.Lecturer, true, Reports, Reports, true},
		{"prl_reports", models.PRL, true, Reports, Reports, true},
		{"pl_reports", models.PL, true, Reports, Reports, true},
		{"student_courses", models.Student, true, Courses, Courses, true},
		{"lecturer_courses_open", models.Lecturer, true, Courses, Courses, true},
		{"student_classes", models.Student, true, Classes, Courses, false},
		{"lecturer_monitoring", models.Lecturer, true, Monitoring, Reports, false},
		{"prl_monitoring", models.PRL, true, Monitoring, Monitoring, true},
		{"pl_lectures", models.PL, true, Lectures, Lectures, true},
		{"lecturer_lectures", models.Lecturer, true, Lectures, Reports, false},
		{"lecturer_rate_students", models.Lecturer, true, RateStudents, RateStudents, true},
		{"student_rate_students", models.Student, true, RateStudents, Courses, false},
		{"student_rating", models.Student, true, Rating, Rating, true},
		{"prl_rating", models.PRL, true, Rating, Reports, false},
		{"home_always", models.PL, true, Home, Home, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Guard(tt.role, tt.authed, tt.path)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("Guard(%q,%v,%q) = %q,%v want %q,%v", tt.role, tt.authed, tt.path, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNavLinks(t *testing.T) {
	labels := func(ls []Link) []string {
		out := make([]string, len(ls))
		for i, l := range ls {
			out[i] = l.Label
		}
		return out
	}
	want := map[models.Role][]string{
		models.Lecturer: {"Reports", "Classes", "Rate Students"},
		models.PRL:      {"Reports", "Monitoring", "Courses", "Lectures"},
		models.Student:  {"Courses", "Rate Lectures"},
		models.PL:       {"Reports", "Courses", "Classes", "Lectures"},
	}
	for role, w := range want {
		got := labels(NavLinks(role, true))
		if len(got) != len(w) {
			t.Fatalf("%s: %v", role, got)
		}
		for i := range w {
			if got[i] != w[i] {
				t.Fatalf("%s: %v, want %v", role, got, w)
			}
		}
		// every nav link must pass the guard for its role
		for _, l := range NavLinks(role, true) {
			if !Allowed(role, true, l.Path) {
				t.Fatalf("%s cannot open its own link %s", role, l.Path)
			}
		}
	}
	if got := labels(NavLinks("", false)); len(got) != 2 || got[0] != "Login" || got[1] != "Register" {
		t.Fatalf("anonymous = %v", got)
	}
}

type fakeSession struct {
	mu   sync.Mutex
	role models.Role
	obs  map[int]func(models.Role)
	n    int
}

func (f *fakeSession) Role() (models.Role, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.role, f.role != ""
}

func (f *fakeSession) OnRoleChange(fn func(models.Role)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.obs == nil {
		f.obs = map[int]func(models.Role){}
	}
	id := f.n
	f.n++
	f.obs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.obs, id)
	}
}

func (f *fakeSession) set(r models.Role) {
	f.mu.Lock()
	f.role = r
	var fns []func(models.Role)
	for _, fn := range f.obs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(r)
	}
}

func TestShell_RedirectsOnRoleChange(t *testing.T) {
	sess := &fakeSession{role: models.Lecturer}
	var redirects [][2]Path
	sh := NewShell(sess, func(from, to Path) { redirects = append(redirects, [2]Path{from, to}) })
	defer sh.Close()

	if got := sh.Navigate(Classes); got != Classes {
		t.Fatalf("navigate = %q", got)
	}

	// pl may still see classes
	sess.set(models.PL)
	if sh.Current() != Classes || len(redirects) != 0 {
		t.Fatalf("current=%q redirects=%v", sh.Current(), redirects)
	}

	sess.set(models.Student)
	if sh.Current() != Courses {
		t.Fatalf("current = %q", sh.Current())
	}

	sess.set("")
	if sh.Current() != Login {
		t.Fatalf("current = %q", sh.Current())
	}
	want := [][2]Path{{Classes, Courses}, {Courses, Login}}
	if len(redirects) != len(want) || redirects[0] != want[0] || redirects[1] != want[1] {
		t.Fatalf("redirects = %v", redirects)
	}

	sh.Close()
	sess.set(models.PRL)
	if len(redirects) != 2 {
		t.Fatal("closed shell still reacts")
	}
}
