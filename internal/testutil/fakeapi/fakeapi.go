// Package fakeapi is an in-memory stand-in for the LUCT reporting API.
// It records every call so tests can assert exact request sequences.
package fakeapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/luct-reporting/luct-bot/internal/models"
)

const (
	Header = "x-auth-token"
	secret = "fakeapi-secret"
)

type Call struct {
	Method string
	Path   string
	Query  string
	Token  string
	Body   map[string]any
	// RawBody keeps the exact JSON, for null-vs-missing checks.
	RawBody string
}

// Key is "METHOD /path", e.g. "POST /classes".
func (c Call) Key() string { return c.Method + " " + c.Path }

type user struct {
	password string
	role     models.Role
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	calls    []Call
	failures map[string]int
	nextID   int64
	users    map[string]user

	Reports          []models.Report
	Classes          []models.Class
	Courses          []models.Course
	Lectures         []models.Lecture
	AvailableReports []models.Report
	Monitoring       []models.MonitoringEntry
	StudentsToRate   []models.RatingTarget
	LecturesToRate   []models.RatingTarget
	Ratings          []models.Rating
}

// New starts the server; it is closed with t.Cleanup.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		failures: make(map[string]int),
		users:    make(map[string]user),
		nextID:   100,
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// Token issues a credential for role, signed the way the real API signs them.
func Token(t testing.TB, role models.Role) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   1,
		"role": string(role),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func (s *Server) AddUser(username, password string, role models.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = user{password: password, role: role}
}

// Fail makes every "METHOD /path" call answer with status until Reset.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]int)
	s.calls = nil
}

// Do runs fn with the server state locked, for mid-test changes.
func (s *Server) Do(fn func(s *Server)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Keys lists "METHOD /path" of every recorded call in order.
func (s *Server) Keys() []string {
	calls := s.Calls()
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Key())
	}
	return out
}

func (s *Server) CallsTo(method, path string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Post("/auth/login", s.login)
	r.Post("/auth/register", s.register)

	r.Group(func(r chi.Router) {
		r.Use(requireToken)

		r.Get("/reports", s.listReports)
		r.Post("/reports", s.createReport)
		r.Get("/reports/prl-feedback", s.listPRLFeedback)
		r.Put("/reports/{id}", s.updateReport)
		r.Delete("/reports/{id}", s.deleteReport)
		r.Post("/reports/feedback/{id}", s.feedback)

		r.Get("/classes", s.listClasses)
		r.Post("/classes", s.createClass)
		r.Put("/classes/{id}", s.updateClass)
		r.Delete("/classes/{id}", s.deleteClass)

		r.Get("/courses", s.listCourses)
		r.Post("/courses", s.createCourse)
		r.Delete("/courses/{id}", s.deleteCourse)

		r.Get("/lectures", s.listLectures)
		r.Post("/lectures", s.createLecture)
		r.Delete("/lectures/{id}", s.deleteLecture)
		r.Get("/lectures/available-reports", s.availableReports)

		r.Get("/monitoring", s.listMonitoring)
		r.Get("/students-to-rate", s.list(func() any { return s.StudentsToRate }))
		r.Get("/lectures-to-rate", s.list(func() any { return s.LecturesToRate }))
		r.Get("/rating", s.listRatings)
		r.Post("/rating", s.createRating)
	})
	return r
}

// record logs the call and short-circuits configured failures.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(raw)))

		c := Call{
			Method:  r.Method,
			Path:    r.URL.Path,
			Query:   r.URL.Query().Get("q"),
			Token:   r.Header.Get(Header),
			RawBody: string(raw),
		}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &c.Body)
		}

		s.mu.Lock()
		s.calls = append(s.calls, c)
		status, fail := s.failures[c.Key()]
		s.mu.Unlock()

		if fail {
			writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(Header) == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "No token, authorization denied"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func roleOf(r *http.Request) models.Role {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(r.Header.Get(Header), claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return ""
	}
	role, _ := claims["role"].(string)
	return models.Role(role)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id
}

func decode(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

func (s *Server) newID() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) list(get func() any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		v := get()
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, v)
	}
}

func contains(hay, needle string) bool {
	return strings.Contains(strings.ToLower(hay), strings.ToLower(needle))
}

// Auth

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in models.Credentials
	if !decode(r, &in) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid body"})
		return
	}
	s.mu.Lock()
	u, ok := s.users[in.Username]
	s.mu.Unlock()
	if !ok || u.password != in.Password {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid credentials"})
		return
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": string(u.role)})
	signed, _ := tok.SignedString([]byte(secret))
	writeJSON(w, http.StatusOK, models.LoginResponse{Token: signed})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in models.Registration
	if !decode(r, &in) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.users[in.Username]; taken {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "User already exists"})
		return
	}
	s.users[in.Username] = user{password: in.Password, role: in.Role}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered"})
}

// Reports

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	s.mu.Lock()
	out := make([]models.Report, 0, len(s.Reports))
	for _, rep := range s.Reports {
		if q == "" || contains(rep.CourseName, q) || contains(rep.LecturerName, q) || contains(rep.TopicTaught, q) {
			out = append(out, rep)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listPRLFeedback(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]models.Report, 0, len(s.Reports))
	for _, rep := range s.Reports {
		if rep.Feedback != nil {
			out = append(out, rep)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func reportFromInput(id int64, in models.ReportInput, className string) models.Report {
	rep := models.Report{
		ID:               id,
		FacultyName:      in.FacultyName,
		ClassID:          models.FlexInt(in.ClassID),
		ClassName:        className,
		WeekOfReporting:  models.FlexInt(in.WeekOfReporting),
		DateOfLecture:    in.DateOfLecture,
		CourseName:       in.CourseName,
		CourseCode:       in.CourseCode,
		LecturerName:     in.LecturerName,
		ActualStudents:   models.FlexInt(in.ActualStudents),
		TotalRegistered:  models.FlexInt(in.TotalRegistered),
		Venue:            in.Venue,
		ScheduledTime:    in.ScheduledTime,
		TopicTaught:      in.TopicTaught,
		LearningOutcomes: in.LearningOutcomes,
		Recommendations:  in.Recommendations,
	}
	if in.LecturerID != nil {
		v := models.FlexInt(*in.LecturerID)
		rep.LecturerID = &v
	}
	return rep
}

func (s *Server) classNameLocked(id int64) (string, bool) {
	for _, c := range s.Classes {
		if c.ClassID == id {
			return c.ClassName, true
		}
	}
	return "", false
}

func (s *Server) createReport(w http.ResponseWriter, r *http.Request) {
	var in models.ReportInput
	if !decode(r, &in) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.classNameLocked(in.ClassID)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Unknown class"})
		return
	}
	rep := reportFromInput(s.newID(), in, name)
	s.Reports = append(s.Reports, rep)
	writeJSON(w, http.StatusCreated, rep)
}

func (s *Server) updateReport(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	var in models.ReportInput
	if !decode(r, &in) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rep := range s.Reports {
		if rep.ID == id {
			name, _ := s.classNameLocked(in.ClassID)
			updated := reportFromInput(id, in, name)
			updated.Feedback = rep.Feedback
			s.Reports[i] = updated
			writeJSON(w, http.StatusOK, updated)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Report not found"})
}

func (s *Server) deleteReport(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rep := range s.Reports {
		if rep.ID == id {
			s.Reports = append(s.Reports[:i], s.Reports[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Report deleted"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Report not found"})
}

func (s *Server) feedback(w http.ResponseWriter, r *http.Request) {
	if roleOf(r) != models.PRL {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Access denied"})
		return
	}
	id := pathID(r)
	var in models.FeedbackInput
	if !decode(r, &in) || strings.TrimSpace(in.Feedback) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Feedback is required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Reports {
		if s.Reports[i].ID == id {
			fb := in.Feedback
			s.Reports[i].Feedback = &fb
			writeJSON(w, http.StatusOK, map[string]string{"message": "Feedback submitted successfully"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Report not found"})
}

// Classes

func (s *Server) listClasses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	s.mu.Lock()
	out := make([]models.Class, 0, len(s.Classes))
	for _, c := range s.Classes {
		if q == "" || contains(c.ClassName, q) || contains(c.Venue, q) {
			out = append(out, c)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createClass(w http.ResponseWriter, r *http.Request) {
	var in models.ClassInput
	if !decode(r, &in) || in.ClassName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "class_name is required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.Classes {
		if strings.EqualFold(c.ClassName, in.ClassName) {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "Class already exists"})
			return
		}
	}
	c := models.Class{ClassID: s.newID(), ClassName: in.ClassName, Venue: in.Venue}
	s.Classes = append(s.Classes, c)
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) updateClass(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	var in models.ClassInput
	if !decode(r, &in) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Classes {
		if s.Classes[i].ClassID == id {
			s.Classes[i].ClassName = in.ClassName
			s.Classes[i].Venue = in.Venue
			writeJSON(w, http.StatusOK, s.Classes[i])
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Class not found"})
}

func (s *Server) deleteClass(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Classes {
		if s.Classes[i].ClassID == id {
			s.Classes = append(s.Classes[:i], s.Classes[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Class deleted"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Class not found"})
}

// Courses

func (s *Server) listCourses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	s.mu.Lock()
	out := make([]models.Course, 0, len(s.Courses))
	for _, c := range s.Courses {
		if q == "" || contains(c.DisplayName(), q) || contains(c.DisplayCode(), q) {
			out = append(out, c)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createCourse(w http.ResponseWriter, r *http.Request) {
	if roleOf(r) != models.PL {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Access denied"})
		return
	}
	var in models.CourseInput
	if !decode(r, &in) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lid := models.FlexInt(in.LecturerID)
	c := models.Course{ID: s.newID(), Name: in.Name, Code: in.Code, LecturerID: &lid}
	s.Courses = append(s.Courses, c)
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) deleteCourse(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Courses {
		if s.Courses[i].ID == id {
			s.Courses = append(s.Courses[:i], s.Courses[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Course deleted"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Course not found"})
}

// Lectures

func (s *Server) listLectures(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]models.Lecture{}, s.Lectures...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createLecture(w http.ResponseWriter, r *http.Request) {
	var in models.LectureInput
	if !decode(r, &in) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l := models.Lecture{
		ID:            s.newID(),
		CourseID:      models.FlexInt(in.CourseID),
		LecturerID:    models.FlexInt(in.LecturerID),
		DateOfLecture: in.DateOfLecture,
	}
	if in.ReportID != nil {
		v := models.FlexInt(*in.ReportID)
		l.ReportID = &v
	}
	s.Lectures = append(s.Lectures, l)
	writeJSON(w, http.StatusCreated, l)
}

func (s *Server) deleteLecture(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Lectures {
		if s.Lectures[i].ID == id {
			s.Lectures = append(s.Lectures[:i], s.Lectures[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Lecture deleted"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Lecture not found"})
}

func (s *Server) availableReports(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]models.Report{}, s.AvailableReports...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

// Monitoring & rating

func (s *Server) listMonitoring(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	s.mu.Lock()
	out := make([]models.MonitoringEntry, 0, len(s.Monitoring))
	for _, m := range s.Monitoring {
		if q == "" || contains(m.CourseName, q) {
			out = append(out, m)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listRatings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := models.RatingList{Ratings: append([]models.Rating{}, s.Ratings...)}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createRating(w http.ResponseWriter, r *http.Request) {
	var in models.RatingInput
	if !decode(r, &in) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid body"})
		return
	}
	if in.Rating < 1 || in.Rating > 5 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Rating must be between 1 and 5"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Ratings = append(s.Ratings, models.Rating{
		ID:      s.newID(),
		Rating:  models.FlexInt(in.Rating),
		Comment: in.Comment,
	})
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Rating submitted successfully"})
}
