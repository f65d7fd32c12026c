package apiclient

import (
	"context"
	"net/http"

	"github.com/luct-reporting/luct-bot/internal/models"
)

// Reports

func (c *Client) ListReports(ctx context.Context, q string) ([]models.Report, error) {
	var out []models.Report
	err := c.do(ctx, "reports.list", http.MethodGet, "/reports", searchQuery(q), nil, &out)
	return out, err
}

func (c *Client) ListPRLFeedbackReports(ctx context.Context) ([]models.Report, error) {
	var out []models.Report
	err := c.do(ctx, "reports.prl_feedback", http.MethodGet, "/reports/prl-feedback", nil, nil, &out)
	return out, err
}

func (c *Client) CreateReport(ctx context.Context, in models.ReportInput) error {
	return c.do(ctx, "reports.create", http.MethodPost, "/reports", nil, in, nil)
}

func (c *Client) UpdateReport(ctx context.Context, id int64, in models.ReportInput) error {
	return c.do(ctx, "reports.update", http.MethodPut, idPath("/reports", id), nil, in, nil)
}

func (c *Client) DeleteReport(ctx context.Context, id int64) error {
	return c.do(ctx, "reports.delete", http.MethodDelete, idPath("/reports", id), nil, nil, nil)
}

// SubmitFeedback returns the server's confirmation message, if any.
func (c *Client) SubmitFeedback(ctx context.Context, id int64, feedback string) (string, error) {
	var out models.MessageResponse
	err := c.do(ctx, "reports.feedback", http.MethodPost, idPath("/reports/feedback", id), nil,
		models.FeedbackInput{Feedback: feedback}, &out)
	return out.Text(), err
}

// Classes

func (c *Client) ListClasses(ctx context.Context, q string) ([]models.Class, error) {
	var out []models.Class
	err := c.do(ctx, "classes.list", http.MethodGet, "/classes", searchQuery(q), nil, &out)
	return out, err
}

func (c *Client) CreateClass(ctx context.Context, in models.ClassInput) (models.Class, error) {
	var out models.Class
	err := c.do(ctx, "classes.create", http.MethodPost, "/classes", nil, in, &out)
	return out, err
}

func (c *Client) UpdateClass(ctx context.Context, id int64, in models.ClassInput) error {
	return c.do(ctx, "classes.update", http.MethodPut, idPath("/classes", id), nil, in, nil)
}

func (c *Client) DeleteClass(ctx context.Context, id int64) error {
	return c.do(ctx, "classes.delete", http.MethodDelete, idPath("/classes", id), nil, nil, nil)
}

// Courses

func (c *Client) ListCourses(ctx context.Context, q string) ([]models.Course, error) {
	var out []models.Course
	err := c.do(ctx, "courses.list", http.MethodGet, "/courses", searchQuery(q), nil, &out)
	return out, err
}

func (c *Client) CreateCourse(ctx context.Context, in models.CourseInput) error {
	return c.do(ctx, "courses.create", http.MethodPost, "/courses", nil, in, nil)
}

func (c *Client) DeleteCourse(ctx context.Context, id int64) error {
	return c.do(ctx, "courses.delete", http.MethodDelete, idPath("/courses", id), nil, nil, nil)
}

// Lectures

func (c *Client) ListLectures(ctx context.Context) ([]models.Lecture, error) {
	var out []models.Lecture
	err := c.do(ctx, "lectures.list", http.MethodGet, "/lectures", nil, nil, &out)
	return out, err
}

func (c *Client) CreateLecture(ctx context.Context, in models.LectureInput) (models.Lecture, error) {
	var out models.Lecture
	err := c.do(ctx, "lectures.create", http.MethodPost, "/lectures", nil, in, &out)
	return out, err
}

func (c *Client) DeleteLecture(ctx context.Context, id int64) error {
	return c.do(ctx, "lectures.delete", http.MethodDelete, idPath("/lectures", id), nil, nil, nil)
}

func (c *Client) AvailableReports(ctx context.Context) ([]models.Report, error) {
	var out []models.Report
	err := c.do(ctx, "lectures.available_reports", http.MethodGet, "/lectures/available-reports", nil, nil, &out)
	return out, err
}

// Monitoring

func (c *Client) ListMonitoring(ctx context.Context, q string) ([]models.MonitoringEntry, error) {
	var out []models.MonitoringEntry
	err := c.do(ctx, "monitoring.list", http.MethodGet, "/monitoring", searchQuery(q), nil, &out)
	return out, err
}

// Rating

func (c *Client) StudentsToRate(ctx context.Context) ([]models.RatingTarget, error) {
	var out []models.RatingTarget
	err := c.do(ctx, "rating.students", http.MethodGet, "/students-to-rate", nil, nil, &out)
	return out, err
}

func (c *Client) LecturesToRate(ctx context.Context) ([]models.RatingTarget, error) {
	var out []models.RatingTarget
	err := c.do(ctx, "rating.lectures", http.MethodGet, "/lectures-to-rate", nil, nil, &out)
	return out, err
}

func (c *Client) ListRatings(ctx context.Context) ([]models.Rating, error) {
	var out models.RatingList
	err := c.do(ctx, "rating.list", http.MethodGet, "/rating", nil, nil, &out)
	return out.Ratings, err
}

func (c *Client) SubmitRating(ctx context.Context, in models.RatingInput) (string, error) {
	var out models.MessageResponse
	err := c.do(ctx, "rating.submit", http.MethodPost, "/rating", nil, in, &out)
	return out.Text(), err
}
