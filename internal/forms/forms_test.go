package forms

import (
	"strings"
	"testing"

	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/screen"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		wantErr string // substring; "" means valid
	}{
		{"credentials_ok", models.Credentials{Username: "thabo", Password: "pw"}, ""},
		{"credentials_missing", models.Credentials{Username: "thabo"}, "password is a required field"},
		{"registration_bad_role", models.Registration{Username: "a", Password: "b", Role: "dean"}, "role must be one of"},
		{"feedback_blank", models.FeedbackInput{Feedback: "   "}, "feedback cannot be blank"},
		{"class_blank", models.ClassInput{ClassName: " "}, "class_name cannot be blank"},
		{"rating_zero", models.RatingInput{TargetID: 3}, "rating is a required field"},
		{"rating_high", models.RatingInput{TargetID: 3, Rating: 6}, "rating must be 5 or less"},
		{"rating_ok", models.RatingInput{TargetID: 3, Rating: 5}, ""},
		{"lecture_missing_course", models.LectureInput{LecturerID: 2, DateOfLecture: "2025-03-01"}, "course_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if screen.KindOf(err) != screen.KindValidation {
				t.Fatalf("kind = %s", screen.KindOf(err))
			}
			if !strings.Contains(screen.Message(err), tt.wantErr) {
				t.Fatalf("message %q does not contain %q", screen.Message(err), tt.wantErr)
			}
		})
	}
}

func TestFields(t *testing.T) {
	got := Fields(models.CourseInput{Code: "DS101"})
	if len(got) != 2 || got[0] != "name" || got[1] != "lecturer_id" {
		t.Fatalf("fields = %v", got)
	}
	if Fields(models.CourseInput{Name: "DS", Code: "DS101", LecturerID: 4}) != nil {
		t.Fatal("valid input should have no failing fields")
	}
}
