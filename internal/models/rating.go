package models

import "fmt"

// RatingTarget is either a student (lecturer view) or a lecture (student view).
type RatingTarget struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	CourseName string `json:"course_name"`
}

func (t RatingTarget) Label() string {
	switch {
	case t.Username != "":
		return t.Username
	case t.CourseName != "":
		return t.CourseName
	default:
		return fmt.Sprintf("Lecture %d", t.ID)
	}
}

type Rating struct {
	ID           int64   `json:"id"`
	Rating       FlexInt `json:"rating"`
	Comment      *string `json:"comment"`
	StudentName  string  `json:"student_name"`
	CourseName   string  `json:"course_name"`
	LecturerName string  `json:"lecturer_name"`
}

type RatingInput struct {
	TargetID int64   `json:"target_id" validate:"required"`
	Rating   int     `json:"rating" validate:"required,min=1,max=5"`
	Comment  *string `json:"comment"`
}

type RatingList struct {
	Ratings []Rating `json:"ratings"`
}
