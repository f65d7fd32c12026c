package models

type Class struct {
	ClassID   int64  `json:"class_id"`
	ClassName string `json:"class_name"`
	Venue     string `json:"venue"`
}

type ClassInput struct {
	ClassName string `json:"class_name" validate:"notblank"`
	Venue     string `json:"venue"`
}

type Course struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Code         string   `json:"code"`
	CourseName   string   `json:"course_name"`
	CourseCode   string   `json:"course_code"`
	LecturerID   *FlexInt `json:"lecturer_id"`
	LecturerName string   `json:"lecturer_name"`
	// set when the list comes from the lectures join
	DateOfLecture string `json:"date_of_lecture"`
}

// DisplayName and DisplayCode hide the two naming schemes the API uses.
func (c Course) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.CourseName
}

func (c Course) DisplayCode() string {
	if c.Code != "" {
		return c.Code
	}
	return c.CourseCode
}

type CourseInput struct {
	Name       string `json:"name" validate:"required"`
	Code       string `json:"code" validate:"required"`
	LecturerID int64  `json:"lecturer_id" validate:"required,gt=0"`
}

type Lecture struct {
	ID            int64    `json:"id"`
	CourseID      FlexInt  `json:"course_id"`
	LecturerID    FlexInt  `json:"lecturer_id"`
	DateOfLecture string   `json:"date_of_lecture"`
	ReportID      *FlexInt `json:"report_id"`
	CourseName    string   `json:"course_name"`
	LecturerName  string   `json:"lecturer_name"`
}

type LectureInput struct {
	CourseID      int64  `json:"course_id" validate:"required,gt=0"`
	LecturerID    int64  `json:"lecturer_id" validate:"required,gt=0"`
	DateOfLecture string `json:"date_of_lecture" validate:"required"`
	ReportID      *int64 `json:"report_id,omitempty"`
}

type MonitoringEntry struct {
	ID              int64   `json:"id"`
	CourseName      string  `json:"course_name"`
	WeekOfReporting FlexInt `json:"week_of_reporting"`
}
