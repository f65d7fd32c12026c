package models

type Report struct {
	ID               int64    `json:"id"`
	FacultyName      string   `json:"faculty_name"`
	ClassID          FlexInt  `json:"class_id"`
	ClassName        string   `json:"class_name"`
	WeekOfReporting  FlexInt  `json:"week_of_reporting"`
	DateOfLecture    string   `json:"date_of_lecture"`
	CourseName       string   `json:"course_name"`
	CourseCode       string   `json:"course_code"`
	LecturerName     string   `json:"lecturer_name"`
	LecturerID       *FlexInt `json:"lecturer_id"`
	ActualStudents   FlexInt  `json:"actual_number_of_students_present"`
	TotalRegistered  FlexInt  `json:"total_number_of_registered_students"`
	Venue            string   `json:"venue"`
	ScheduledTime    string   `json:"scheduled_lecture_time"`
	TopicTaught      string   `json:"topic_taught"`
	LearningOutcomes string   `json:"learning_outcomes"`
	Recommendations  string   `json:"recommendations"`
	Feedback         *string  `json:"feedback"`
}

// ReportInput is the body of POST /reports and PUT /reports/{id}.
// ClassID must be resolved before it is sent.
type ReportInput struct {
	FacultyName      string `json:"faculty_name"`
	ClassID          int64  `json:"class_id"`
	WeekOfReporting  int    `json:"week_of_reporting"`
	DateOfLecture    string `json:"date_of_lecture"`
	CourseName       string `json:"course_name"`
	CourseCode       string `json:"course_code"`
	LecturerName     string `json:"lecturer_name"`
	ActualStudents   int    `json:"actual_number_of_students_present"`
	TotalRegistered  int    `json:"total_number_of_registered_students"`
	Venue            string `json:"venue"`
	ScheduledTime    string `json:"scheduled_lecture_time"`
	TopicTaught      string `json:"topic_taught"`
	LearningOutcomes string `json:"learning_outcomes"`
	Recommendations  string `json:"recommendations"`
	LecturerID       *int64 `json:"lecturer_id"`
}

type FeedbackInput struct {
	Feedback string `json:"feedback" validate:"notblank"`
}

type MessageResponse struct {
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

func (m MessageResponse) Text() string {
	if m.Message != "" {
		return m.Message
	}
	return m.Msg
}
