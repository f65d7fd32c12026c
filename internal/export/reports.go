package export

import (
	"github.com/xuri/excelize/v2"

	"github.com/luct-reporting/luct-bot/internal/models"
)

const (
	ReportsSheet = "Lecture Reports"
	ReportsFile  = "Lecture_Reports.xlsx"
)

// ReportColumns is the fixed column set of the reports export.
var ReportColumns = []string{
	"Faculty Name",
	"Class ID",
	"Class Name",
	"Week of Reporting",
	"Date of Lecture",
	"Course Name",
	"Course Code",
	"Lecturer Name",
	"Actual Students Present",
	"Total Registered Students",
	"Venue",
	"Scheduled Time",
	"Topic Taught",
	"Learning Outcomes",
	"Recommendations",
	"Lecturer ID",
	"Feedback",
}

// ReportRow lays out one report in ReportColumns order.
func ReportRow(r models.Report) []any {
	var lecturerID any = ""
	if r.LecturerID != nil {
		lecturerID = r.LecturerID.Int64()
	}
	feedback := "None"
	if r.Feedback != nil && *r.Feedback != "" {
		feedback = *r.Feedback
	}
	return []any{
		r.FacultyName,
		r.ClassID.Int64(),
		r.ClassName,
		r.WeekOfReporting.Int64(),
		r.DateOfLecture,
		r.CourseName,
		r.CourseCode,
		r.LecturerName,
		r.ActualStudents.Int64(),
		r.TotalRegistered.Int64(),
		r.Venue,
		r.ScheduledTime,
		r.TopicTaught,
		r.LearningOutcomes,
		r.Recommendations,
		lecturerID,
		feedback,
	}
}

// ReportsWorkbook puts every report on the Lecture Reports sheet, one row each.
func ReportsWorkbook(reports []models.Report) (*excelize.File, error) {
	rows := make([][]any, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, ReportRow(r))
	}
	return NewWorkbook([]SheetSpec{{
		Title:  ReportsSheet,
		Header: ReportColumns,
		Rows:   rows,
	}})
}
