package reports

import (
	"strconv"
	"strings"
	"time"

	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/screen"
)

// dateLayouts are tried in order; day-first for slashed and dotted dates.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02.01.2006",
	"2 January 2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// NormalizeDate returns s as YYYY-MM-DD. Slashed and dotted dates are day-first.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format("2006-01-02"), nil
		}
	}
	return "", screen.Validation("Invalid date of lecture. Use YYYY-MM-DD.")
}

// coerceInt reads the leading integer of s; anything unparsable is 0.
func coerceInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// buildInput converts a draft whose class is already resolved.
func buildInput(d Draft, classID int64, defaultTotal string) (models.ReportInput, error) {
	date, err := NormalizeDate(d[FieldDate])
	if err != nil {
		return models.ReportInput{}, err
	}
	total := strings.TrimSpace(d[FieldTotalRegistered])
	if total == "" {
		total = defaultTotal
	}
	in := models.ReportInput{
		FacultyName:      strings.TrimSpace(d[FieldFaculty]),
		ClassID:          classID,
		WeekOfReporting:  coerceInt(d[FieldWeek]),
		DateOfLecture:    date,
		CourseName:       strings.TrimSpace(d[FieldCourseName]),
		CourseCode:       strings.TrimSpace(d[FieldCourseCode]),
		LecturerName:     strings.TrimSpace(d[FieldLecturerName]),
		ActualStudents:   coerceInt(d[FieldActualStudents]),
		TotalRegistered:  coerceInt(total),
		Venue:            strings.TrimSpace(d[FieldVenue]),
		ScheduledTime:    strings.TrimSpace(d[FieldScheduledTime]),
		TopicTaught:      strings.TrimSpace(d[FieldTopicTaught]),
		LearningOutcomes: strings.TrimSpace(d[FieldLearningOutcomes]),
		Recommendations:  strings.TrimSpace(d[FieldRecommendations]),
	}
	if id := coerceInt(d[FieldLecturerID]); id > 0 {
		v := int64(id)
		in.LecturerID = &v
	}
	return in, nil
}

// draftFromReport seeds an edit draft.
func draftFromReport(r models.Report) Draft {
	d := NewDraft()
	d[FieldFaculty] = r.FacultyName
	d[FieldClassName] = r.ClassName
	d[FieldWeek] = formatInt(r.WeekOfReporting.Int64())
	d[FieldDate] = r.DateOfLecture
	d[FieldCourseName] = r.CourseName
	d[FieldCourseCode] = r.CourseCode
	d[FieldLecturerName] = r.LecturerName
	d[FieldActualStudents] = formatInt(r.ActualStudents.Int64())
	d[FieldTotalRegistered] = formatInt(r.TotalRegistered.Int64())
	d[FieldVenue] = r.Venue
	d[FieldScheduledTime] = r.ScheduledTime
	d[FieldTopicTaught] = r.TopicTaught
	d[FieldLearningOutcomes] = r.LearningOutcomes
	d[FieldRecommendations] = r.Recommendations
	if r.LecturerID != nil {
		d[FieldLecturerID] = formatInt(r.LecturerID.Int64())
	}
	return d
}

func formatInt(n int64) string { return strconv.FormatInt(n, 10) }

// CheckField validates one answer before it is stored. Only dates are
// checked here; counts are coerced when the report is built.
func CheckField(key, value string) error {
	f, ok := FieldByKey(key)
	if !ok {
		return screen.Validation("Unknown field " + key)
	}
	if f.Kind == KindDate && strings.TrimSpace(value) != "" {
		_, err := NormalizeDate(value)
		return err
	}
	return nil
}
