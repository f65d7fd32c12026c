package reports

import "strings"

type FieldKind string

const (
	KindText FieldKind = "text"
	KindDate FieldKind = "date"
)

type Field struct {
	Key      string
	Label    string
	Kind     FieldKind
	Required bool
}

// Form keys. The same schema drives submission and editing.
const (
	FieldFaculty          = "faculty_name"
	FieldClassName        = "class_name"
	FieldWeek             = "week_of_reporting"
	FieldDate             = "date_of_lecture"
	FieldCourseName       = "course_name"
	FieldCourseCode       = "course_code"
	FieldLecturerName     = "lecturer_name"
	FieldActualStudents   = "actual_students"
	FieldTotalRegistered  = "total_registered"
	FieldVenue            = "venue"
	FieldScheduledTime    = "scheduled_time"
	FieldTopicTaught      = "topic_taught"
	FieldLearningOutcomes = "learning_outcomes"
	FieldRecommendations  = "recommendations"
	FieldLecturerID       = "lecturer_id"
)

var optional = map[string]bool{
	FieldVenue:           true,
	FieldRecommendations: true,
	FieldTotalRegistered: true,
	FieldLecturerID:      true,
}

// Schema is the ordered report form.
var Schema = buildSchema(
	FieldFaculty,
	FieldClassName,
	FieldWeek,
	FieldDate,
	FieldCourseName,
	FieldCourseCode,
	FieldLecturerName,
	FieldActualStudents,
	FieldTotalRegistered,
	FieldVenue,
	FieldScheduledTime,
	FieldTopicTaught,
	FieldLearningOutcomes,
	FieldRecommendations,
	FieldLecturerID,
)

func buildSchema(keys ...string) []Field {
	out := make([]Field, 0, len(keys))
	for _, k := range keys {
		kind := KindText
		if strings.Contains(k, "date") {
			kind = KindDate
		}
		out = append(out, Field{Key: k, Label: Label(k), Kind: kind, Required: !optional[k]})
	}
	return out
}

// Label turns "week_of_reporting" into "Week Of Reporting".
func Label(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func FieldByKey(key string) (Field, bool) {
	for _, f := range Schema {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Draft holds raw form input by schema key.
type Draft map[string]string

func NewDraft() Draft {
	d := make(Draft, len(Schema))
	for _, f := range Schema {
		d[f.Key] = ""
	}
	return d
}

func (d Draft) Clone() Draft {
	out := make(Draft, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Missing returns the labels of required fields left blank, in schema order.
func (d Draft) Missing() []string {
	var out []string
	for _, f := range Schema {
		if f.Required && strings.TrimSpace(d[f.Key]) == "" {
			out = append(out, f.Label)
		}
	}
	return out
}
