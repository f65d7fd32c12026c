package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/luct-reporting/luct-bot/internal/models"
)

func TestReportsWorkbook_RoundTrip(t *testing.T) {
	fb := "Well prepared"
	lid := models.FlexInt(9)
	reports := []models.Report{
		{ID: 1, FacultyName: "FICT", ClassID: 3, ClassName: "BSCSM1", WeekOfReporting: 6,
			DateOfLecture: "2025-03-04", CourseName: "Data Structures", CourseCode: "DS101",
			LecturerName: "Mr Mokoena", LecturerID: &lid, ActualStudents: 40, TotalRegistered: 45,
			TopicTaught: "Trees", Feedback: &fb},
		{ID: 2, FacultyName: "FICT", ClassID: 4, ClassName: "BSCSM2", TopicTaught: "Graphs"},
	}

	f, err := ReportsWorkbook(reports)
	if err != nil {
		t.Fatal(err)
	}
	path, err := Save(f, t.TempDir(), ReportsFile)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != ReportsFile {
		t.Fatalf("file name = %s", filepath.Base(path))
	}

	got, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = got.Close() }()

	if name := got.GetSheetName(0); name != ReportsSheet {
		t.Fatalf("sheet = %q", name)
	}
	rows, err := got.GetRows(ReportsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1+len(reports) {
		t.Fatalf("rows = %d, want header + %d", len(rows), len(reports))
	}
	if len(rows[0]) != 17 {
		t.Fatalf("header has %d columns", len(rows[0]))
	}
	for i, h := range ReportColumns {
		if rows[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, rows[0][i], h)
		}
	}

	t.Run("first_row", func(t *testing.T) {
		r := rows[1]
		if r[1] != "3" || r[9] != "45" || r[15] != "9" || r[16] != "Well prepared" {
			t.Fatalf("row = %v", r)
		}
	})
	t.Run("missing_feedback_is_None", func(t *testing.T) {
		r := rows[2]
		if r[len(r)-1] != "None" {
			t.Fatalf("feedback cell = %q", r[len(r)-1])
		}
		if r[15] != "" {
			t.Fatalf("lecturer id cell = %q", r[15])
		}
	})
}

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		"Lecture_Reports.xlsx": "Lecture_Reports.xlsx",
		"  a   b?.xlsx ":       "a b_.xlsx",
		`x/y\z.xlsx`:           "x_y_z.xlsx",
		"":                     "export.xlsx",
	}
	for in, want := range tests {
		if got := sanitizeFileName(in); got != want {
			t.Errorf("sanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	old := filepath.Join(dir, uuid.NewString())
	fresh := filepath.Join(dir, uuid.NewString())
	foreign := filepath.Join(dir, "keep-me")
	for _, d := range []string{old, fresh, foreign} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	past := now.Add(-2 * time.Hour)
	for _, d := range []string{old, foreign} {
		if err := os.Chtimes(d, past, past); err != nil {
			t.Fatal(err)
		}
	}

	n, err := Cleanup(dir, time.Hour, now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("removed %d, want 1", n)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatal("old export survived")
	}
	for _, d := range []string{fresh, foreign} {
		if _, err := os.Stat(d); err != nil {
			t.Fatalf("%s removed: %v", d, err)
		}
	}

	if n, err := Cleanup(filepath.Join(dir, "absent"), time.Hour, now); err != nil || n != 0 {
		t.Fatalf("missing dir: %d %v", n, err)
	}
}
