package models

// Enrollment grants a student the right to record attendance for a lecture.
// StudentID references students.id, not the external roster id.
type Enrollment struct {
	ID        string `db:"id" json:"id"`
	LectureID string `db:"lecture_id" json:"lecture_id"`
	StudentID string `db:"student_id" json:"student_id"`
}

// RosterEntry is a parsed roster line ready to import.
type RosterEntry struct {
	StudentID string `json:"student_id" validate:"required,max=64"`
	Name      string `json:"name" validate:"required,max=255"`
}

// RosterImportResult summarises one roster upload.
type RosterImportResult struct {
	LectureID   string `json:"lecture_id"`
	LectureName string `json:"lecture_name"`
	Imported    int    `json:"imported"`
	Skipped     int    `json:"skipped"`
}
