package models

import "time"

// Attendance is a student's presence in one session. One row per (session, student).
type Attendance struct {
	ID         string    `db:"id" json:"id"`
	SessionID  string    `db:"session_id" json:"session_id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	Present    bool      `db:"present" json:"present"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}

// RecordAttendanceRequest is a student's submission from the scanned link.
type RecordAttendanceRequest struct {
	Code      string `json:"code" form:"code" validate:"required"`
	StudentID string `json:"student_id" form:"student_id" validate:"required"`
}

// AttendanceReceipt confirms a recorded submission. First submissions and retries look the same.
type AttendanceReceipt struct {
	Week        int       `json:"week"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// AttendanceMark is one present flag joined through its session week.
type AttendanceMark struct {
	StudentID string `db:"student_id"`
	Week      int    `db:"week"`
}

// MatrixRow is one student line of the attendance matrix. Weeks[i] holds week i+1.
type MatrixRow struct {
	StudentID string       `json:"student_id"`
	Name      string       `json:"name"`
	Weeks     [Weeks]uint8 `json:"weeks"`
}

// AttendanceMatrix is the reconstructed student by week table of a lecture.
type AttendanceMatrix struct {
	LectureID   string      `json:"lecture_id"`
	LectureName string      `json:"lecture_name"`
	Rows        []MatrixRow `json:"rows"`
}
