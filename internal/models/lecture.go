package models

import "time"

// Lecture is a course created lazily by its first roster upload.
type Lecture struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LectureSummary adds roster and session counts for listings.
type LectureSummary struct {
	Lecture
	StudentCount int `db:"student_count" json:"student_count"`
	SessionCount int `db:"session_count" json:"session_count"`
}

// LectureFilter pages lecture listings.
type LectureFilter struct {
	Search   string
	Page     int
	PageSize int
}
