package models

import "time"

// Weeks in a term. Session weeks range over 1..Weeks.
const Weeks = 14

// Session is the single attendance window for one lecture week.
type Session struct {
	ID        string     `db:"id" json:"id"`
	LectureID string     `db:"lecture_id" json:"lecture_id"`
	Week      int        `db:"week" json:"week"`
	Code      string     `db:"code" json:"code"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at,omitempty"`
}

// ActiveAt reports whether attendance may be recorded at now.
func (s *Session) ActiveAt(now time.Time) bool {
	return s.ExpiresAt == nil || s.ExpiresAt.After(now)
}

// ValidWeek reports whether week is inside the term.
func ValidWeek(week int) bool {
	return week >= 1 && week <= Weeks
}

// IssuedSession is a created or refreshed session with its student-facing link.
type IssuedSession struct {
	Session
	LectureName string `json:"lecture_name"`
	Link        string `json:"link"`
	QRCode      string `json:"qr_code,omitempty"`
}

// CreateSessionRequest opens or refreshes the session of a lecture week.
// Multipart requests may carry a roster file imported before the session is issued.
type CreateSessionRequest struct {
	Lecture string `json:"lecture" form:"lecture"`
	Week    int    `json:"week" form:"week"`
}
