package models

// Student is a learner known by the external id printed on the roster.
type Student struct {
	ID        string `db:"id" json:"id"`
	StudentID string `db:"student_id" json:"student_id"`
	Name      string `db:"name" json:"name"`
}
