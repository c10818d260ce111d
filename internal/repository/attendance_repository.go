package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/qr-attendance-api/internal/models"
)

// AttendanceRepository records presence and reads it back per lecture.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// MarkPresent records the student as present in the session. Repeat calls converge on
// the same row and keep the first recorded_at.
func (r *AttendanceRepository) MarkPresent(ctx context.Context, sessionID, studentPK string, now time.Time) (*models.Attendance, error) {
	const query = `INSERT INTO attendance (id, session_id, student_id, present, recorded_at)
        VALUES ($1, $2, $3, TRUE, $4)
        ON CONFLICT (session_id, student_id) DO UPDATE SET present = TRUE
        RETURNING id, session_id, student_id, present, recorded_at`
	var record models.Attendance
	if err := r.db.GetContext(ctx, &record, query, uuid.NewString(), sessionID, studentPK, now); err != nil {
		return nil, fmt.Errorf("mark attendance: %w", err)
	}
	return &record, nil
}

// ListMarks returns every present flag of the lecture keyed by roster id and week.
func (r *AttendanceRepository) ListMarks(ctx context.Context, lectureID string) ([]models.AttendanceMark, error) {
	const query = `SELECT st.student_id, s.week
        FROM attendance a
        JOIN sessions s ON s.id = a.session_id
        JOIN students st ON st.id = a.student_id
        WHERE s.lecture_id = $1 AND a.present = TRUE`
	var marks []models.AttendanceMark
	if err := r.db.SelectContext(ctx, &marks, query, lectureID); err != nil {
		return nil, fmt.Errorf("list attendance marks: %w", err)
	}
	return marks, nil
}
