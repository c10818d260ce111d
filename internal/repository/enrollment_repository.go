package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/qr-attendance-api/internal/models"
)

// EnrollmentRepository owns rosters: lectures, students and the enrollments joining them.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ImportRoster creates the lecture if needed, upserts every student and enrolls them,
// all in one transaction. A failure on any row leaves the store untouched.
func (r *EnrollmentRepository) ImportRoster(ctx context.Context, lectureName string, entries []models.RosterEntry, now time.Time) (lecture *models.Lecture, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin roster import: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO lectures (id, name, created_at) VALUES ($1, $2, $3) ON CONFLICT (name) DO NOTHING`,
		uuid.NewString(), lectureName, now); err != nil {
		return nil, fmt.Errorf("ensure lecture: %w", err)
	}

	lecture = &models.Lecture{}
	if err = tx.GetContext(ctx, lecture, `SELECT id, name, created_at FROM lectures WHERE name = $1`, lectureName); err != nil {
		return nil, fmt.Errorf("load lecture: %w", err)
	}

	const upsertStudent = `INSERT INTO students (id, student_id, name) VALUES ($1, $2, $3)
        ON CONFLICT (student_id) DO UPDATE SET name = EXCLUDED.name
        RETURNING id`
	const enroll = `INSERT INTO enrollments (id, lecture_id, student_id) VALUES ($1, $2, $3)
        ON CONFLICT (lecture_id, student_id) DO NOTHING`

	for _, entry := range entries {
		var studentPK string
		if err = tx.GetContext(ctx, &studentPK, upsertStudent, uuid.NewString(), entry.StudentID, entry.Name); err != nil {
			return nil, fmt.Errorf("upsert student %s: %w", entry.StudentID, err)
		}
		if _, err = tx.ExecContext(ctx, enroll, uuid.NewString(), lecture.ID, studentPK); err != nil {
			return nil, fmt.Errorf("enroll student %s: %w", entry.StudentID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit roster import: %w", err)
	}
	return lecture, nil
}

// IsEnrolled reports whether the student (internal id) belongs to the lecture.
func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, lectureID, studentPK string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE lecture_id = $1 AND student_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, lectureID, studentPK); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// ListEnrolled returns the lecture's students ordered by roster id.
func (r *EnrollmentRepository) ListEnrolled(ctx context.Context, lectureID string) ([]models.Student, error) {
	const query = `SELECT s.id, s.student_id, s.name
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        WHERE e.lecture_id = $1
        ORDER BY s.student_id ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, lectureID); err != nil {
		return nil, fmt.Errorf("list enrolled students: %w", err)
	}
	return students, nil
}
