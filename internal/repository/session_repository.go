package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/qr-attendance-api/internal/models"
)

const sessionCodeConstraint = "sessions_code_key"

// SessionRepository persists one attendance session per lecture week.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Upsert inserts the session or, when the lecture week already has one, replaces its
// code and window in place so the session id and its attendance survive.
// A collision on the code itself yields ErrCodeTaken.
func (r *SessionRepository) Upsert(ctx context.Context, session *models.Session) (*models.Session, error) {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	const query = `INSERT INTO sessions (id, lecture_id, week, code, created_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (lecture_id, week)
        DO UPDATE SET code = EXCLUDED.code, created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at
        RETURNING id, lecture_id, week, code, created_at, expires_at`

	var stored models.Session
	err := r.db.GetContext(ctx, &stored, query,
		session.ID, session.LectureID, session.Week, session.Code, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err, sessionCodeConstraint) {
			return nil, ErrCodeTaken
		}
		return nil, fmt.Errorf("upsert session: %w", err)
	}
	return &stored, nil
}

// FindByCode returns the session holding code. Matching is exact and case-sensitive.
func (r *SessionRepository) FindByCode(ctx context.Context, code string) (*models.Session, error) {
	const query = `SELECT id, lecture_id, week, code, created_at, expires_at FROM sessions WHERE code = $1`
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, code); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListByLecture returns the lecture's sessions ordered by week.
func (r *SessionRepository) ListByLecture(ctx context.Context, lectureID string) ([]models.Session, error) {
	const query = `SELECT id, lecture_id, week, code, created_at, expires_at FROM sessions WHERE lecture_id = $1 ORDER BY week`
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, lectureID); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}
