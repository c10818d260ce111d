package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/qr-attendance-api/internal/models"
)

// LectureRepository reads and removes lectures. Lectures are created by roster imports.
type LectureRepository struct {
	db *sqlx.DB
}

// NewLectureRepository constructs a LectureRepository.
func NewLectureRepository(db *sqlx.DB) *LectureRepository {
	return &LectureRepository{db: db}
}

// FindByID returns a lecture by its internal id.
func (r *LectureRepository) FindByID(ctx context.Context, id string) (*models.Lecture, error) {
	const query = `SELECT id, name, created_at FROM lectures WHERE id = $1`
	var lecture models.Lecture
	if err := r.db.GetContext(ctx, &lecture, query, id); err != nil {
		return nil, err
	}
	return &lecture, nil
}

// FindByName returns a lecture by its unique name.
func (r *LectureRepository) FindByName(ctx context.Context, name string) (*models.Lecture, error) {
	const query = `SELECT id, name, created_at FROM lectures WHERE name = $1`
	var lecture models.Lecture
	if err := r.db.GetContext(ctx, &lecture, query, name); err != nil {
		return nil, err
	}
	return &lecture, nil
}

// List returns lectures with roster and session counts, newest first.
func (r *LectureRepository) List(ctx context.Context, filter models.LectureFilter) ([]models.LectureSummary, int, error) {
	where := ""
	args := []interface{}{}
	if filter.Search != "" {
		where = " WHERE LOWER(l.name) LIKE $1"
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM lectures l"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count lectures: %w", err)
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	query := fmt.Sprintf(`SELECT l.id, l.name, l.created_at,
        (SELECT COUNT(*) FROM enrollments e WHERE e.lecture_id = l.id) AS student_count,
        (SELECT COUNT(*) FROM sessions s WHERE s.lecture_id = l.id) AS session_count
        FROM lectures l%s ORDER BY l.created_at DESC, l.name LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, size, (page-1)*size)

	var lectures []models.LectureSummary
	if err := r.db.SelectContext(ctx, &lectures, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list lectures: %w", err)
	}
	return lectures, total, nil
}

// Delete removes a lecture. Enrollments, sessions and their attendance go with it.
func (r *LectureRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lectures WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lecture: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete lecture rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
