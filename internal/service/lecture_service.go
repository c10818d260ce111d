package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/internal/models"
	appErrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
)

type lectureRepository interface {
	List(ctx context.Context, filter models.LectureFilter) ([]models.LectureSummary, int, error)
	Delete(ctx context.Context, id string) error
}

// LectureService lists and removes lectures.
type LectureService struct {
	repo   lectureRepository
	matrix matrixInvalidator
	logger *zap.Logger
}

// NewLectureService constructs a LectureService.
func NewLectureService(repo lectureRepository, matrix matrixInvalidator, logger *zap.Logger) *LectureService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LectureService{repo: repo, matrix: matrix, logger: logger}
}

// List returns a page of lectures with their counts.
func (s *LectureService) List(ctx context.Context, filter models.LectureFilter) ([]models.LectureSummary, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	lectures, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Unavailable(err, "failed to list lectures")
	}
	if lectures == nil {
		lectures = []models.LectureSummary{}
	}
	return lectures, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Delete removes a lecture along with its enrollments, sessions and attendance.
func (s *LectureService) Delete(ctx context.Context, id string) error {
	if err := checkLectureID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lecture not found")
		}
		return appErrors.Unavailable(err, "failed to delete lecture")
	}
	if s.matrix != nil {
		s.matrix.Invalidate(ctx, id)
	}
	s.logger.Info("lecture deleted", zap.String("lecture_id", id))
	return nil
}
