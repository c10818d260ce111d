package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/internal/models"
	appErrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
	"github.com/noah-isme/qr-attendance-api/pkg/roster"
)

type rosterImporter interface {
	ImportRoster(ctx context.Context, lectureName string, entries []models.RosterEntry, now time.Time) (*models.Lecture, error)
}

// RosterService turns uploaded class lists into lectures, students and enrollments.
type RosterService struct {
	repo      rosterImporter
	matrix    matrixInvalidator
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewRosterService constructs a RosterService.
func NewRosterService(repo rosterImporter, matrix matrixInvalidator, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{repo: repo, matrix: matrix, validator: validate, metrics: metrics, logger: logger, now: time.Now}
}

// ImportFile parses an xlsx or csv roster and imports it for lectureName.
// Rows with a blank id or name are skipped; a sheet with no data rows is rejected.
func (s *RosterService) ImportFile(ctx context.Context, lectureName, filename string, r io.Reader) (*models.RosterImportResult, error) {
	lectureName = strings.TrimSpace(lectureName)
	if lectureName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lecture name is required")
	}

	parsed, err := roster.Parse(filename, r)
	switch {
	case errors.Is(err, roster.ErrNoRows):
		return nil, appErrors.ErrUploadEmpty
	case errors.Is(err, roster.ErrMissingColumns), errors.Is(err, roster.ErrUnsupportedType):
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "roster file could not be read")
	}

	entries := make([]models.RosterEntry, 0, len(parsed.Entries))
	for _, e := range parsed.Entries {
		entries = append(entries, models.RosterEntry{StudentID: e.StudentID, Name: e.Name})
	}

	result, err := s.Import(ctx, lectureName, entries)
	if err != nil {
		return nil, err
	}
	result.Skipped += parsed.Skipped
	s.metrics.RosterRows(0, parsed.Skipped)
	return result, nil
}

// Import stores entries for lectureName in one transaction. Invalid entries are skipped.
func (s *RosterService) Import(ctx context.Context, lectureName string, entries []models.RosterEntry) (*models.RosterImportResult, error) {
	lectureName = strings.TrimSpace(lectureName)
	if lectureName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lecture name is required")
	}

	valid := make([]models.RosterEntry, 0, len(entries))
	skipped := 0
	for _, e := range entries {
		e.StudentID = strings.TrimSpace(e.StudentID)
		e.Name = strings.TrimSpace(e.Name)
		if err := s.validator.Struct(e); err != nil {
			skipped++
			continue
		}
		valid = append(valid, e)
	}

	lecture, err := s.repo.ImportRoster(ctx, lectureName, valid, s.now().UTC())
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to import roster")
	}
	if s.matrix != nil {
		s.matrix.Invalidate(ctx, lecture.ID)
	}
	s.metrics.RosterRows(len(valid), skipped)
	s.logger.Info("roster imported",
		zap.String("lecture", lecture.Name),
		zap.Int("imported", len(valid)),
		zap.Int("skipped", skipped),
	)

	return &models.RosterImportResult{
		LectureID:   lecture.ID,
		LectureName: lecture.Name,
		Imported:    len(valid),
		Skipped:     skipped,
	}, nil
}
