package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/internal/models"
	"github.com/noah-isme/qr-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
)

type sessionRepository interface {
	Upsert(ctx context.Context, session *models.Session) (*models.Session, error)
	FindByCode(ctx context.Context, code string) (*models.Session, error)
	ListByLecture(ctx context.Context, lectureID string) ([]models.Session, error)
}

type sessionLectureReader interface {
	FindByID(ctx context.Context, id string) (*models.Lecture, error)
	FindByName(ctx context.Context, name string) (*models.Lecture, error)
}

// CodeGenerator produces fresh session codes.
type CodeGenerator interface {
	Generate() (string, error)
}

// SessionConfig controls the attendance window and code issuance.
type SessionConfig struct {
	Validity     time.Duration
	CodeAttempts int
}

// SessionService issues, refreshes and resolves attendance sessions.
type SessionService struct {
	sessions sessionRepository
	lectures sessionLectureReader
	codes    CodeGenerator
	metrics  *MetricsService
	logger   *zap.Logger
	config   SessionConfig
	now      func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(sessions sessionRepository, lectures sessionLectureReader, codes CodeGenerator, metrics *MetricsService, logger *zap.Logger, config SessionConfig) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Validity <= 0 {
		config.Validity = 2 * time.Hour
	}
	if config.CodeAttempts <= 0 {
		config.CodeAttempts = 5
	}
	return &SessionService{
		sessions: sessions,
		lectures: lectures,
		codes:    codes,
		metrics:  metrics,
		logger:   logger,
		config:   config,
		now:      time.Now,
	}
}

// CreateOrRefresh gives the lecture week a fresh code and window. An existing session for
// the week keeps its id and attendance but its previous code stops resolving.
func (s *SessionService) CreateOrRefresh(ctx context.Context, lectureID string, week int) (*models.Session, error) {
	if !models.ValidWeek(week) {
		return nil, appErrors.ErrInvalidWeek
	}
	if err := checkLectureID(lectureID); err != nil {
		return nil, err
	}
	lecture, err := s.lectures.FindByID(ctx, lectureID)
	if err != nil {
		return nil, lectureLookupError(err)
	}
	return s.issue(ctx, lecture, week)
}

// CreateOrRefreshByName is CreateOrRefresh addressed by lecture name.
func (s *SessionService) CreateOrRefreshByName(ctx context.Context, lectureName string, week int) (*models.Session, *models.Lecture, error) {
	if !models.ValidWeek(week) {
		return nil, nil, appErrors.ErrInvalidWeek
	}
	lecture, err := s.lectures.FindByName(ctx, strings.TrimSpace(lectureName))
	if err != nil {
		return nil, nil, lectureLookupError(err)
	}
	session, err := s.issue(ctx, lecture, week)
	if err != nil {
		return nil, nil, err
	}
	return session, lecture, nil
}

func (s *SessionService) issue(ctx context.Context, lecture *models.Lecture, week int) (*models.Session, error) {
	for attempt := 1; attempt <= s.config.CodeAttempts; attempt++ {
		code, err := s.codes.Generate()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "generate session code")
		}

		now := s.now().UTC()
		expiresAt := now.Add(s.config.Validity)
		stored, err := s.sessions.Upsert(ctx, &models.Session{
			LectureID: lecture.ID,
			Week:      week,
			Code:      code,
			CreatedAt: now,
			ExpiresAt: &expiresAt,
		})
		if errors.Is(err, repository.ErrCodeTaken) {
			s.logger.Warn("session code collision, retrying", zap.String("lecture", lecture.Name), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, appErrors.Unavailable(err, "failed to store session")
		}

		s.metrics.SessionIssued()
		s.logger.Info("session issued",
			zap.String("lecture", lecture.Name),
			zap.Int("week", week),
			zap.String("session_id", stored.ID),
			zap.Time("expires_at", expiresAt),
		)
		return stored, nil
	}
	return nil, appErrors.Clone(appErrors.ErrInternal, "could not allocate a unique session code")
}

// ResolveByCode returns the session holding code. Matching is exact.
func (s *SessionService) ResolveByCode(ctx context.Context, code string) (*models.Session, error) {
	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrSessionNotFound
		}
		return nil, appErrors.Unavailable(err, "failed to load session")
	}
	return session, nil
}

// ListByLecture returns the sessions held for a lecture ordered by week.
func (s *SessionService) ListByLecture(ctx context.Context, lectureID string) ([]models.Session, error) {
	if err := checkLectureID(lectureID); err != nil {
		return nil, err
	}
	if _, err := s.lectures.FindByID(ctx, lectureID); err != nil {
		return nil, lectureLookupError(err)
	}
	sessions, err := s.sessions.ListByLecture(ctx, lectureID)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to list sessions")
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	return sessions, nil
}

// IsActive reports whether the session accepts attendance at now.
func (s *SessionService) IsActive(session *models.Session, now time.Time) bool {
	return session != nil && session.ActiveAt(now)
}

// checkLectureID rejects ids that cannot name any lecture before they reach the store,
// where Postgres would fail the uuid cast.
func checkLectureID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "lecture not found")
	}
	return nil
}

func lectureLookupError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "lecture not found, upload a roster first")
	}
	return appErrors.Unavailable(err, "failed to load lecture")
}
