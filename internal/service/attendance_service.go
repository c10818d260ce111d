package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/internal/models"
	appErrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
)

type sessionResolver interface {
	ResolveByCode(ctx context.Context, code string) (*models.Session, error)
	IsActive(session *models.Session, now time.Time) bool
}

type attendanceStudentReader interface {
	FindByStudentID(ctx context.Context, studentID string) (*models.Student, error)
}

type enrollmentChecker interface {
	IsEnrolled(ctx context.Context, lectureID, studentPK string) (bool, error)
}

type attendanceWriter interface {
	MarkPresent(ctx context.Context, sessionID, studentPK string, now time.Time) (*models.Attendance, error)
}

// matrixInvalidator drops a lecture's cached matrix after its attendance changes.
type matrixInvalidator interface {
	Invalidate(ctx context.Context, lectureID string)
}

// AttendanceService validates and records student submissions.
type AttendanceService struct {
	sessions    sessionResolver
	students    attendanceStudentReader
	enrollments enrollmentChecker
	attendance  attendanceWriter
	matrix      matrixInvalidator
	validator   *validator.Validate
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(
	sessions sessionResolver,
	students attendanceStudentReader,
	enrollments enrollmentChecker,
	attendance attendanceWriter,
	matrix matrixInvalidator,
	validate *validator.Validate,
	metrics *MetricsService,
	logger *zap.Logger,
) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		sessions:    sessions,
		students:    students,
		enrollments: enrollments,
		attendance:  attendance,
		matrix:      matrix,
		validator:   validate,
		metrics:     metrics,
		logger:      logger,
	}
}

// Record marks the student present for the session behind code. Checks run in order and
// the first failure is returned: missing input, unknown code, expired window, unknown
// student, not enrolled. A repeated submission succeeds exactly like the first one.
func (s *AttendanceService) Record(ctx context.Context, req models.RecordAttendanceRequest, now time.Time) (*models.AttendanceReceipt, error) {
	receipt, err := s.record(ctx, req, now)
	outcome := outcomeRecorded
	if err != nil {
		outcome = appErrors.FromError(err).Code
	}
	s.metrics.AttendanceOutcome(outcome)
	return receipt, err
}

func (s *AttendanceService) record(ctx context.Context, req models.RecordAttendanceRequest, now time.Time) (*models.AttendanceReceipt, error) {
	req.Code = strings.TrimSpace(req.Code)
	req.StudentID = strings.TrimSpace(req.StudentID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.ErrMissingInput
	}

	session, err := s.sessions.ResolveByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if !s.sessions.IsActive(session, now) {
		return nil, appErrors.ErrSessionExpired
	}

	student, err := s.students.FindByStudentID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrStudentNotFound
		}
		return nil, appErrors.Unavailable(err, "failed to load student")
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, session.LectureID, student.ID)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to check enrollment")
	}
	if !enrolled {
		return nil, appErrors.ErrNotEnrolled
	}

	record, err := s.attendance.MarkPresent(ctx, session.ID, student.ID, now.UTC())
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to record attendance")
	}
	if s.matrix != nil {
		s.matrix.Invalidate(ctx, session.LectureID)
	}

	s.logger.Debug("attendance recorded",
		zap.String("session_id", session.ID),
		zap.Int("week", session.Week),
		zap.String("student_id", student.StudentID),
	)

	return &models.AttendanceReceipt{
		Week:        session.Week,
		StudentID:   student.StudentID,
		StudentName: student.Name,
		RecordedAt:  record.RecordedAt,
	}, nil
}
