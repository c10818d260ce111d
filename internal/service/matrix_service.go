package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/internal/models"
	appErrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
)

const (
	matrixCachePrefix      = "matrix:"
	matrixGenerationPrefix = "matrix:gen:"
)

func matrixCacheKey(lectureID string, gen int64) string {
	return matrixCachePrefix + lectureID + ":" + strconv.FormatInt(gen, 10)
}

type matrixLectureReader interface {
	FindByID(ctx context.Context, id string) (*models.Lecture, error)
	FindByName(ctx context.Context, name string) (*models.Lecture, error)
}

type rosterReader interface {
	ListEnrolled(ctx context.Context, lectureID string) ([]models.Student, error)
}

type markReader interface {
	ListMarks(ctx context.Context, lectureID string) ([]models.AttendanceMark, error)
}

// MatrixService rebuilds the student by week presence table of a lecture.
type MatrixService struct {
	lectures matrixLectureReader
	roster   rosterReader
	marks    markReader
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewMatrixService constructs a MatrixService. cache may be nil.
func NewMatrixService(lectures matrixLectureReader, roster rosterReader, marks markReader, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *MatrixService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatrixService{lectures: lectures, roster: roster, marks: marks, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// BuildMatrix returns one row per enrolled student ordered by roster id. A week shows 0
// both when no session was held and when the student did not attend it.
func (s *MatrixService) BuildMatrix(ctx context.Context, lectureID string) (*models.AttendanceMatrix, error) {
	if err := checkLectureID(lectureID); err != nil {
		return nil, err
	}
	lecture, err := s.lectures.FindByID(ctx, lectureID)
	if err != nil {
		return nil, lectureLookupError(err)
	}
	return s.build(ctx, lecture)
}

// BuildMatrixByName is BuildMatrix addressed by lecture name.
func (s *MatrixService) BuildMatrixByName(ctx context.Context, lectureName string) (*models.AttendanceMatrix, error) {
	name := strings.TrimSpace(lectureName)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lecture name is required")
	}
	lecture, err := s.lectures.FindByName(ctx, name)
	if err != nil {
		return nil, lectureLookupError(err)
	}
	return s.build(ctx, lecture)
}

// Invalidate retires the cached matrix of a lecture by advancing its generation. A build
// that read the store before the bump writes under the old generation, which is never read.
func (s *MatrixService) Invalidate(ctx context.Context, lectureID string) {
	s.cache.Bump(ctx, matrixGenerationPrefix+lectureID)
}

func (s *MatrixService) build(ctx context.Context, lecture *models.Lecture) (*models.AttendanceMatrix, error) {
	// The generation is read before the store so a concurrent write always outdates this build.
	gen, cacheable := s.cache.Generation(ctx, matrixGenerationPrefix+lecture.ID)
	key := matrixCacheKey(lecture.ID, gen)
	var cached models.AttendanceMatrix
	if cacheable && s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	students, err := s.roster.ListEnrolled(ctx, lecture.ID)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to load roster")
	}
	marks, err := s.marks.ListMarks(ctx, lecture.ID)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to load attendance")
	}

	matrix := &models.AttendanceMatrix{
		LectureID:   lecture.ID,
		LectureName: lecture.Name,
		Rows:        composeRows(students, marks),
	}
	if cacheable {
		s.cache.Set(ctx, key, matrix, s.cacheTTL)
	}
	return matrix, nil
}

// composeRows keeps the roster order and drops marks of students no longer enrolled.
func composeRows(students []models.Student, marks []models.AttendanceMark) []models.MatrixRow {
	rows := make([]models.MatrixRow, len(students))
	index := make(map[string]int, len(students))
	for i, st := range students {
		rows[i] = models.MatrixRow{StudentID: st.StudentID, Name: st.Name}
		index[st.StudentID] = i
	}
	for _, m := range marks {
		i, ok := index[m.StudentID]
		if !ok || !models.ValidWeek(m.Week) {
			continue
		}
		rows[i].Weeks[m.Week-1] = 1
	}
	return rows
}
