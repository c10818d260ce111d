package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/internal/models"
	appErrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
	"github.com/noah-isme/qr-attendance-api/pkg/export"
)

type matrixBuilder interface {
	BuildMatrixByName(ctx context.Context, lectureName string) (*models.AttendanceMatrix, error)
}

// ExportFile is a rendered attendance sheet ready to download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders attendance matrices as xlsx, csv or pdf.
type ExportService struct {
	matrix matrixBuilder
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(matrix matrixBuilder, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{matrix: matrix, logger: logger}
}

// Export renders the lecture's matrix in the requested format. An empty format means xlsx.
func (s *ExportService) Export(ctx context.Context, lectureName, format string) (*ExportFile, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be xlsx, csv or pdf")
	}
	exporter, err := export.For(f)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported format")
	}

	matrix, err := s.matrix.BuildMatrixByName(ctx, lectureName)
	if err != nil {
		return nil, err
	}

	body, err := exporter.Render(MatrixTable(matrix))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("attendance exported",
		zap.String("lecture", matrix.LectureName),
		zap.String("format", string(f)),
		zap.Int("rows", len(matrix.Rows)),
	)
	return &ExportFile{
		Filename:    fmt.Sprintf("%s-attendance.%s", safeFilename(matrix.LectureName), exporter.Extension()),
		ContentType: exporter.ContentType(),
		Body:        body,
	}, nil
}

// MatrixTable lays a matrix out as student_id, name, W1..W14.
func MatrixTable(matrix *models.AttendanceMatrix) export.Table {
	headers := make([]string, 0, models.Weeks+2)
	headers = append(headers, "student_id", "name")
	for w := 1; w <= models.Weeks; w++ {
		headers = append(headers, "W"+strconv.Itoa(w))
	}

	rows := make([][]string, len(matrix.Rows))
	for i, r := range matrix.Rows {
		row := make([]string, 0, len(headers))
		row = append(row, r.StudentID, r.Name)
		for _, flag := range r.Weeks {
			row = append(row, strconv.Itoa(int(flag)))
		}
		rows[i] = row
	}

	return export.Table{
		Title:   matrix.LectureName + " attendance",
		Sheet:   "Attendance",
		Headers: headers,
		Rows:    rows,
	}
}

func safeFilename(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if cleaned == "" {
		return "lecture"
	}
	return cleaned
}
