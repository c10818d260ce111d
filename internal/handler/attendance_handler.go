package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/qr-attendance-api/internal/models"
	"github.com/noah-isme/qr-attendance-api/pkg/response"
)

type attendanceRecorder interface {
	Record(ctx context.Context, req models.RecordAttendanceRequest, now time.Time) (*models.AttendanceReceipt, error)
}

// AttendanceHandler serves the student endpoints reached from a scanned code.
type AttendanceHandler struct {
	attendance attendanceRecorder
	now        func() time.Time
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance attendanceRecorder) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, now: time.Now}
}

// Form godoc
// @Summary Prefill data for the student attendance form
// @Tags Attendance
// @Produce json
// @Param c query string false "Session code from the QR link"
// @Success 200 {object} response.Envelope
// @Router /attend [get]
func (h *AttendanceHandler) Form(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{"code": c.Query("c")}, nil)
}

// Submit godoc
// @Summary Record attendance for a session code
// @Description Resubmitting the same code and student id succeeds again without creating a second record.
// @Tags Attendance
// @Accept x-www-form-urlencoded
// @Accept json
// @Produce json
// @Param payload body models.RecordAttendanceRequest true "Code and student id"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /attend [post]
func (h *AttendanceHandler) Submit(c *gin.Context) {
	var req models.RecordAttendanceRequest
	// Malformed bodies fall through as empty input and are rejected as missing.
	_ = c.ShouldBind(&req)
	if req.Code == "" {
		req.Code = c.Query("c")
	}

	receipt, err := h.attendance.Record(c.Request.Context(), req, h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, receipt, nil)
}
