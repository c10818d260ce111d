package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/qr-attendance-api/internal/models"
	"github.com/noah-isme/qr-attendance-api/internal/service"
	appErrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
	"github.com/noah-isme/qr-attendance-api/pkg/response"
)

type lectureManager interface {
	List(ctx context.Context, filter models.LectureFilter) ([]models.LectureSummary, *models.Pagination, error)
	Delete(ctx context.Context, id string) error
}

type matrixReader interface {
	BuildMatrix(ctx context.Context, lectureID string) (*models.AttendanceMatrix, error)
}

type sessionLister interface {
	ListByLecture(ctx context.Context, lectureID string) ([]models.Session, error)
}

type matrixExporter interface {
	Export(ctx context.Context, lectureName, format string) (*service.ExportFile, error)
}

// LectureHandler exposes the instructor lecture endpoints.
type LectureHandler struct {
	lectures  lectureManager
	roster    rosterFileImporter
	matrix    matrixReader
	sessions  sessionLister
	exports   matrixExporter
	maxUpload int64
}

// LectureHandlerDeps groups the services LectureHandler delegates to.
type LectureHandlerDeps struct {
	Lectures  lectureManager
	Roster    rosterFileImporter
	Matrix    matrixReader
	Sessions  sessionLister
	Exports   matrixExporter
	MaxUpload int64
}

// NewLectureHandler constructs LectureHandler.
func NewLectureHandler(deps LectureHandlerDeps) *LectureHandler {
	return &LectureHandler{
		lectures:  deps.Lectures,
		roster:    deps.Roster,
		matrix:    deps.Matrix,
		sessions:  deps.Sessions,
		exports:   deps.Exports,
		maxUpload: deps.MaxUpload,
	}
}

// List godoc
// @Summary List lectures
// @Tags Lectures
// @Produce json
// @Param search query string false "Search by lecture name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /lectures [get]
func (h *LectureHandler) List(c *gin.Context) {
	filter := models.LectureFilter{Search: strings.TrimSpace(c.Query("search"))}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	lectures, pagination, err := h.lectures.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lectures, pagination)
}

// Delete godoc
// @Summary Delete a lecture with its enrollments, sessions and attendance
// @Tags Lectures
// @Param id path string true "Lecture ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /lectures/{id} [delete]
func (h *LectureHandler) Delete(c *gin.Context) {
	if err := h.lectures.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Matrix godoc
// @Summary Weekly attendance matrix of a lecture
// @Tags Lectures
// @Produce json
// @Param id path string true "Lecture ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lectures/{id}/matrix [get]
func (h *LectureHandler) Matrix(c *gin.Context) {
	matrix, err := h.matrix.BuildMatrix(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matrix, nil)
}

// Sessions godoc
// @Summary List the week sessions of a lecture
// @Tags Lectures
// @Produce json
// @Param id path string true "Lecture ID"
// @Success 200 {object} response.Envelope
// @Router /lectures/{id}/sessions [get]
func (h *LectureHandler) Sessions(c *gin.Context) {
	sessions, err := h.sessions.ListByLecture(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// ImportRoster godoc
// @Summary Upload a roster for a lecture
// @Description Creates the lecture when needed. Existing students are renamed to the uploaded name.
// @Tags Lectures
// @Accept multipart/form-data
// @Produce json
// @Param lecture formData string true "Lecture name"
// @Param roster formData file true "Roster (.xlsx or .csv)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /lectures/roster [post]
func (h *LectureHandler) ImportRoster(c *gin.Context) {
	limitBody(c, h.maxUpload)

	lecture := strings.TrimSpace(c.PostForm("lecture"))
	file, header, err := optionalRoster(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if file == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "roster file is required"))
		return
	}
	defer file.Close()
	if lecture == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "lecture is required"))
		return
	}

	result, err := h.roster.ImportFile(c.Request.Context(), lecture, header.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Export godoc
// @Summary Download the attendance matrix of a lecture
// @Tags Lectures
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Produce application/pdf
// @Param lecture query string true "Lecture name"
// @Param format query string false "xlsx (default), csv or pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lectures/export [get]
func (h *LectureHandler) Export(c *gin.Context) {
	lecture := strings.TrimSpace(c.Query("lecture"))
	if lecture == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "lecture is required"))
		return
	}

	file, err := h.exports.Export(c.Request.Context(), lecture, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
