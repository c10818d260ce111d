package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/qr-attendance-api/internal/models"
	appErrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
	"github.com/noah-isme/qr-attendance-api/pkg/qr"
	"github.com/noah-isme/qr-attendance-api/pkg/response"
)

type rosterFileImporter interface {
	ImportFile(ctx context.Context, lectureName, filename string, r io.Reader) (*models.RosterImportResult, error)
}

type sessionIssuer interface {
	CreateOrRefreshByName(ctx context.Context, lectureName string, week int) (*models.Session, *models.Lecture, error)
	ResolveByCode(ctx context.Context, code string) (*models.Session, error)
}

// SessionHandler serves the instructor side of a session: issuing codes and their QR images.
type SessionHandler struct {
	roster    rosterFileImporter
	sessions  sessionIssuer
	qr        *qr.Encoder
	maxUpload int64
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(roster rosterFileImporter, sessions sessionIssuer, encoder *qr.Encoder, maxUpload int64) *SessionHandler {
	return &SessionHandler{roster: roster, sessions: sessions, qr: encoder, maxUpload: maxUpload}
}

// Create godoc
// @Summary Create or refresh a lecture week session
// @Description Validates the week, imports the optional roster file, then issues a fresh code for the week. Any previous code for the week stops working.
// @Tags Sessions
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param lecture formData string true "Lecture name"
// @Param week formData int true "Week number (1-14)"
// @Param roster formData file false "Roster (.xlsx or .csv)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	limitBody(c, h.maxUpload)

	var req models.CreateSessionRequest
	if err := c.ShouldBind(&req); err != nil {
		if isWeekBindError(err) {
			response.Error(c, appErrors.ErrInvalidWeek)
			return
		}
		response.Error(c, bindError(err, "invalid session payload"))
		return
	}
	req.Lecture = strings.TrimSpace(req.Lecture)
	if req.Lecture == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "lecture is required"))
		return
	}
	// Nothing may be written for a request that is going to be rejected.
	if !models.ValidWeek(req.Week) {
		response.Error(c, appErrors.ErrInvalidWeek)
		return
	}

	file, header, err := optionalRoster(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var imported *models.RosterImportResult
	if file != nil {
		defer file.Close()
		imported, err = h.roster.ImportFile(c.Request.Context(), req.Lecture, header.Filename, file)
		if err != nil {
			response.Error(c, err)
			return
		}
	}

	session, lecture, err := h.sessions.CreateOrRefreshByName(c.Request.Context(), req.Lecture, req.Week)
	if err != nil {
		response.Error(c, err)
		return
	}

	qrImage, err := h.qr.DataURL(session.Code)
	if err != nil {
		response.Error(c, err)
		return
	}

	var meta map[string]interface{}
	if imported != nil {
		meta = map[string]interface{}{"roster": imported}
	}
	response.JSON(c, http.StatusCreated, models.IssuedSession{
		Session:     *session,
		LectureName: lecture.Name,
		Link:        h.qr.Link(session.Code),
		QRCode:      qrImage,
	}, nil, meta)
}

// isWeekBindError reports a week value that is not a number. It is the only numeric field.
func isWeekBindError(err error) bool {
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &typeErr) && typeErr.Field == "week"
}

// QRCode godoc
// @Summary Render the QR image of a session code
// @Tags Sessions
// @Produce png
// @Param code path string true "Session code"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /sessions/{code}/qr [get]
func (h *SessionHandler) QRCode(c *gin.Context) {
	session, err := h.sessions.ResolveByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	png, err := h.qr.PNG(session.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
