package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/qr-attendance-api/internal/models"
	appErrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
	"github.com/noah-isme/qr-attendance-api/pkg/qr"
)

type rosterImporterMock struct {
	result   *models.RosterImportResult
	err      error
	lecture  string
	filename string
	content  string
	calls    int
}

func (m *rosterImporterMock) ImportFile(ctx context.Context, lectureName, filename string, r io.Reader) (*models.RosterImportResult, error) {
	m.calls++
	m.lecture = lectureName
	m.filename = filename
	body, _ := io.ReadAll(r)
	m.content = string(body)
	return m.result, m.err
}

type sessionIssuerMock struct {
	session  *models.Session
	lecture  *models.Lecture
	issueErr error
	resolve  error
	week     int
	name     string
}

func (m *sessionIssuerMock) CreateOrRefreshByName(ctx context.Context, lectureName string, week int) (*models.Session, *models.Lecture, error) {
	m.name = lectureName
	m.week = week
	if m.issueErr != nil {
		return nil, nil, m.issueErr
	}
	return m.session, m.lecture, nil
}

func (m *sessionIssuerMock) ResolveByCode(ctx context.Context, code string) (*models.Session, error) {
	if m.resolve != nil {
		return nil, m.resolve
	}
	if m.session == nil || m.session.Code != code {
		return nil, appErrors.ErrSessionNotFound
	}
	return m.session, nil
}

func issuedFixture() *sessionIssuerMock {
	expires := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)
	return &sessionIssuerMock{
		session: &models.Session{ID: "s-1", LectureID: "l-1", Week: 3, Code: "ABCD2345", ExpiresAt: &expires},
		lecture: &models.Lecture{ID: "l-1", Name: "Algorithms"},
	}
}

type issuedEnvelope struct {
	Data struct {
		Code        string `json:"code"`
		Week        int    `json:"week"`
		LectureName string `json:"lecture_name"`
		Link        string `json:"link"`
		QRCode      string `json:"qr_code"`
	} `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func TestSessionHandlerCreateFromJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	roster := &rosterImporterMock{}
	sessions := issuedFixture()
	h := NewSessionHandler(roster, sessions, qr.NewEncoder("https://attend.example.edu", 128), 1<<20)

	c, w := newGinContext(http.MethodPost, "/sessions", []byte(`{"lecture":" Algorithms ","week":3}`))
	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	var env issuedEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "ABCD2345", env.Data.Code)
	assert.Equal(t, "https://attend.example.edu/attend?c=ABCD2345", env.Data.Link)
	assert.Contains(t, env.Data.QRCode, "data:image/png;base64,")
	assert.Equal(t, "Algorithms", sessions.name)
	assert.Equal(t, 3, sessions.week)
	assert.Zero(t, roster.calls)
	assert.Nil(t, env.Meta)
}

func TestSessionHandlerCreateImportsRosterFirst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	roster := &rosterImporterMock{result: &models.RosterImportResult{LectureID: "l-1", LectureName: "Algorithms", Imported: 2}}
	h := NewSessionHandler(roster, issuedFixture(), qr.NewEncoder("http://localhost:8080", 128), 1<<20)

	c, w := newMultipartContext(t, "/sessions",
		map[string]string{"lecture": "Algorithms", "week": "3"},
		&upload{filename: "roster.csv", content: "student_id,name\nS1,Ada\nS2,Alan\n"})
	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, roster.calls)
	assert.Equal(t, "roster.csv", roster.filename)
	assert.Contains(t, roster.content, "S2,Alan")

	var env issuedEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Contains(t, env.Meta, "roster")
}

func TestSessionHandlerCreateStopsOnRosterError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	roster := &rosterImporterMock{err: appErrors.ErrUploadEmpty}
	sessions := issuedFixture()
	h := NewSessionHandler(roster, sessions, qr.NewEncoder("http://localhost:8080", 128), 1<<20)

	c, w := newMultipartContext(t, "/sessions",
		map[string]string{"lecture": "Algorithms", "week": "3"},
		&upload{filename: "roster.csv", content: "student_id,name\n"})
	h.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "UPLOAD_EMPTY")
	assert.Empty(t, sessions.name)
}

func TestSessionHandlerCreateRejectsOversizedRoster(t *testing.T) {
	gin.SetMode(gin.TestMode)
	roster := &rosterImporterMock{}
	h := NewSessionHandler(roster, issuedFixture(), qr.NewEncoder("http://localhost:8080", 128), 64)

	content := "student_id,name\n"
	for i := 0; i < 50; i++ {
		content += "S100,Somebody With A Long Name\n"
	}
	c, w := newMultipartContext(t, "/sessions",
		map[string]string{"lecture": "Algorithms", "week": "3"},
		&upload{filename: "roster.csv", content: content})
	h.Create(c)

	assert.NotEqual(t, http.StatusCreated, w.Code)
	assert.Zero(t, roster.calls)
}

func TestSessionHandlerCreateValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("missing lecture", func(t *testing.T) {
		h := NewSessionHandler(&rosterImporterMock{}, issuedFixture(), qr.NewEncoder("", 128), 0)
		c, w := newGinContext(http.MethodPost, "/sessions", []byte(`{"week":3}`))
		h.Create(c)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("week out of range", func(t *testing.T) {
		sessions := issuedFixture()
		h := NewSessionHandler(&rosterImporterMock{}, sessions, qr.NewEncoder("", 128), 0)
		c, w := newGinContext(http.MethodPost, "/sessions", []byte(`{"lecture":"Algorithms","week":15}`))
		h.Create(c)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_WEEK")
		assert.Empty(t, sessions.name)
	})

	t.Run("non numeric week in json", func(t *testing.T) {
		h := NewSessionHandler(&rosterImporterMock{}, issuedFixture(), qr.NewEncoder("", 128), 0)
		c, w := newGinContext(http.MethodPost, "/sessions", []byte(`{"lecture":"Algorithms","week":"three"}`))
		h.Create(c)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_WEEK")
	})

	t.Run("store down", func(t *testing.T) {
		sessions := issuedFixture()
		sessions.issueErr = appErrors.Unavailable(assert.AnError, "")
		h := NewSessionHandler(&rosterImporterMock{}, sessions, qr.NewEncoder("", 128), 0)
		c, w := newGinContext(http.MethodPost, "/sessions", []byte(`{"lecture":"Algorithms","week":2}`))
		h.Create(c)
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "1", w.Header().Get("Retry-After"))
	})
}

func TestSessionHandlerQRCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewSessionHandler(&rosterImporterMock{}, issuedFixture(), qr.NewEncoder("http://localhost:8080", 128), 0)

	c, w := newGinContext(http.MethodGet, "/sessions/ABCD2345/qr", nil)
	c.Params = gin.Params{{Key: "code", Value: "ABCD2345"}}
	h.QRCode(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", w.Body.String()[:4])

	c, w = newGinContext(http.MethodGet, "/sessions/abcd2345/qr", nil)
	c.Params = gin.Params{{Key: "code", Value: "abcd2345"}}
	h.QRCode(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandlerCreateRejectsBadWeekBeforeImportingRoster(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, week := range []string{"15", "0", "three"} {
		roster := &rosterImporterMock{result: &models.RosterImportResult{Imported: 2}}
		sessions := issuedFixture()
		h := NewSessionHandler(roster, sessions, qr.NewEncoder("http://localhost:8080", 128), 1<<20)

		c, w := newMultipartContext(t, "/sessions",
			map[string]string{"lecture": "Algorithms", "week": week},
			&upload{filename: "roster.csv", content: "student_id,name\nS1,Ada\n"})
		h.Create(c)

		require.Equal(t, http.StatusBadRequest, w.Code, week)
		assert.Contains(t, w.Body.String(), "INVALID_WEEK", week)
		assert.Zero(t, roster.calls, week)
		assert.Empty(t, sessions.name, week)
	}
}
