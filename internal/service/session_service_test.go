package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/qr-attendance-api/internal/models"
	appErrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
)

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestSessionService(store *memStore, codes CodeGenerator) *SessionService {
	svc := NewSessionService(store, store, codes, NewMetricsService(), nil, SessionConfig{})
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestSessionServiceRejectsWeekOutOfRange(t *testing.T) {
	store := newMemStore()
	lecture := store.addLecture("CS101")
	svc := newTestSessionService(store, &sequenceCodes{})

	for _, week := range []int{0, 15, -1} {
		_, err := svc.CreateOrRefresh(context.Background(), lecture.ID, week)
		assert.ErrorIs(t, err, appErrors.ErrInvalidWeek, "week %d", week)
	}
}

func TestSessionServiceUnknownLecture(t *testing.T) {
	svc := newTestSessionService(newMemStore(), &sequenceCodes{})

	_, err := svc.CreateOrRefresh(context.Background(), "missing", 3)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSessionServiceRefreshReplacesCode(t *testing.T) {
	store := newMemStore()
	lecture := store.addLecture("CS101")
	svc := newTestSessionService(store, &sequenceCodes{codes: []string{"AB12CD34", "ZX98WV76"}})
	ctx := context.Background()

	first, err := svc.CreateOrRefresh(ctx, lecture.ID, 3)
	require.NoError(t, err)
	require.NotNil(t, first.ExpiresAt)
	assert.Equal(t, fixedNow.Add(2*time.Hour), *first.ExpiresAt)

	second, err := svc.CreateOrRefresh(ctx, lecture.ID, 3)
	require.NoError(t, err)
	assert.NotEqual(t, first.Code, second.Code)
	assert.Equal(t, first.ID, second.ID)

	_, err = svc.ResolveByCode(ctx, first.Code)
	assert.ErrorIs(t, err, appErrors.ErrSessionNotFound)

	resolved, err := svc.ResolveByCode(ctx, second.Code)
	require.NoError(t, err)
	assert.Equal(t, 3, resolved.Week)
}

func TestSessionServiceResolveIsCaseSensitive(t *testing.T) {
	store := newMemStore()
	lecture := store.addLecture("CS101")
	svc := newTestSessionService(store, &sequenceCodes{codes: []string{"AB12CD34"}})

	_, err := svc.CreateOrRefresh(context.Background(), lecture.ID, 1)
	require.NoError(t, err)

	_, err = svc.ResolveByCode(context.Background(), "ab12cd34")
	assert.ErrorIs(t, err, appErrors.ErrSessionNotFound)
}

func TestSessionServiceRetriesOnCodeCollision(t *testing.T) {
	store := newMemStore()
	lecture := store.addLecture("CS101")
	svc := newTestSessionService(store, &sequenceCodes{codes: []string{"TAKEN234", "TAKEN234", "FRESH234"}})
	ctx := context.Background()

	_, err := svc.CreateOrRefresh(ctx, lecture.ID, 1)
	require.NoError(t, err)

	session, err := svc.CreateOrRefresh(ctx, lecture.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "FRESH234", session.Code)
}

func TestSessionServiceGivesUpAfterAttempts(t *testing.T) {
	store := newMemStore()
	lecture := store.addLecture("CS101")
	codes := &sequenceCodes{codes: []string{"SAME2345", "SAME2345", "SAME2345"}}
	svc := NewSessionService(store, store, codes, nil, nil, SessionConfig{CodeAttempts: 2})

	_, err := svc.CreateOrRefresh(context.Background(), lecture.ID, 1)
	require.NoError(t, err)

	_, err = svc.CreateOrRefresh(context.Background(), lecture.ID, 2)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Equal(t, 3, codes.n)
}

func TestSessionServiceStoreFailureIsRetryable(t *testing.T) {
	store := newMemStore()
	lecture := store.addLecture("CS101")
	svc := newTestSessionService(store, &sequenceCodes{})
	store.err = errors.New("connection refused")

	_, err := svc.CreateOrRefresh(context.Background(), lecture.ID, 1)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.True(t, appErr.Retryable())

	_, err = svc.ResolveByCode(context.Background(), "ANY23456")
	assert.ErrorIs(t, err, appErrors.ErrStoreUnavailable)
}

func TestSessionServiceIsActive(t *testing.T) {
	svc := newTestSessionService(newMemStore(), &sequenceCodes{})
	past := fixedNow.Add(-time.Second)
	future := fixedNow.Add(time.Second)

	assert.True(t, svc.IsActive(&models.Session{}, fixedNow))
	assert.True(t, svc.IsActive(&models.Session{ExpiresAt: &future}, fixedNow))
	assert.False(t, svc.IsActive(&models.Session{ExpiresAt: &past}, fixedNow))
	assert.False(t, svc.IsActive(&models.Session{ExpiresAt: &fixedNow}, fixedNow))
	assert.False(t, svc.IsActive(nil, fixedNow))
}

func TestSessionServiceCreateByName(t *testing.T) {
	store := newMemStore()
	store.addLecture("CS101")
	svc := newTestSessionService(store, &sequenceCodes{})

	session, lecture, err := svc.CreateOrRefreshByName(context.Background(), "  CS101 ", 14)
	require.NoError(t, err)
	assert.Equal(t, "CS101", lecture.Name)
	assert.Equal(t, 14, session.Week)

	_, _, err = svc.CreateOrRefreshByName(context.Background(), "MATH200", 1)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSessionServiceListByLecture(t *testing.T) {
	store := newMemStore()
	lecture := store.addLecture("CS101")
	svc := newTestSessionService(store, &sequenceCodes{})
	ctx := context.Background()

	empty, err := svc.ListByLecture(ctx, lecture.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, week := range []int{5, 1, 3} {
		_, err := svc.CreateOrRefresh(ctx, lecture.ID, week)
		require.NoError(t, err)
	}
	sessions, err := svc.ListByLecture(ctx, lecture.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, []int{1, 3, 5}, []int{sessions[0].Week, sessions[1].Week, sessions[2].Week})

	_, err = svc.ListByLecture(ctx, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
