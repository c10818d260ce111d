package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/qr-attendance-api/internal/models"
	appErrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
)

func TestMatrixServiceNoSessionsAllZero(t *testing.T) {
	store := newMemStore()
	lecture := store.addLecture("CS101")
	store.addStudent("2021002", "Alan Turing", lecture.ID)
	store.addStudent("2021001", "Ada Lovelace", lecture.ID)
	svc := NewMatrixService(store, store, store, nil, 0, nil)

	matrix, err := svc.BuildMatrix(context.Background(), lecture.ID)
	require.NoError(t, err)
	require.Len(t, matrix.Rows, 2)
	assert.Equal(t, "2021001", matrix.Rows[0].StudentID)
	assert.Equal(t, "2021002", matrix.Rows[1].StudentID)
	for _, row := range matrix.Rows {
		assert.Equal(t, [models.Weeks]uint8{}, row.Weeks)
	}
}

func TestComposeRows(t *testing.T) {
	students := []models.Student{
		{ID: "a", StudentID: "2021001", Name: "Ada"},
		{ID: "b", StudentID: "2021002", Name: "Alan"},
	}
	marks := []models.AttendanceMark{
		{StudentID: "2021001", Week: 1},
		{StudentID: "2021001", Week: 14},
		{StudentID: "2021002", Week: 3},
		{StudentID: "2099999", Week: 3},
		{StudentID: "2021002", Week: 15},
	}

	rows := composeRows(students, marks)
	require.Len(t, rows, 2)
	assert.Equal(t, uint8(1), rows[0].Weeks[0])
	assert.Equal(t, uint8(1), rows[0].Weeks[13])
	assert.Equal(t, uint8(0), rows[0].Weeks[2])
	assert.Equal(t, uint8(1), rows[1].Weeks[2])
}

func TestMatrixServiceUsesCache(t *testing.T) {
	store := newMemStore()
	lecture := store.addLecture("CS101")
	store.addStudent("2021001", "Ada Lovelace", lecture.ID)
	metrics := NewMetricsService()
	cache := NewCacheService(newMemCache(), metrics, time.Minute, nil, true)
	svc := NewMatrixService(store, store, store, cache, time.Minute, nil)
	ctx := context.Background()

	_, err := svc.BuildMatrix(ctx, lecture.ID)
	require.NoError(t, err)
	cached, err := svc.BuildMatrix(ctx, lecture.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, store.listEnrolledCt)
	assert.Equal(t, "CS101", cached.LectureName)
	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)

	svc.Invalidate(ctx, lecture.ID)
	_, err = svc.BuildMatrix(ctx, lecture.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, store.listEnrolledCt)
}

func TestMatrixServiceByName(t *testing.T) {
	store := newMemStore()
	store.addLecture("CS101")
	svc := NewMatrixService(store, store, store, nil, 0, nil)

	_, err := svc.BuildMatrixByName(context.Background(), "")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.BuildMatrixByName(context.Background(), "MATH200")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	matrix, err := svc.BuildMatrixByName(context.Background(), "CS101")
	require.NoError(t, err)
	assert.Empty(t, matrix.Rows)
}

// pausingMarks holds the first ListMarks call after the store was read until release closes.
type pausingMarks struct {
	store   *memStore
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (p *pausingMarks) ListMarks(ctx context.Context, lectureID string) ([]models.AttendanceMark, error) {
	marks, err := p.store.ListMarks(ctx, lectureID)
	p.once.Do(func() {
		close(p.read)
		<-p.release
	})
	return marks, err
}

func TestMatrixServiceWriteDuringBuildIsNotLost(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	lecture := store.addLecture("CS101")
	store.addStudent("2021001", "Ada Lovelace", lecture.ID)
	sessions := newTestSessionService(store, &sequenceCodes{codes: []string{"AB12CD34"}})
	_, err := sessions.CreateOrRefresh(ctx, lecture.ID, 3)
	require.NoError(t, err)

	marks := &pausingMarks{store: store, read: make(chan struct{}), release: make(chan struct{})}
	cache := NewCacheService(newMemCache(), nil, time.Minute, nil, true)
	matrix := NewMatrixService(store, store, marks, cache, time.Minute, nil)
	attendance := NewAttendanceService(sessions, store, store, store, matrix, nil, nil, nil)

	done := make(chan *models.AttendanceMatrix, 1)
	go func() {
		stale, buildErr := matrix.BuildMatrix(ctx, lecture.ID)
		assert.NoError(t, buildErr)
		done <- stale
	}()

	<-marks.read
	_, err = attendance.Record(ctx, models.RecordAttendanceRequest{Code: "AB12CD34", StudentID: "2021001"}, fixedNow.Add(time.Minute))
	require.NoError(t, err)
	close(marks.release)

	stale := <-done
	require.Len(t, stale.Rows, 1)
	assert.Equal(t, uint8(0), stale.Rows[0].Weeks[2])

	fresh, err := matrix.BuildMatrix(ctx, lecture.ID)
	require.NoError(t, err)
	require.Len(t, fresh.Rows, 1)
	assert.Equal(t, uint8(1), fresh.Rows[0].Weeks[2])
}
