package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/qr-attendance-api/internal/models"
	"github.com/noah-isme/qr-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
)

// memStore mimics the Postgres store: unique keys and upserts serialised under one lock.
type memStore struct {
	mu sync.Mutex

	seq         int
	lectures    map[string]*models.Lecture
	students    map[string]*models.Student
	enrollments map[[2]string]bool
	sessions    map[string]*models.Session
	attendance  map[[2]string]*models.Attendance

	err            error
	listEnrolledCt int
}

func newMemStore() *memStore {
	return &memStore{
		lectures:    make(map[string]*models.Lecture),
		students:    make(map[string]*models.Student),
		enrollments: make(map[[2]string]bool),
		sessions:    make(map[string]*models.Session),
		attendance:  make(map[[2]string]*models.Attendance),
	}
}

// nextID returns sequential ids shaped like the UUIDs Postgres generates.
func (m *memStore) nextID() string {
	m.seq++
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", m.seq)
}

func (m *memStore) addLecture(name string) *models.Lecture {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := &models.Lecture{ID: m.nextID(), Name: name, CreatedAt: time.Now().UTC()}
	m.lectures[l.ID] = l
	return l
}

func (m *memStore) addStudent(studentID, name string, lectureIDs ...string) *models.Student {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := &models.Student{ID: m.nextID(), StudentID: studentID, Name: name}
	m.students[studentID] = st
	for _, lid := range lectureIDs {
		m.enrollments[[2]string{lid, st.ID}] = true
	}
	return st
}

func (m *memStore) attendanceRows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attendance)
}

func (m *memStore) FindByID(ctx context.Context, id string) (*models.Lecture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if l, ok := m.lectures[id]; ok {
		clone := *l
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) FindByName(ctx context.Context, name string) (*models.Lecture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, l := range m.lectures {
		if l.Name == name {
			clone := *l
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) List(ctx context.Context, filter models.LectureFilter) ([]models.LectureSummary, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, 0, m.err
	}
	out := []models.LectureSummary{}
	for _, l := range m.lectures {
		if filter.Search != "" && !strings.Contains(strings.ToLower(l.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, models.LectureSummary{Lecture: *l})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.lectures[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.lectures, id)
	for key := range m.enrollments {
		if key[0] == id {
			delete(m.enrollments, key)
		}
	}
	for sid, s := range m.sessions {
		if s.LectureID != id {
			continue
		}
		delete(m.sessions, sid)
		for key := range m.attendance {
			if key[0] == sid {
				delete(m.attendance, key)
			}
		}
	}
	return nil
}

func (m *memStore) FindByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if st, ok := m.students[studentID]; ok {
		clone := *st
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) IsEnrolled(ctx context.Context, lectureID, studentPK string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	return m.enrollments[[2]string{lectureID, studentPK}], nil
}

func (m *memStore) ListEnrolled(ctx context.Context, lectureID string) ([]models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listEnrolledCt++
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Student
	for _, st := range m.students {
		if m.enrollments[[2]string{lectureID, st.ID}] {
			out = append(out, *st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (m *memStore) ImportRoster(ctx context.Context, lectureName string, entries []models.RosterEntry, now time.Time) (*models.Lecture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var lecture *models.Lecture
	for _, l := range m.lectures {
		if l.Name == lectureName {
			lecture = l
		}
	}
	if lecture == nil {
		lecture = &models.Lecture{ID: m.nextID(), Name: lectureName, CreatedAt: now}
		m.lectures[lecture.ID] = lecture
	}
	for _, e := range entries {
		st, ok := m.students[e.StudentID]
		if !ok {
			st = &models.Student{ID: m.nextID(), StudentID: e.StudentID}
			m.students[e.StudentID] = st
		}
		st.Name = e.Name
		m.enrollments[[2]string{lecture.ID, st.ID}] = true
	}
	clone := *lecture
	return &clone, nil
}

func (m *memStore) Upsert(ctx context.Context, session *models.Session) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var existing *models.Session
	for _, s := range m.sessions {
		if s.LectureID == session.LectureID && s.Week == session.Week {
			existing = s
		}
	}
	for _, s := range m.sessions {
		if s.Code == session.Code && s != existing {
			return nil, repository.ErrCodeTaken
		}
	}
	if existing == nil {
		existing = &models.Session{ID: m.nextID(), LectureID: session.LectureID, Week: session.Week}
		m.sessions[existing.ID] = existing
	}
	existing.Code = session.Code
	existing.CreatedAt = session.CreatedAt
	existing.ExpiresAt = session.ExpiresAt
	clone := *existing
	return &clone, nil
}

func (m *memStore) FindByCode(ctx context.Context, code string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, s := range m.sessions {
		if s.Code == code {
			clone := *s
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) ListByLecture(ctx context.Context, lectureID string) ([]models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Session
	for _, s := range m.sessions {
		if s.LectureID == lectureID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Week < out[j].Week })
	return out, nil
}

func (m *memStore) MarkPresent(ctx context.Context, sessionID, studentPK string, now time.Time) (*models.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	key := [2]string{sessionID, studentPK}
	row, ok := m.attendance[key]
	if !ok {
		row = &models.Attendance{ID: m.nextID(), SessionID: sessionID, StudentID: studentPK, RecordedAt: now}
		m.attendance[key] = row
	}
	row.Present = true
	clone := *row
	return &clone, nil
}

func (m *memStore) ListMarks(ctx context.Context, lectureID string) ([]models.AttendanceMark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	external := make(map[string]string, len(m.students))
	for _, st := range m.students {
		external[st.ID] = st.StudentID
	}
	var marks []models.AttendanceMark
	for key, a := range m.attendance {
		s, ok := m.sessions[key[0]]
		if !ok || s.LectureID != lectureID || !a.Present {
			continue
		}
		marks = append(marks, models.AttendanceMark{StudentID: external[key[1]], Week: s.Week})
	}
	return marks, nil
}

// sequenceCodes hands out codes in order, then numbered fallbacks.
type sequenceCodes struct {
	mu    sync.Mutex
	codes []string
	n     int
	err   error
}

func (g *sequenceCodes) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	g.n++
	if len(g.codes) > 0 {
		code := g.codes[0]
		g.codes = g.codes[1:]
		return code, nil
	}
	return fmt.Sprintf("CODE%04d", g.n), nil
}

// memCache is a JSON round-tripping CacheRepository.
type memCache struct {
	mu       sync.Mutex
	entries  map[string][]byte
	counters map[string]int64
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte), counters: make(map[string]int64)}
}

func (c *memCache) Counter(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[key], nil
}

func (c *memCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[key]++
	return c.counters[key], nil
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}
