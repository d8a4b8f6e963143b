package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/noah-isme/teacher-feedback-api/internal/models"
	"github.com/noah-isme/teacher-feedback-api/internal/repository"
	appErrors "github.com/noah-isme/teacher-feedback-api/pkg/errors"
)

// memoryStore is an in-memory stand-in for the user, teacher and feedback repositories.
type memoryStore struct {
	mu            sync.Mutex
	users         map[string]*models.User
	teachers      map[string]*models.Teacher
	feedback      []models.Feedback
	refreshTokens map[string]*models.RefreshToken
	listCalls     int
	failList      error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:         map[string]*models.User{},
		teachers:      map[string]*models.Teacher{},
		refreshTokens: map[string]*models.RefreshToken{},
	}
}

func (m *memoryStore) addTeacher(t models.Teacher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copyT := t
	m.teachers[t.ID] = &copyT
}

// users

func (m *memoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			copyU := *u
			return &copyU, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryStore) FindByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		copyU := *u
		return &copyU, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memoryStore) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	copyU := *user
	m.users[user.ID] = &copyU
	return nil
}

func (m *memoryStore) CreateTeacherAccount(ctx context.Context, user *models.User, entry *models.Teacher) error {
	if err := m.Create(ctx, user); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.teachers {
		if t.UserID == nil && t.Email != nil && *t.Email == user.Email {
			t.UserID = &user.ID
			*entry = *t
			return nil
		}
	}
	if entry.ID == "" {
		entry.ID = "teacher-" + user.ID
	}
	entry.UserID = &user.ID
	copyT := *entry
	m.teachers[entry.ID] = &copyT
	return nil
}

func (m *memoryStore) UpdatePassword(_ context.Context, id, passwordHash string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (m *memoryStore) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.refreshTokens {
		if rt.UserID == userID {
			rt.Revoked = true
		}
	}
	return nil
}

func (m *memoryStore) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copyT := *token
	m.refreshTokens[token.Token] = &copyT
	return nil
}

func (m *memoryStore) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rt, ok := m.refreshTokens[token]; ok {
		copyT := *rt
		return &copyT, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memoryStore) RevokeRefreshToken(_ context.Context, id string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.refreshTokens {
		if rt.ID == id && !rt.Revoked {
			rt.Revoked = true
			return nil
		}
	}
	return sql.ErrNoRows
}

// teacherStore adapts memoryStore to the teacher repository method set,
// whose FindByID/Create collide with the user methods.
type teacherStore struct{ *memoryStore }

func (s teacherStore) ListAll(_ context.Context) ([]models.Teacher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.failList != nil {
		return nil, s.failList
	}
	out := make([]models.Teacher, 0, len(s.teachers))
	for _, t := range s.teachers {
		out = append(out, *t)
	}
	SortTeachers(out, models.TeacherSortNameAsc)
	return out, nil
}

func (s teacherStore) FindByID(_ context.Context, id string) (*models.Teacher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.teachers[id]; ok {
		copyT := *t
		return &copyT, nil
	}
	return nil, sql.ErrNoRows
}

func (s teacherStore) FindByUserID(_ context.Context, userID string) (*models.Teacher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.teachers {
		if t.UserID != nil && *t.UserID == userID {
			copyT := *t
			return &copyT, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s teacherStore) ExistsByNameSubject(_ context.Context, name, subject string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.teachers {
		if compareFold(t.Name, name) == 0 && compareFold(t.Subject, subject) == 0 {
			return true, nil
		}
	}
	return false, nil
}

func (s teacherStore) Create(_ context.Context, teacher *models.Teacher) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if teacher.ID == "" {
		teacher.ID = "t-" + teacher.Name
	}
	teacher.AverageRating = 0
	teacher.TotalFeedback = 0
	copyT := *teacher
	s.teachers[teacher.ID] = &copyT
	return nil
}

func (s teacherStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teachers[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.teachers, id)
	kept := s.feedback[:0]
	for _, f := range s.feedback {
		if f.TeacherID != id {
			kept = append(kept, f)
		}
	}
	s.feedback = kept
	return nil
}

// feedbackStore adapts memoryStore to the feedback repository method set.
type feedbackStore struct{ *memoryStore }

func (s feedbackStore) Create(_ context.Context, feedback *models.Feedback) (*models.Teacher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	teacher, ok := s.teachers[feedback.TeacherID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	for _, f := range s.feedback {
		if f.StudentID == feedback.StudentID && f.TeacherID == feedback.TeacherID {
			return nil, repository.ErrDuplicate
		}
	}
	if feedback.ID == "" {
		feedback.ID = "f-" + feedback.StudentID + "-" + feedback.TeacherID
	}
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = time.Now().UTC()
	}
	s.feedback = append(s.feedback, *feedback)

	var sum, count int
	for _, f := range s.feedback {
		if f.TeacherID == teacher.ID {
			sum += f.Rating
			count++
		}
	}
	teacher.TotalFeedback = count
	teacher.AverageRating = float64(sum) / float64(count)
	copyT := *teacher
	return &copyT, nil
}

func (s feedbackStore) Exists(_ context.Context, studentID, teacherID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.feedback {
		if f.StudentID == studentID && f.TeacherID == teacherID {
			return true, nil
		}
	}
	return false, nil
}

func (s feedbackStore) SubmittedTeacherIDs(_ context.Context, studentID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := []string{}
	for _, f := range s.feedback {
		if f.StudentID == studentID {
			ids = append(ids, f.TeacherID)
		}
	}
	return ids, nil
}

func (s feedbackStore) ListReceived(_ context.Context, teacherID string) ([]models.FeedbackView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.FeedbackView{}
	for _, f := range s.feedback {
		if f.TeacherID != teacherID {
			continue
		}
		view := models.FeedbackView{Feedback: f, Subject: s.teachers[teacherID].Subject, TeacherName: s.teachers[teacherID].Name}
		if u, ok := s.users[f.StudentID]; ok {
			view.StudentName = u.Name
		}
		out = append(out, view)
	}
	return out, nil
}

func (s feedbackStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.feedback), nil
}

// recordingAudit captures audit records synchronously.
type recordingAudit struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (r *recordingAudit) Record(_ context.Context, entry *models.AuditLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recordingAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Action
	}
	return out
}

// memoryCache is a CacheRepository backed by a map; values round-trip through
// a pointer swap rather than JSON since tests only cache teacher slices.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]interface{}
	deletes []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]interface{}{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	switch d := dest.(type) {
	case *[]models.Teacher:
		*d = append([]models.Teacher(nil), v.([]models.Teacher)...)
	case *models.AdminDashboard:
		*d = *v.(*models.AdminDashboard)
	default:
		return appErrors.ErrCacheMiss
	}
	return nil
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes = append(c.deletes, pattern)
	c.entries = map[string]interface{}{}
	return nil
}
