package server

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/cover-letter/internal/db"
	"github.com/jonathan/cover-letter/internal/llm"
)

// memStore is an in-memory Store.
type memStore struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*db.User
	resumes map[uuid.UUID]*db.Resume
	letters []*db.CoverLetter
	failAll error
	clock   time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[uuid.UUID]*db.User{},
		resumes: map[uuid.UUID]*db.Resume{},
		clock:   time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *memStore) CreateUser(_ context.Context, name, email, passwordHash string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return uuid.Nil, m.failAll
	}
	now := m.tick()
	u := &db.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		PasswordSet:  passwordHash != "",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[u.ID] = u
	return u.ID, nil
}

func (m *memStore) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	u, err := m.GetUserByEmail(ctx, email)
	return u != nil, err
}

func (m *memStore) UpdatePassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	u, ok := m.users[userID]
	if !ok {
		return errors.New("no rows updated")
	}
	u.PasswordHash = passwordHash
	u.PasswordSet = true
	u.UpdatedAt = m.tick()
	return nil
}

func (m *memStore) SaveResume(_ context.Context, resume *db.Resume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	resume.UploadedAt = m.tick()
	cp := *resume
	m.resumes[resume.UserID] = &cp
	return nil
}

func (m *memStore) GetResume(_ context.Context, userID uuid.UUID) (*db.Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	if r, ok := m.resumes[userID]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) SaveCoverLetter(_ context.Context, letter *db.CoverLetter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	letter.ID = uuid.New()
	letter.CreatedAt = m.tick()
	cp := *letter
	m.letters = append(m.letters, &cp)
	return nil
}

func (m *memStore) GetCoverLetter(_ context.Context, userID, id uuid.UUID) (*db.CoverLetter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	for _, l := range m.letters {
		if l.ID == id && l.UserID == userID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListCoverLetters(_ context.Context, userID uuid.UUID, limit int) ([]db.CoverLetter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	if limit <= 0 {
		limit = db.DefaultListLimit
	}
	out := []db.CoverLetter{}
	for _, l := range m.letters {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeLLM is an llm.Client returning canned responses.
type fakeLLM struct {
	mu      sync.Mutex
	letter  string
	json    string
	err     error
	prompts []string
}

func (f *fakeLLM) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.letter, f.err
}

func (f *fakeLLM) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.json, nil
}

func (f *fakeLLM) GetModel(tier llm.ModelTier) string { return string(tier) }

func (f *fakeLLM) Close() error { return nil }
