package users

import (
	"context"
	"sort"
	"sync"
	"time"
)

type Memory struct {
	mu     sync.RWMutex
	byName map[string]*User
	nextID int64
}

func NewMemory() *Memory { return &Memory{byName: make(map[string]*User)} }

func (m *Memory) GetByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byName[username]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) Set(ctx context.Context, username, passwordHash string, admin bool) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if u, ok := m.byName[username]; ok {
		u.PasswordHash = passwordHash
		u.Admin = admin
		u.UpdatedAt = now
		cp := *u
		return &cp, nil
	}
	m.nextID++
	u := &User{ID: m.nextID, Username: username, PasswordHash: passwordHash, Admin: admin, CreatedAt: now, UpdatedAt: now}
	m.byName[username] = u
	cp := *u
	return &cp, nil
}

func (m *Memory) List(ctx context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]User, 0, len(m.byName))
	for _, u := range m.byName {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *Memory) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byName), nil
}
