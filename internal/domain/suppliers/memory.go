package suppliers

import (
	"context"
	"sort"
	"sync"
)

type Memory struct {
	mu     sync.RWMutex
	byID   map[int64]*Supplier
	nextID int64
}

func NewMemory(seed ...Supplier) *Memory {
	m := &Memory{byID: make(map[int64]*Supplier)}
	for _, s := range seed {
		m.nextID++
		s.ID = m.nextID
		cp := s
		m.byID[s.ID] = &cp
	}
	return m
}

func (m *Memory) list(onlyActive bool) []Supplier {
	out := make([]Supplier, 0, len(m.byID))
	for _, s := range m.byID {
		if onlyActive && !s.Active {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Memory) ListActive(ctx context.Context) ([]Supplier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.list(true), nil
}

func (m *Memory) ListAll(ctx context.Context) ([]Supplier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.list(false), nil
}

func (m *Memory) Add(ctx context.Context, name, contact, address string) (*Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.byID {
		if s.Active && s.Name == name {
			return nil, ErrDuplicateName
		}
	}
	m.nextID++
	s := &Supplier{ID: m.nextID, Name: name, Contact: contact, Address: address, Active: true}
	m.byID[s.ID] = s
	cp := *s
	return &cp, nil
}

func (m *Memory) Update(ctx context.Context, s Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[s.ID]; !ok {
		return ErrNotFound
	}
	cp := s
	m.byID[s.ID] = &cp
	return nil
}

func (m *Memory) setActive(id int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	s.Active = active
	return nil
}

func (m *Memory) Deactivate(ctx context.Context, id int64) error { return m.setActive(id, false) }
func (m *Memory) Restore(ctx context.Context, id int64) error    { return m.setActive(id, true) }

func (m *Memory) Exists(ctx context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.byID {
		if s.Name == name {
			return true, nil
		}
	}
	return false, nil
}
