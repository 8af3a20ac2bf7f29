package todo

import (
	"context"
	"sort"
	"sync"
)

// InMemory is a process-local Store for tests and database-less development.
type InMemory struct {
	mu     sync.RWMutex
	nextID int64
	todos  map[int64]*Todo
}

// NewInMemory returns an empty in-memory todo store.
func NewInMemory() *InMemory {
	return &InMemory{nextID: 1, todos: make(map[int64]*Todo)}
}

func (m *InMemory) Insert(_ context.Context, t *Todo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.nextID
	m.nextID++
	cp := *t
	m.todos[cp.ID] = &cp
	return nil
}

func (m *InMemory) FindByID(_ context.Context, id int64) (*Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.todos[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *InMemory) ListByOwner(_ context.Context, ownerID int64) ([]*Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Todo, 0)
	for _, t := range m.todos {
		if t.OwnerID != ownerID {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *InMemory) Update(_ context.Context, id int64, upd Update) (*Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.todos[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Priority != nil {
		t.Priority = *upd.Priority
	}
	if upd.Complete != nil {
		t.Complete = *upd.Complete
	}
	cp := *t
	return &cp, nil
}

func (m *InMemory) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.todos[id]; !ok {
		return ErrNotFound
	}
	delete(m.todos, id)
	return nil
}

// DeleteByOwner removes every todo owned by the given user. The Postgres
// store gets this for free from the FK cascade; the in-memory store mirrors
// it so user deletion behaves the same in both modes.
func (m *InMemory) DeleteByOwner(_ context.Context, ownerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.todos {
		if t.OwnerID == ownerID {
			delete(m.todos, id)
		}
	}
	return nil
}
