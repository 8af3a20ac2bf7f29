package auth

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// InMemory is a process-local UserStore. It backs tests and the no-database
// development mode and mirrors the Postgres store's error contract.
type InMemory struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]*User
}

// NewInMemory returns an empty in-memory user store.
func NewInMemory() *InMemory {
	return &InMemory{nextID: 1, users: make(map[int64]*User)}
}

func (m *InMemory) Insert(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return &ConflictError{Field: "username"}
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return &ConflictError{Field: "email"}
		}
	}
	u.ID = m.nextID
	m.nextID++
	cp := *u
	m.users[cp.ID] = &cp
	return nil
}

func (m *InMemory) FindByID(_ context.Context, id int64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *InMemory) FindByUsername(_ context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *InMemory) List(_ context.Context, filter UserFilter) ([]*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*User, 0, len(m.users))
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.UsernamePrefix != nil &&
			!strings.HasPrefix(strings.ToLower(u.Username), strings.ToLower(*filter.UsernamePrefix)) {
			continue
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *InMemory) Update(_ context.Context, id int64, upd UserUpdate) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	// Both uniqueness checks run before any field is written, so a conflict
	// leaves the stored record untouched, same as the SQL store's rollback.
	if upd.Username != nil {
		for otherID, other := range m.users {
			if otherID != id && strings.EqualFold(other.Username, *upd.Username) {
				return nil, &ConflictError{Field: "username"}
			}
		}
	}
	if upd.Email != nil {
		for otherID, other := range m.users {
			if otherID != id && strings.EqualFold(other.Email, *upd.Email) {
				return nil, &ConflictError{Field: "email"}
			}
		}
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.FirstName != nil {
		u.FirstName = upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = upd.LastName
	}
	if upd.PhoneNumber != nil {
		u.PhoneNumber = upd.PhoneNumber
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	cp := *u
	return &cp, nil
}

func (m *InMemory) UpdatePassword(_ context.Context, id int64, hashedPassword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.HashedPassword = hashedPassword
	return nil
}

func (m *InMemory) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}
