package todo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskora.org/internal/auth"
)

// Service enforces validation and ownership on top of a Store. Every read or
// write on a single todo goes through the owner check first, so handlers can
// stay thin.
type Service struct {
	store Store
}

// NewService constructs the todo service.
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("todo: store is required")
	}
	return &Service{store: store}, nil
}

// CreateRequest carries the fields accepted when creating a todo.
type CreateRequest struct {
	Title       string
	Description string
	Priority    int
	Complete    bool
}

// Create validates the request and persists a todo owned by the caller. The
// owner is always the authenticated identity, never client input.
func (s *Service) Create(ctx context.Context, identity auth.Identity, req CreateRequest) (*Todo, error) {
	title := strings.TrimSpace(req.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	description := strings.TrimSpace(req.Description)
	if err := validateDescription(description); err != nil {
		return nil, err
	}
	if err := validatePriority(req.Priority); err != nil {
		return nil, err
	}
	t := &Todo{
		Title:       title,
		Description: description,
		Priority:    req.Priority,
		Complete:    req.Complete,
		OwnerID:     identity.UserID,
	}
	if err := s.store.Insert(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns the caller's own todos.
func (s *Service) List(ctx context.Context, identity auth.Identity) ([]*Todo, error) {
	return s.store.ListByOwner(ctx, identity.UserID)
}

// Get returns a single todo if, and only if, the caller owns it. A todo owned
// by someone else yields the same ErrNotFound as a missing one.
func (s *Service) Get(ctx context.Context, identity auth.Identity, id int64) (*Todo, error) {
	t, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireOwner(identity, t.OwnerID); err != nil {
		return nil, ErrNotFound
	}
	return t, nil
}

// Update applies a partial update to a todo the caller owns.
func (s *Service) Update(ctx context.Context, identity auth.Identity, id int64, upd Update) (*Todo, error) {
	if _, err := s.Get(ctx, identity, id); err != nil {
		return nil, err
	}
	if err := normalizeUpdate(&upd); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, id, upd)
}

// Delete removes a todo the caller owns.
func (s *Service) Delete(ctx context.Context, identity auth.Identity, id int64) error {
	if _, err := s.Get(ctx, identity, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// AdminGet returns any todo regardless of owner. Admin only.
func (s *Service) AdminGet(ctx context.Context, admin auth.Identity, id int64) (*Todo, error) {
	if err := auth.RequireAdmin(admin); err != nil {
		return nil, err
	}
	return s.store.FindByID(ctx, id)
}

// AdminListByOwner returns every todo owned by the given user. Admin only.
func (s *Service) AdminListByOwner(ctx context.Context, admin auth.Identity, ownerID int64) ([]*Todo, error) {
	if err := auth.RequireAdmin(admin); err != nil {
		return nil, err
	}
	return s.store.ListByOwner(ctx, ownerID)
}

// AdminPurgeOwner removes every todo owned by the given user, called when the
// user record itself is deleted. Admin only.
func (s *Service) AdminPurgeOwner(ctx context.Context, admin auth.Identity, ownerID int64) error {
	if err := auth.RequireAdmin(admin); err != nil {
		return err
	}
	return s.store.DeleteByOwner(ctx, ownerID)
}

func normalizeUpdate(upd *Update) error {
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if err := validateTitle(title); err != nil {
			return err
		}
		upd.Title = &title
	}
	if upd.Description != nil {
		description := strings.TrimSpace(*upd.Description)
		if err := validateDescription(description); err != nil {
			return err
		}
		upd.Description = &description
	}
	if upd.Priority != nil {
		if err := validatePriority(*upd.Priority); err != nil {
			return err
		}
	}
	return nil
}

func validateTitle(title string) error {
	if l := len(title); l < 3 || l > 100 {
		return fmt.Errorf("%w: title must be 3-100 characters", ErrInvalidInput)
	}
	return nil
}

func validateDescription(description string) error {
	if l := len(description); l < 3 || l > 250 {
		return fmt.Errorf("%w: description must be 3-250 characters", ErrInvalidInput)
	}
	return nil
}

func validatePriority(priority int) error {
	if priority < 1 || priority > 5 {
		return fmt.Errorf("%w: priority must be between 1 and 5", ErrInvalidInput)
	}
	return nil
}
