// Package todo implements task records and the ownership rules around them.
package todo

import (
	"context"
	"errors"
)

var (
	// ErrNotFound covers both a genuinely absent todo and one owned by
	// someone else. Collapsing the two keeps foreign ids unprobeable.
	ErrNotFound = errors.New("todo not found")

	ErrInvalidInput = errors.New("invalid input")
)

// Todo is a single task owned by exactly one user.
type Todo struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Complete    bool   `json:"complete"`
	OwnerID     int64  `json:"owner_id"`
}

// Update is an allow-listed partial update. Ownership is not updatable.
type Update struct {
	Title       *string
	Description *string
	Priority    *int
	Complete    *bool
}

// IsZero reports whether the update changes nothing.
func (u Update) IsZero() bool {
	return u.Title == nil && u.Description == nil && u.Priority == nil && u.Complete == nil
}

// Store describes todo persistence. Absent rows surface as ErrNotFound.
// DeleteByOwner removes every todo of a user and is a no-op when there are
// none; the SQL store also relies on the FK cascade for this.
type Store interface {
	Insert(ctx context.Context, t *Todo) error
	FindByID(ctx context.Context, id int64) (*Todo, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*Todo, error)
	Update(ctx context.Context, id int64, upd Update) (*Todo, error)
	Delete(ctx context.Context, id int64) error
	DeleteByOwner(ctx context.Context, ownerID int64) error
}
