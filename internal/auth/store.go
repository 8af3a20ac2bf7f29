package auth

import "context"

// UserFilter narrows administrative user listings. Nil fields match
// everything; UsernamePrefix matches case-insensitively.
type UserFilter struct {
	Role           *string
	UsernamePrefix *string
	IsActive       *bool
}

// UserUpdate is an allow-listed partial update. Only the named fields can
// change through this path; arbitrary attributes cannot be injected.
type UserUpdate struct {
	Username    *string
	Email       *string
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	Role        *string
	IsActive    *bool
}

// IsZero reports whether the update changes nothing.
func (u UserUpdate) IsZero() bool {
	return u.Username == nil && u.Email == nil && u.FirstName == nil &&
		u.LastName == nil && u.PhoneNumber == nil && u.Role == nil && u.IsActive == nil
}

// UserStore describes the persistence operations the auth subsystem needs.
// Implementations surface uniqueness violations as *ConflictError naming the
// duplicated column and absent rows as ErrNotFound.
type UserStore interface {
	Insert(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, filter UserFilter) ([]*User, error)
	Update(ctx context.Context, id int64, upd UserUpdate) (*User, error)
	UpdatePassword(ctx context.Context, id int64, hashedPassword string) error
	Delete(ctx context.Context, id int64) error
}
