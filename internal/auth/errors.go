package auth

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidCredentials covers every authentication failure a caller is
	// allowed to observe: unknown username, wrong password, unusable token.
	ErrInvalidCredentials = errors.New("could not validate user")

	// ErrInvalidToken indicates the token failed validation. Malformed, badly
	// signed, expired and claim-incomplete tokens all collapse into this one
	// error so the rejection cause is not observable from outside.
	ErrInvalidToken = errors.New("invalid token")

	ErrForbidden    = errors.New("operation requires administrator privileges")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("resource conflict")
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidHash reports a structurally broken password hash, e.g. after
	// storage corruption. Callers must treat it as verification failure.
	ErrInvalidHash = errors.New("invalid password hash")
)

// ConflictError names the column whose uniqueness constraint was violated.
// Stores return it instead of raw driver errors so constraint text never
// reaches a client.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	field := e.Field
	if field == "" {
		field = "resource"
	}
	return strings.ToUpper(field[:1]) + field[1:] + " already exists."
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
