package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const defaultTokenTTL = 30 * time.Minute

// Service orchestrates registration, login, password changes and user
// administration on top of the hasher, the codec and the user store.
type Service struct {
	store    UserStore
	hasher   *Hasher
	codec    *Codec
	tokenTTL time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithTokenTTL overrides the access token lifetime.
func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// NewService constructs the auth service.
func NewService(store UserStore, hasher *Hasher, codec *Codec, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: user store is required")
	}
	if hasher == nil {
		return nil, errors.New("auth: password hasher is required")
	}
	if codec == nil {
		return nil, errors.New("auth: token codec is required")
	}
	s := &Service{store: store, hasher: hasher, codec: codec, tokenTTL: defaultTokenTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RegisterRequest carries the fields accepted at registration. The plaintext
// password lives only for the duration of the call.
type RegisterRequest struct {
	Username    string
	Email       string
	Password    string
	Role        string
	FirstName   *string
	LastName    *string
	PhoneNumber *string
}

// Register validates the request, hashes the password and persists a new
// active user. Uniqueness is enforced by the store; a violation surfaces as
// *ConflictError naming the duplicated field.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	username := strings.TrimSpace(req.Username)
	if l := len(username); l < 3 || l > 50 {
		return nil, fmt.Errorf("%w: username must be 3-50 characters", ErrInvalidInput)
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if l := len(req.Password); l < 6 || l > 100 {
		return nil, fmt.Errorf("%w: password must be 6-100 characters", ErrInvalidInput)
	}
	role := strings.TrimSpace(strings.ToLower(req.Role))
	if role == "" {
		role = RoleUser
	}
	if role != RoleUser && role != RoleAdmin {
		return nil, fmt.Errorf("%w: unsupported role %q", ErrInvalidInput, role)
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	user := &User{
		Username:       username,
		Email:          email,
		FirstName:      trimOptional(req.FirstName),
		LastName:       trimOptional(req.LastName),
		PhoneNumber:    trimOptional(req.PhoneNumber),
		Role:           role,
		HashedPassword: hash,
		IsActive:       true,
	}
	if err := s.store.Insert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate looks the user up by username and verifies the password.
// Absent user (ErrNotFound) and wrong password (ErrInvalidCredentials) stay
// distinguishable here; Login flattens both before anything reaches a client.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.store.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	ok, err := s.hasher.Verify(password, user.HashedPassword)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login exchanges credentials for a signed token carrying the stored user's
// id and role. Every failure is the one uniform ErrInvalidCredentials so a
// caller cannot tell an unknown username from a wrong password.
func (s *Service) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return s.codec.Issue(user.Username, user.ID, user.Role, s.tokenTTL)
}

// ChangePassword verifies the old password and persists a fresh hash. The
// same-password precondition is checked before any store access.
func (s *Service) ChangePassword(ctx context.Context, identity Identity, oldPassword, newPassword string) error {
	if oldPassword == newPassword {
		return fmt.Errorf("%w: new password must be different from the old password", ErrInvalidInput)
	}
	if l := len(newPassword); l < 6 || l > 100 {
		return fmt.Errorf("%w: password must be 6-100 characters", ErrInvalidInput)
	}
	user, err := s.store.FindByID(ctx, identity.UserID)
	if err != nil {
		return err
	}
	ok, err := s.hasher.Verify(oldPassword, user.HashedPassword)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, user.ID, hash)
}

// Profile returns the caller's own record.
func (s *Service) Profile(ctx context.Context, identity Identity) (*User, error) {
	return s.store.FindByID(ctx, identity.UserID)
}

// UpdateProfile applies an allow-listed partial update to the caller's own
// record. Role and activation state are not self-service.
func (s *Service) UpdateProfile(ctx context.Context, identity Identity, upd UserUpdate) (*User, error) {
	upd.Role = nil
	upd.IsActive = nil
	if err := normalizeUpdate(&upd); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, identity.UserID, upd)
}

// ListUsers returns users matching the filter. Admin only; the role check is
// repeated here so a mis-wired route cannot widen access.
func (s *Service) ListUsers(ctx context.Context, admin Identity, filter UserFilter) ([]*User, error) {
	if err := RequireAdmin(admin); err != nil {
		return nil, err
	}
	return s.store.List(ctx, filter)
}

// GetUser returns any user by id. Admin only.
func (s *Service) GetUser(ctx context.Context, admin Identity, id int64) (*User, error) {
	if err := RequireAdmin(admin); err != nil {
		return nil, err
	}
	return s.store.FindByID(ctx, id)
}

// UpdateUser applies an allow-listed partial update to any user, including
// role and activation toggles. Admin only.
func (s *Service) UpdateUser(ctx context.Context, admin Identity, id int64, upd UserUpdate) (*User, error) {
	if err := RequireAdmin(admin); err != nil {
		return nil, err
	}
	if err := normalizeUpdate(&upd); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, id, upd)
}

// DeleteUser removes a user record. Admin only.
func (s *Service) DeleteUser(ctx context.Context, admin Identity, id int64) error {
	if err := RequireAdmin(admin); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

func normalizeUpdate(upd *UserUpdate) error {
	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		if l := len(username); l < 3 || l > 50 {
			return fmt.Errorf("%w: username must be 3-50 characters", ErrInvalidInput)
		}
		upd.Username = &username
	}
	if upd.Email != nil {
		email, err := normalizeEmail(*upd.Email)
		if err != nil {
			return err
		}
		upd.Email = &email
	}
	if upd.Role != nil {
		role := strings.TrimSpace(strings.ToLower(*upd.Role))
		if role != RoleUser && role != RoleAdmin {
			return fmt.Errorf("%w: unsupported role %q", ErrInvalidInput, role)
		}
		upd.Role = &role
	}
	upd.FirstName = trimOptional(upd.FirstName)
	upd.LastName = trimOptional(upd.LastName)
	upd.PhoneNumber = trimOptional(upd.PhoneNumber)
	return nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(strings.ToLower(raw))
	if l := len(email); l < 5 || l > 100 || !strings.Contains(email, "@") {
		return "", fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	return email, nil
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
