package auth

import (
	"context"
	"errors"
)

// Resolver turns a presented bearer token into an authenticated identity.
// Resolution is one token decode plus one store read; nothing is cached
// between requests, so concurrent calls are safe.
type Resolver struct {
	codec *Codec
	store UserStore
}

// NewResolver constructs a Resolver.
func NewResolver(codec *Codec, store UserStore) (*Resolver, error) {
	if codec == nil {
		return nil, errors.New("auth: token codec is required")
	}
	if store == nil {
		return nil, errors.New("auth: user store is required")
	}
	return &Resolver{codec: codec, store: store}, nil
}

// Resolve validates the token and re-reads the user record. The record is
// the source of truth: the role embedded in the token is ignored in favour
// of the stored one, and a deleted or deactivated user fails exactly like a
// bad token.
func (r *Resolver) Resolve(ctx context.Context, token string) (Identity, error) {
	claims, err := r.codec.Decode(token)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	user, err := r.store.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Identity{}, ErrInvalidToken
		}
		return Identity{}, err
	}
	if !user.IsActive {
		return Identity{}, ErrInvalidToken
	}
	return Identity{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		IsActive: user.IsActive,
	}, nil
}
