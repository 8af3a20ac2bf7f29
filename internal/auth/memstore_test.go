package auth

import (
	"context"
	"errors"
	"testing"
)

func TestInMemoryUpdateConflictLeavesRecordUntouched(t *testing.T) {
	store := NewInMemory()
	seedUser(t, store, "alice", RoleUser)
	bob := seedUser(t, store, "bob", RoleUser)

	// The username in this update is free, but the email collides with
	// alice's. Nothing may stick, including the free field.
	username := "robert"
	email := "alice@example.com"
	_, err := store.Update(context.Background(), bob.ID, UserUpdate{Username: &username, Email: &email})
	var conflict *ConflictError
	if !errors.As(err, &conflict) || conflict.Field != "email" {
		t.Fatalf("err = %v, want email conflict", err)
	}

	got, err := store.FindByID(context.Background(), bob.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Username != "bob" {
		t.Fatalf("username = %q, want %q (failed update must not apply partially)", got.Username, "bob")
	}
	if got.Email != "bob@example.com" {
		t.Fatalf("email = %q, want %q", got.Email, "bob@example.com")
	}
}

func TestInMemoryUpdateUsernameConflict(t *testing.T) {
	store := NewInMemory()
	seedUser(t, store, "alice", RoleUser)
	bob := seedUser(t, store, "bob", RoleUser)

	username := "ALICE"
	email := "new-bob@example.com"
	_, err := store.Update(context.Background(), bob.ID, UserUpdate{Username: &username, Email: &email})
	var conflict *ConflictError
	if !errors.As(err, &conflict) || conflict.Field != "username" {
		t.Fatalf("err = %v, want username conflict", err)
	}

	got, err := store.FindByID(context.Background(), bob.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Email != "bob@example.com" {
		t.Fatalf("email = %q, want %q (failed update must not apply partially)", got.Email, "bob@example.com")
	}
}
