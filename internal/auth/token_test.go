package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCodecRoundtrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c, err := NewCodec("unit-test-secret", WithClock(fixedClock(now)))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	token, expiresAt, err := c.Issue("alice", 42, RoleAdmin, 30*time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if want := now.Add(30 * time.Minute); !expiresAt.Equal(want) {
		t.Fatalf("expiresAt = %v, want %v", expiresAt, want)
	}
	claims, err := c.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Subject != "alice" || claims.UserID != 42 || claims.Role != RoleAdmin {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestTokenWireShape(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c, err := NewCodec("unit-test-secret", WithClock(fixedClock(now)))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	token, _, err := c.Issue("alice", 42, RoleUser, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d segments, want 3", len(parts))
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	for _, key := range []string{"sub", "id", "role", "exp"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("payload missing %q: %v", key, payload)
		}
	}
	if len(payload) != 4 {
		t.Fatalf("payload carries extra claims: %v", payload)
	}
}

func TestDecodeRejectionsAreUniform(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c, err := NewCodec("unit-test-secret", WithClock(fixedClock(now)))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	valid, _, err := c.Issue("alice", 42, RoleUser, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other, err := NewCodec("a-different-secret", WithClock(fixedClock(now)))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	foreign, _, err := other.Issue("alice", 42, RoleUser, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	expiredCodec, err := NewCodec("unit-test-secret", WithClock(fixedClock(now.Add(-time.Hour))))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	expired, _, err := expiredCodec.Issue("alice", 42, RoleUser, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Signed with the right secret but missing the custom claims.
	bare, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}).SignedString([]byte("unit-test-secret"))
	if err != nil {
		t.Fatalf("sign bare token: %v", err)
	}

	// Signed with alg=none, exploiting a verifier that trusts the header.
	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"tampered payload", valid[:len(valid)-2] + "xx"},
		{"wrong secret", foreign},
		{"expired", expired},
		{"missing custom claims", bare},
		{"alg none", noneToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.Decode(tc.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestIssueValidation(t *testing.T) {
	c, err := NewCodec("unit-test-secret")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	if _, _, err := c.Issue("", 42, RoleUser, time.Minute); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty subject: err = %v, want ErrInvalidInput", err)
	}
	if _, _, err := c.Issue("alice", 0, RoleUser, time.Minute); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero id: err = %v, want ErrInvalidInput", err)
	}
	if _, _, err := c.Issue("alice", 42, "", time.Minute); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty role: err = %v, want ErrInvalidInput", err)
	}
	if _, _, err := c.Issue("alice", 42, RoleUser, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero ttl: err = %v, want ErrInvalidInput", err)
	}
}

func TestNewCodecRequiresSecret(t *testing.T) {
	if _, err := NewCodec(""); err == nil {
		t.Fatal("NewCodec accepted an empty secret")
	}
	if _, err := NewCodec("   "); err == nil {
		t.Fatal("NewCodec accepted a whitespace secret")
	}
}
