package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Params tune the Argon2id cost. The defaults keep hashing expensive enough
// to slow offline guessing without starving login latency.
type Params struct {
	Time        uint32
	MemoryKiB   uint32
	Parallelism uint8
	KeyLength   uint32
	SaltLength  uint32
}

// DefaultParams returns the production cost settings.
func DefaultParams() Params {
	return Params{
		Time:        2,
		MemoryKiB:   64 * 1024,
		Parallelism: 4,
		KeyLength:   32,
		SaltLength:  16,
	}
}

// Verification refuses hashes claiming parameters far above anything this
// service would ever write, so a poisoned hash column cannot pin a CPU.
const (
	maxVerifyMemoryKiB = 1 << 21 // 2 GiB
	maxVerifyTime      = 16
)

// Hasher produces and verifies Argon2id password hashes in PHC string format:
// $argon2id$v=19$m=...,t=...,p=...$<salt>$<digest>.
type Hasher struct {
	params Params
}

// NewHasher constructs a Hasher, filling zero-valued fields from the defaults.
func NewHasher(params Params) *Hasher {
	def := DefaultParams()
	if params.Time == 0 {
		params.Time = def.Time
	}
	if params.MemoryKiB == 0 {
		params.MemoryKiB = def.MemoryKiB
	}
	if params.Parallelism == 0 {
		params.Parallelism = def.Parallelism
	}
	if params.KeyLength == 0 {
		params.KeyLength = def.KeyLength
	}
	if params.SaltLength == 0 {
		params.SaltLength = def.SaltLength
	}
	return &Hasher{params: params}
}

// Hash derives an Argon2id digest over a fresh random salt. Two calls with
// the same password never produce the same output.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is empty", ErrInvalidInput)
	}
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	digest := argon2.IDKey([]byte(password), salt,
		h.params.Time, h.params.MemoryKiB, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	), nil
}

// Verify re-derives the digest using the parameters embedded in encoded and
// compares in constant time. A mismatch is (false, nil); only a structurally
// broken hash yields ErrInvalidHash.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	params, salt, digest, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}
	candidate := argon2.IDKey([]byte(password), salt,
		params.Time, params.MemoryKiB, params.Parallelism, uint32(len(digest)))
	return subtle.ConstantTimeCompare(candidate, digest) == 1, nil
}

func decodeHash(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrInvalidHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Params{}, nil, nil, ErrInvalidHash
	}
	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.MemoryKiB, &p.Time, &p.Parallelism); err != nil {
		return Params{}, nil, nil, ErrInvalidHash
	}
	if p.Time == 0 || p.Time > maxVerifyTime || p.MemoryKiB == 0 || p.MemoryKiB > maxVerifyMemoryKiB || p.Parallelism == 0 {
		return Params{}, nil, nil, ErrInvalidHash
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return Params{}, nil, nil, ErrInvalidHash
	}
	digest, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(digest) == 0 {
		return Params{}, nil, nil, ErrInvalidHash
	}
	return p, salt, digest, nil
}
