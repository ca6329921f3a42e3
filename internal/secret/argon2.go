// Package secret hashes and verifies short secrets (cancel PINs, device keys)
// with argon2id and a random per-value salt.
package secret

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidHash         = errors.New("secret: invalid hash format")
	ErrIncompatibleVersion = errors.New("secret: incompatible argon2 version")
	// ErrMismatch is returned when the secret does not match the hash.
	ErrMismatch = errors.New("secret: mismatch")
)

type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher hashes secrets with fixed argon2id parameters. Verification reads the
// parameters back from the encoded hash, so hashes made with older parameters
// keep verifying.
type Hasher struct {
	params Argon2idParams
}

// NewHasher returns a Hasher using params.
func NewHasher(params Argon2idParams) *Hasher {
	return &Hasher{params: params}
}

// Hash encodes raw as $argon2id$v=19$m=...,t=...,p=...$salt$hash.
func (h *Hasher) Hash(raw string) (string, error) {
	params := h.params
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("secret: read salt: %w", err)
	}

	key := argon2.IDKey([]byte(raw), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Key := base64.RawStdEncoding.EncodeToString(key)

	format := "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s"
	return fmt.Sprintf(format, argon2.Version, params.Memory, params.Iterations, params.Parallelism, b64Salt, b64Key), nil
}

// Verify checks raw against an encoded hash in constant time. It returns
// ErrMismatch for a wrong secret and ErrInvalidHash for a malformed hash.
func (h *Hasher) Verify(encoded, raw string) error {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return ErrInvalidHash
	}
	if version != argon2.Version {
		return ErrIncompatibleVersion
	}

	var params Argon2idParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return ErrInvalidHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return ErrInvalidHash
	}

	got := argon2.IDKey([]byte(raw), salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(want)))
	if subtle.ConstantTimeCompare(want, got) == 1 {
		return nil
	}
	return ErrMismatch
}

// NewDeviceKey returns a random URL-safe device key of n random bytes.
func NewDeviceKey(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("secret: read key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
