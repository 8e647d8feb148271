package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Hashed is the result of the secure (password) hash: the bcrypt output
// base64url-encoded for storage, plus the salt bcrypt embedded in it.
type Hashed struct {
	Hash string
	Salt string
}

// HashPassword runs the slow, salted password hash. The work factor is
// fixed at the library default; the salt is extracted from the bcrypt
// output and stored alongside the hash.
func HashPassword(password string) (Hashed, error) {
	if password == "" {
		return Hashed{}, errors.New("password is empty")
	}
	raw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Hashed{}, fmt.Errorf("hash password: %w", err)
	}
	salt, err := bcryptSalt(string(raw))
	if err != nil {
		return Hashed{}, err
	}
	return Hashed{
		Hash: base64.RawURLEncoding.EncodeToString(raw),
		Salt: salt,
	}, nil
}

// VerifyPassword recomputes the secure hash for candidate and compares it
// against the stored encoded hash. A mismatch is a false return, not an
// error; errors are reserved for decode and algorithm failures.
func VerifyPassword(candidate, storedHash string) (bool, error) {
	if storedHash == "" {
		return false, errors.New("password hash is empty")
	}
	raw, err := base64.RawURLEncoding.DecodeString(storedHash)
	if err != nil {
		return false, fmt.Errorf("decode password hash: %w", err)
	}
	switch err := bcrypt.CompareHashAndPassword(raw, []byte(candidate)); {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("verify password: %w", err)
	}
}

// NewSecret mints an opaque URL-safe bearer secret from 128 bits of random
// entropy. No work factor: the secret space, not computational cost, is the
// defense, and lookups must stay cheap.
func NewSecret() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString([]byte(id.String())), nil
}

// bcryptSalt pulls the 22-character salt out of a $2a$cost$saltHash string.
func bcryptSalt(hash string) (string, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 4 || len(parts[3]) < 22 {
		return "", errors.New("malformed bcrypt hash")
	}
	return parts[3][:22], nil
}
