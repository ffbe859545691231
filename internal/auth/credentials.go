package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/jxskiss/base62"
	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the minimum required password length (NIST recommendation).
	MinPasswordLength = 12
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes  = 72
	MaxUsernameLength = 100
)

var (
	ErrInvalidPassword  = errors.New("invalid password")
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length of 72 bytes")
	ErrInvalidUsername  = errors.New("username must be 1-100 characters without spaces")
)

// Credentials are what a new account stores, plus the one-time plaintext token.
type Credentials struct {
	PasswordHash string
	Token        string // shown once, never stored
	TokenHash    string
}

// NewCredentials hashes password and issues a fresh API token.
func NewCredentials(password string, cost int) (Credentials, error) {
	hash, err := HashPassword(password, cost)
	if err != nil {
		return Credentials{}, err
	}
	token, tokenHash, err := GenerateAPIToken()
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{PasswordHash: hash, Token: token, TokenHash: tokenHash}, nil
}

func ValidateUsername(username string) error {
	if username == "" || len(username) > MaxUsernameLength || strings.ContainsAny(username, " \t\r\n") {
		return ErrInvalidUsername
	}
	return nil
}

// HashPassword creates a bcrypt hash of the password.
func HashPassword(password string, cost int) (string, error) {
	switch {
	case len(password) < MinPasswordLength:
		return "", ErrPasswordTooShort
	case len(password) > maxPasswordBytes:
		return "", ErrPasswordTooLong
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a password with its hash.
func CheckPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidPassword
	}
	return err
}

// GenerateAPIToken returns a random base62 token and the digest to store for it.
func GenerateAPIToken() (plaintext string, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	plaintext = base62.StdEncoding.EncodeToString(buf)
	return plaintext, HashToken(plaintext), nil
}

// HashToken is the SHA-256 hex digest of an API token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
