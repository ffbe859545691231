package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "valid password", password: "validpassword123"},
		{name: "password too short", password: "short", wantErr: ErrPasswordTooShort},
		{name: "password at minimum length", password: "123456789012"},
		{name: "password too long", password: strings.Repeat("a", 73), wantErr: ErrPasswordTooLong},
		{name: "password at maximum length", password: strings.Repeat("a", 72)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password, bcrypt.MinCost)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, hash)
		})
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NoError(t, CheckPassword("correct horse battery", hash))
	assert.ErrorIs(t, CheckPassword("wrong horse battery", hash), ErrInvalidPassword)
}

func TestNewCredentials(t *testing.T) {
	creds, err := NewCredentials("listening-all-day", bcrypt.MinCost)
	require.NoError(t, err)

	assert.Regexp(t, `^[0-9A-Za-z]{40,}$`, creds.Token)
	assert.Equal(t, HashToken(creds.Token), creds.TokenHash)
	assert.NotEqual(t, creds.Token, creds.TokenHash)
	assert.NoError(t, CheckPassword("listening-all-day", creds.PasswordHash))

	other, err := NewCredentials("listening-all-day", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, creds.Token, other.Token)
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("alice"))
	assert.ErrorIs(t, ValidateUsername(""), ErrInvalidUsername)
	assert.ErrorIs(t, ValidateUsername("alice smith"), ErrInvalidUsername)
	assert.ErrorIs(t, ValidateUsername(strings.Repeat("a", 101)), ErrInvalidUsername)
}
