// Package users provides database operations for user management.
//
// # Usage
//
//	repo := users.NewRepository(db, cfg.Auth.BcryptCost)
//	user, token, err := repo.Create(ctx, "alice", password, entities.RoleUser)
package users

import (
	"context"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/earshelf/earshelf/internal/auth"
	"github.com/earshelf/earshelf/internal/database"
	"github.com/earshelf/earshelf/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db         *gorm.DB
	bcryptCost int
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB, bcryptCost int) *Repository {
	return &Repository{db: db, bcryptCost: bcryptCost}
}

// Create adds a user and returns it with the plaintext API token. The token
// is not stored and cannot be recovered later.
func (r *Repository) Create(ctx context.Context, username, password string, role entities.Role) (*entities.User, string, error) {
	if err := auth.ValidateUsername(username); err != nil {
		return nil, "", err
	}
	if role == "" {
		role = entities.RoleUser
	}
	if !role.Valid() {
		return nil, "", fmt.Errorf("unknown role %q", role)
	}

	creds, err := auth.NewCredentials(password, r.bcryptCost)
	if err != nil {
		return nil, "", err
	}

	user := &entities.User{
		Username:     username,
		PasswordHash: creds.PasswordHash,
		Role:         role,
		APITokenHash: &creds.TokenHash,
	}
	err = database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, "", database.Classify("users.create", err)
	}
	return user, creds.Token, nil
}

// GetByID retrieves a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.User, error) {
	return r.getOne(ctx, "users.get", "id = ?", id)
}

// GetByUsername retrieves a user by username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.getOne(ctx, "users.get_by_username", "username = ?", username)
}

// GetByToken retrieves the user owning a plaintext API token.
func (r *Repository) GetByToken(ctx context.Context, token string) (*entities.User, error) {
	return r.getOne(ctx, "users.get_by_token", "api_token_hash = ?", auth.HashToken(token))
}

func (r *Repository) getOne(ctx context.Context, op string, query string, arg any) (*entities.User, error) {
	user, err := database.FindOne[entities.User](r.db.WithContext(ctx), query, arg)
	if err != nil {
		return nil, database.Classify(op, err)
	}
	if user == nil {
		return nil, database.NotFound(op, "user")
	}
	return user, nil
}

// UpdatePreferences replaces the user's preference map.
func (r *Repository) UpdatePreferences(ctx context.Context, id uint, prefs entities.Preferences) (*entities.User, error) {
	const op = "users.update_preferences"
	var user *entities.User
	err := database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		var err error
		user, err = database.FindOne[entities.User](tx, "id = ?", id)
		if err != nil {
			return err
		}
		if user == nil {
			return database.NotFound(op, "user %d", id)
		}
		user.Preferences = datatypes.NewJSONType(prefs)
		return tx.Model(user).Update("preferences", user.Preferences).Error
	})
	if err != nil {
		return nil, database.Classify(op, err)
	}
	return user, nil
}

// RotateToken issues a new API token, invalidating the old one.
func (r *Repository) RotateToken(ctx context.Context, id uint) (string, error) {
	token, hash, err := auth.GenerateAPIToken()
	if err != nil {
		return "", err
	}
	result := r.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", id).Update("api_token_hash", hash)
	if result.Error != nil {
		return "", database.Classify("users.rotate_token", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", database.NotFound("users.rotate_token", "user %d", id)
	}
	return token, nil
}
