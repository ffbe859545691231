package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/earshelf/earshelf/internal/database/libraries"
	"github.com/earshelf/earshelf/internal/database/users"
	"github.com/earshelf/earshelf/internal/entities"
)

func TestCreateUserCommand_ParseFlags(t *testing.T) {
	t.Setenv("EARSHELF_PASSWORD", "")

	cmd := NewCreateUserCommand()
	assert.ErrorContains(t, cmd.ParseFlags([]string{"-password", "correct horse battery"}), "-username")

	cmd = NewCreateUserCommand()
	assert.ErrorContains(t, cmd.ParseFlags([]string{"-username", "alice"}), "-password")

	t.Setenv("EARSHELF_PASSWORD", "from the environment")
	cmd = NewCreateUserCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-username", "alice", "-admin"}))
	assert.Equal(t, "from the environment", cmd.Password)
	assert.True(t, cmd.Admin)
}

func TestCreateUserCommand_Run(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")

	cmd := NewCreateUserCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-username", "alice", "-password", "correct horse battery", "-admin", "-db", dbPath}))
	cmd.bcryptCost = bcrypt.MinCost
	require.NoError(t, cmd.Run())

	store, err := openDatabase(dbPath)
	require.NoError(t, err)
	defer store.Close()

	user, err := users.NewRepository(store.DB, bcrypt.MinCost).GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, entities.RoleAdmin, user.Role)
	assert.NotNil(t, user.APITokenHash)

	// Same username again is a conflict.
	assert.Error(t, cmd.Run())
}

func TestAddLibraryCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cli.db")

	cmd := NewAddLibraryCommand()
	assert.ErrorContains(t, cmd.ParseFlags([]string{"-path", dir}), "-name")

	cmd = NewAddLibraryCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-name", "Main", "-path", dir, "-db", dbPath}))
	assert.Equal(t, libraries.DefaultScanIntervalMinutes, cmd.ScanInterval)
	require.NoError(t, cmd.Run())

	cmd.RootPath = filepath.Join(dir, "missing")
	assert.ErrorContains(t, cmd.Run(), "not a directory")

	store, err := openDatabase(dbPath)
	require.NoError(t, err)
	defer store.Close()

	list, err := libraries.NewRepository(store.DB).List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Main", list[0].Name)
}
