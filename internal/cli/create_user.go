package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/earshelf/earshelf/internal/config"
	"github.com/earshelf/earshelf/internal/database"
	"github.com/earshelf/earshelf/internal/database/users"
	"github.com/earshelf/earshelf/internal/entities"
)

// CreateUserCommand creates an account and prints its API token.
type CreateUserCommand struct {
	Username    string
	Password    string
	Admin       bool
	DatabaseURL string

	bcryptCost int
}

func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	cfg := config.NewConfig()
	cmd.bcryptCost = cfg.Auth.BcryptCost

	fs := flag.NewFlagSet("create-user", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username for the new account (required)")
	fs.StringVar(&cmd.Password, "password", os.Getenv("EARSHELF_PASSWORD"), "Password, at least 12 characters (or set EARSHELF_PASSWORD)")
	fs.BoolVar(&cmd.Admin, "admin", false, "Grant the admin role")
	fs.StringVar(&cmd.DatabaseURL, "db", cfg.Database.URL, "Database file path or postgres:// URL")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -username <name> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a user and print the API token players authenticate with.\n")
		fmt.Fprintf(os.Stderr, "The token is shown once; only its hash is stored.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		return fmt.Errorf("required flag -username not provided")
	}
	if cmd.Password == "" {
		return fmt.Errorf("required flag -password not provided")
	}
	return nil
}

func (cmd *CreateUserCommand) Run() error {
	store, err := openDatabase(cmd.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	role := entities.RoleUser
	if cmd.Admin {
		role = entities.RoleAdmin
	}

	repo := users.NewRepository(store.DB, cmd.bcryptCost)
	user, token, err := repo.Create(context.Background(), cmd.Username, cmd.Password, role)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	successf("Created %s user %q (id %d)", user.Role, user.Username, user.ID)
	fmt.Printf("%sAPI token: %s\n", indent, token)
	warnf("The token is not stored and cannot be shown again")
	return nil
}

func openDatabase(url string) (*database.Database, error) {
	cfg := config.NewConfig().Database
	cfg.URL = url
	cfg.Quiet = true

	store, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}
