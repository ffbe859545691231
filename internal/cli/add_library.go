package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/earshelf/earshelf/internal/config"
	"github.com/earshelf/earshelf/internal/database/libraries"
)

// AddLibraryCommand registers a folder of audiobooks.
type AddLibraryCommand struct {
	Name         string
	RootPath     string
	ScanInterval int
	DatabaseURL  string
}

func NewAddLibraryCommand() *AddLibraryCommand {
	return &AddLibraryCommand{}
}

func (cmd *AddLibraryCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("add-library", flag.ExitOnError)

	fs.StringVar(&cmd.Name, "name", "", "Display name of the library (required)")
	fs.StringVar(&cmd.RootPath, "path", "", "Root folder holding one folder per book (required)")
	fs.IntVar(&cmd.ScanInterval, "scan-interval", libraries.DefaultScanIntervalMinutes, "Minutes between rescans")
	fs.StringVar(&cmd.DatabaseURL, "db", config.NewConfig().Database.URL, "Database file path or postgres:// URL")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s add-library -name <name> -path <dir> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Register an audiobook library.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Name == "" {
		return fmt.Errorf("required flag -name not provided")
	}
	if cmd.RootPath == "" {
		return fmt.Errorf("required flag -path not provided")
	}
	return nil
}

func (cmd *AddLibraryCommand) Run() error {
	if info, err := os.Stat(cmd.RootPath); err != nil || !info.IsDir() {
		return fmt.Errorf("library path %s is not a directory", cmd.RootPath)
	}

	store, err := openDatabase(cmd.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	library, err := libraries.NewRepository(store.DB).Create(context.Background(), cmd.Name, cmd.RootPath, cmd.ScanInterval)
	if err != nil {
		return fmt.Errorf("failed to add library: %w", err)
	}

	successf("Added library %q (id %d)", library.Name, library.ID)
	detailf("%s, rescanned every %d minutes", library.RootPath, library.ScanIntervalMinutes)
	return nil
}
