package config

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is read on startup when ENV_FILE is not set.
const DefaultEnvFile = ".env"

// loadEnvFile copies KEY=value pairs from the env file into the process
// environment. Variables already set win over the file.
func loadEnvFile() {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Failed to read env file %s: %v", path, err)
	}
}
