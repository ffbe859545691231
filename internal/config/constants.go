package config

// Default paths for databases
const (
	// DefaultDatabaseURL is the default SQLite file for the library database
	DefaultDatabaseURL = "./earshelf.db"

	// DefaultTasksDatabasePath keeps the job queue out of the library database
	DefaultTasksDatabasePath = "./earshelf-tasks.db"
)
