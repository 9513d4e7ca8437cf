package migration

import "time"

// Migration is a versioned SQL script.
type Migration struct {
	Version     string // numeric version from the file name, e.g. "001"
	Description string
	SQL         string
	FilePath    string
	Checksum    string // hex SHA-256 of SQL
}

// AppliedMigration is a row of the schema_migrations table.
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// Status summarises the migration state of a database.
type Status struct {
	CurrentVersion string
	Applied        []AppliedMigration
	Pending        []Migration
}
