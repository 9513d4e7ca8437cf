// Package migration applies versioned SQL migrations to a SQLite database.
//
// Migration files are named {version}_{description}.sql (for example
// "001_create_catalog.sql") and are read from an fs.FS, usually an embedded
// directory. Applied versions and their checksums are tracked in the
// schema_migrations table; each migration runs in its own transaction together
// with its bookkeeping row.
//
// Example usage:
//
//	manager := migration.NewManager(migration.NewScanner(files, "migrations"), migration.NewExecutor(db), logger)
//	if _, err := manager.Run(ctx); err != nil {
//		return err
//	}
package migration
