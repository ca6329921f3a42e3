// Package migration applies versioned SQL schema files to the reservation
// database.
//
// Schema files are embedded per dialect under sql/{dialect}/ and follow the
// naming convention {version}_{description}.sql (e.g. "001_initial_schema.sql").
// Each file runs in its own transaction and is recorded in the
// schema_migrations table in that same transaction, so a failed file leaves no
// trace.
//
// Example usage:
//
//	manager, err := migration.NewManager(db, "sqlite", logger)
//	if err != nil {
//		return err
//	}
//	if err := manager.Run(ctx); err != nil {
//		return fmt.Errorf("migrate: %w", err)
//	}
package migration
