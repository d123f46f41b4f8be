package store

import (
	"context"
	"errors"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS platforms (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		base_url TEXT NOT NULL,
		profile_url_template TEXT NOT NULL,
		handle_regex TEXT,
		sort_order INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active',
		updated_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS handle_checks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		platform_id INTEGER NOT NULL REFERENCES platforms(id),
		handle TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT 'manual',
		status TEXT NOT NULL,
		profile_url TEXT,
		error_message TEXT,
		response_ms INTEGER,
		checked_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_handle_checks_handle ON handle_checks(handle);`,
	`CREATE INDEX IF NOT EXISTS idx_handle_checks_platform ON handle_checks(platform_id, checked_at);`,
	`CREATE TABLE IF NOT EXISTS suggested_handles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		platform_id INTEGER NOT NULL REFERENCES platforms(id),
		handle TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'suggested',
		source TEXT NOT NULL DEFAULT 'auto',
		created_at INTEGER NOT NULL,
		UNIQUE(platform_id, handle)
	);`,
}

// Migrate ensures the required database tables exist.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}

	return nil
}
