package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS users (
					id TEXT PRIMARY KEY,
					email TEXT NOT NULL DEFAULT '',
					display_name TEXT NOT NULL DEFAULT '',
					photo_ref TEXT NOT NULL DEFAULT '',
					total_points INTEGER NOT NULL DEFAULT 0 CHECK (total_points >= 0),
					level TEXT NOT NULL DEFAULT 'Bronze',
					total_scan_count INTEGER NOT NULL DEFAULT 0 CHECK (total_scan_count >= 0),
					total_waste_kg REAL NOT NULL DEFAULT 0 CHECK (total_waste_kg >= 0),
					joined_at DATETIME NOT NULL,
					last_active_at DATETIME NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS scan_history (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					scanned_at DATETIME NOT NULL,
					is_waste INTEGER NOT NULL,
					category TEXT NOT NULL,
					item_name TEXT NOT NULL,
					price_per_kg REAL NOT NULL DEFAULT 0,
					handling_suggestion TEXT NOT NULL DEFAULT '',
					confidence_score REAL NOT NULL DEFAULT 0,
					analysis_detail TEXT NOT NULL DEFAULT '',
					weight_kg REAL NOT NULL CHECK (weight_kg > 0),
					location_address TEXT,
					location_city TEXT,
					location_province TEXT,
					latitude REAL,
					longitude REAL,
					image_ref TEXT NOT NULL DEFAULT '',
					processing_status TEXT NOT NULL DEFAULT 'Pending',
					note TEXT NOT NULL DEFAULT '',
					expanded_suggestion TEXT NOT NULL DEFAULT '',
					points_earned INTEGER NOT NULL DEFAULT 0,
					FOREIGN KEY (user_id) REFERENCES users(id)
				)`,
				`CREATE INDEX idx_scan_history_user ON scan_history(user_id, scanned_at)`,
				`CREATE INDEX idx_scan_history_category ON scan_history(category)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add point ledger",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS point_transactions (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					scan_id TEXT,
					created_at DATETIME NOT NULL,
					kind TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					points_before INTEGER NOT NULL,
					points_change INTEGER NOT NULL,
					points_after INTEGER NOT NULL,
					FOREIGN KEY (user_id) REFERENCES users(id)
				)`,
				`CREATE INDEX idx_point_transactions_user ON point_transactions(user_id, created_at)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add waste bank directory",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS waste_banks (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				address TEXT NOT NULL DEFAULT '',
				latitude REAL NOT NULL,
				longitude REAL NOT NULL,
				phone TEXT NOT NULL DEFAULT '',
				whatsapp TEXT NOT NULL DEFAULT '',
				email TEXT NOT NULL DEFAULT '',
				opens_at TEXT NOT NULL DEFAULT '',
				closes_at TEXT NOT NULL DEFAULT '',
				closed_days TEXT NOT NULL DEFAULT '[]',
				materials TEXT NOT NULL DEFAULT '[]',
				purchase_prices TEXT NOT NULL DEFAULT '{}',
				rating REAL NOT NULL DEFAULT 0,
				total_transactions INTEGER NOT NULL DEFAULT 0,
				verified INTEGER NOT NULL DEFAULT 0
			)`)
			if err != nil {
				return fmt.Errorf("failed to create waste_banks: %w", err)
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
