package database

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migration is one versioned schema change.
type Migration struct {
	Version     string
	Description string
	SQL         string
}

// MigrationManager applies migrations and checks the resulting schema.
type MigrationManager struct {
	db     *sql.DB
	source fs.FS
}

// NewMigrationManager uses the migrations compiled into the binary.
func NewMigrationManager(db *sql.DB) *MigrationManager {
	return &MigrationManager{db: db, source: embeddedMigrations}
}

// NewMigrationManagerFS reads migrations from source instead, e.g. fstest.MapFS.
func NewMigrationManagerFS(db *sql.DB, source fs.FS) *MigrationManager {
	return &MigrationManager{db: db, source: source}
}

// ApplyMigrations applies every migration not yet recorded, in version order,
// each in its own transaction.
func (m *MigrationManager) ApplyMigrations() error {
	if err := m.createMigrationTable(); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}

	migrations, err := m.LoadMigrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	applied, err := m.AppliedVersions()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range migrations {
		if applied[migration.Version] {
			continue
		}
		if err := m.applyMigration(migration); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
		}
	}
	return nil
}

// ValidateSchema checks that the audit tables and their indexes exist.
func (m *MigrationManager) ValidateSchema() error {
	for _, table := range []string{"chat_messages", "game_results", "schema_migrations"} {
		exists, err := m.objectExists("table", table)
		if err != nil {
			return fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if !exists {
			return fmt.Errorf("required table %s does not exist", table)
		}
	}

	for _, index := range []string{"idx_chat_messages_created", "idx_game_results_finished"} {
		exists, err := m.objectExists("index", index)
		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", index, err)
		}
		if !exists {
			return fmt.Errorf("required index %s does not exist", index)
		}
	}
	return nil
}

// LoadMigrations reads every .sql file, sorted by version. File names look
// like "001_initial_schema.sql".
func (m *MigrationManager) LoadMigrations() ([]Migration, error) {
	paths, err := fs.Glob(m.source, "migrations/*.sql")
	if err != nil {
		return nil, err
	}

	migrations := make([]Migration, 0, len(paths))
	for _, p := range paths {
		content, err := fs.ReadFile(m.source, p)
		if err != nil {
			return nil, err
		}

		name := strings.TrimSuffix(path.Base(p), ".sql")
		version, description, _ := strings.Cut(name, "_")
		migrations = append(migrations, Migration{
			Version:     version,
			Description: description,
			SQL:         string(content),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// AppliedVersions returns the set of recorded migration versions.
func (m *MigrationManager) AppliedVersions() (map[string]bool, error) {
	rows, err := m.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	versions := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		versions[version] = true
	}
	return versions, rows.Err()
}

func (m *MigrationManager) createMigrationTable() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func (m *MigrationManager) applyMigration(migration Migration) error {
	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(migration.SQL); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", migration.Version); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *MigrationManager) objectExists(kind, name string) (bool, error) {
	var count int
	err := m.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?",
		kind, name,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
