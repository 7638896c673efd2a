//go:build sqlite
// +build sqlite

package store

import (
	"database/sql"
	"embed"
	"errors"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// sqliteBackend stores the mapping in a single-table SQLite database. Save
// rewrites the table in one transaction so it stays a full snapshot, same as
// the file backend.
type sqliteBackend struct {
	db *sql.DB
}

func newSQLiteBackend(path string) (Backend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(string(b)); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteBackend{db: db}, nil
}

func (s *sqliteBackend) Load() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT tenant_id, target_id FROM channel_bindings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m := map[string]string{}
	for rows.Next() {
		var tenant, target string
		if err := rows.Scan(&tenant, &target); err != nil {
			return nil, err
		}
		m[tenant] = target
	}
	return m, rows.Err()
}

func (s *sqliteBackend) Save(bindings map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM channel_bindings`); err != nil {
		return err
	}
	for tenant, target := range bindings {
		if _, err := tx.Exec(`INSERT INTO channel_bindings(tenant_id, target_id) VALUES(?, ?)`, tenant, target); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteBackend) Close() error { return s.db.Close() }
