// Package sqlite provides the embedded SQLite-backed store (modernc.org/sqlite,
// pure Go). It applies the embedded schema on open and enforces foreign keys.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"peoplenet/internal/entitymodel/sqlbundle"
	"peoplenet/internal/infra/persistence/sqlstore"
	"peoplenet/pkg/domain"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	defaultPath = "peoplenet.db"
	// MemoryPath opens a private in-memory database.
	MemoryPath = ":memory:"
)

// Store is the SQLite flavour of the shared SQL store.
type Store struct {
	*sqlstore.Store
	path string
}

// NewStore opens (creating if needed) the database at path and applies the
// schema. An empty path falls back to ./peoplenet.db.
func NewStore(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serialises writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	var foreignKeys int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("verify foreign keys: %w", err)
	}
	if foreignKeys != 1 {
		_ = db.Close()
		return nil, fmt.Errorf("foreign keys not enabled")
	}

	inner, err := sqlstore.New(ctx, db, Dialect(), sqlbundle.SQLite())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Store: inner, path: path}, nil
}

func dsn(path string) string {
	pragmas := []string{"_pragma=foreign_keys(1)", "_pragma=busy_timeout(5000)"}
	if path != MemoryPath {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	return "file:" + path + "?" + strings.Join(pragmas, "&")
}

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Dialect returns the SQLite dialect used by the shared SQL store.
func Dialect() sqlstore.Dialect {
	return sqlstore.Dialect{Name: "sqlite", Classify: classify}
}

func classify(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return nil
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return domain.ErrConflict
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return domain.ErrInvalidReference
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return domain.NewValidationError("cannot relate a person to themselves")
	}
	return nil
}
