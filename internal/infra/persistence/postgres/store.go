// Package postgres provides a PostgreSQL-backed store using pgx through
// database/sql. The schema is applied on startup.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"peoplenet/internal/entitymodel/sqlbundle"
	"peoplenet/internal/infra/persistence/sqlstore"
	"peoplenet/pkg/domain"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/peoplenet?sslmode=disable"
)

// SQLSTATE codes for the constraint violations the store translates.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store is the PostgreSQL flavour of the shared SQL store.
type Store struct {
	*sqlstore.Store
}

// NewStore opens a Postgres-backed store using dsn (falls back to defaultDSN),
// pings it and applies the schema.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	inner, err := sqlstore.New(ctx, db, Dialect(), sqlbundle.Postgres())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Store: inner}, nil
}

// Dialect returns the PostgreSQL dialect used by the shared SQL store.
func Dialect() sqlstore.Dialect {
	return sqlstore.Dialect{Name: "postgres", NumberedPlaceholders: true, Classify: classify}
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return domain.ErrConflict
	case codeForeignKeyViolation:
		return domain.ErrInvalidReference
	case codeCheckViolation:
		return domain.NewValidationError("cannot relate a person to themselves")
	}
	return nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
