package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"os"
	"strings"
	"testing"

	"peoplenet/internal/infra/persistence/postgres/testutil"
	"peoplenet/internal/infra/persistence/storetest"
	"peoplenet/pkg/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreAppliesPostgresSchema(t *testing.T) {
	db, conn := testutil.NewStubDB()
	var gotDriver, gotDSN string
	restore := OverrideSQLOpen(func(driverName, dsn string) (*sql.DB, error) {
		gotDriver, gotDSN = driverName, dsn
		return db, nil
	})
	defer restore()

	store, err := NewStore(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.Equal(t, "pgx", gotDriver)
	assert.Equal(t, defaultDSN, gotDSN)
	require.Len(t, conn.Execs, 3)
	assert.Contains(t, conn.Execs[0], "CREATE TABLE IF NOT EXISTS people")
	assert.Contains(t, conn.Execs[1], "CREATE TABLE IF NOT EXISTS relationships")
}

func TestNewStoreOpenError(t *testing.T) {
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return nil, errors.New("boom") })
	defer restore()

	_, err := NewStore(context.Background(), "postgres://example")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open postgres")
}

func TestNewStorePingError(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()

	_, err := NewStore(context.Background(), "postgres://example")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping postgres")
}

func TestNewStoreDDLError(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailExec = true
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()

	_, err := NewStore(context.Background(), "postgres://example")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute ddl")
}

func TestQueriesUseNumberedPlaceholders(t *testing.T) {
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()
	store, err := NewStore(context.Background(), "")
	require.NoError(t, err)

	conn.Columns = []string{"id", "name", "dob", "phone", "email", "notes", "group_tag"}
	conn.Rows = [][]driver.Value{{int64(7), "Ravi", nil, nil, "ravi@work.com", nil, "colleague"}}
	p, err := store.GetPerson(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Ravi", p.Name)
	require.NotNil(t, p.Email)
	assert.Equal(t, "ravi@work.com", *p.Email)
	assert.Nil(t, p.DOB)

	last := conn.Queries[len(conn.Queries)-1]
	assert.True(t, strings.HasSuffix(last, "WHERE id = $1"), last)
}

func TestRunInTransactionCommitsAndRollsBack(t *testing.T) {
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()
	store, err := NewStore(context.Background(), "")
	require.NoError(t, err)

	require.NoError(t, store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		return tx.DeleteRelationship(context.Background(), 1)
	}))
	assert.Equal(t, 1, conn.Committed)

	boom := errors.New("boom")
	err = store.RunInTransaction(context.Background(), func(domain.Transaction) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, conn.RolledBak)
}

func TestClassifyConstraintViolations(t *testing.T) {
	assert.ErrorIs(t, classify(&pgconn.PgError{Code: codeUniqueViolation}), domain.ErrConflict)
	assert.ErrorIs(t, classify(&pgconn.PgError{Code: codeForeignKeyViolation}), domain.ErrInvalidReference)
	assert.True(t, domain.IsValidation(classify(&pgconn.PgError{Code: codeCheckViolation})))
	assert.Nil(t, classify(&pgconn.PgError{Code: "42P01"}))
	assert.Nil(t, classify(errors.New("plain")))
}

// TestStoreContract runs against a live database when PEOPLENET_TEST_POSTGRES_DSN is set.
func TestStoreContract(t *testing.T) {
	dsn := os.Getenv("PEOPLENET_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PEOPLENET_TEST_POSTGRES_DSN not set")
	}
	storetest.Run(t, func(t *testing.T) domain.Store {
		store, err := NewStore(context.Background(), dsn)
		require.NoError(t, err)
		require.NoError(t, store.Reset(context.Background()))
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}
