// Package sqldocs embeds the people/relationships DDL scripts shipped in the
// docs tree so stores and docs never drift apart.
package sqldocs

import _ "embed"

// SQLite is the schema applied by the embedded SQLite store.
//
//go:embed sqlite.sql
var SQLite string

// Postgres is the schema applied by the PostgreSQL store.
//
//go:embed postgres.sql
var Postgres string
