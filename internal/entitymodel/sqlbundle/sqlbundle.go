// Package sqlbundle hands the embedded schema scripts to store adapters as
// individually executable statements.
package sqlbundle

import (
	"strings"

	sqldocs "peoplenet/docs/schema/sql"
)

// SQLite returns the SQLite schema statements.
func SQLite() []string {
	return SplitStatements(sqldocs.SQLite)
}

// Postgres returns the PostgreSQL schema statements.
func Postgres() []string {
	return SplitStatements(sqldocs.Postgres)
}

// SplitStatements breaks a script into statements on semicolons that sit
// outside single-quoted literals. "--" comments run to end of line and are
// dropped. The returned statements carry no trailing semicolon.
func SplitStatements(script string) []string {
	var (
		stmts   []string
		current strings.Builder
		quoted  bool
	)
	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			stmts = append(stmts, stmt)
		}
		current.Reset()
	}

	for i := 0; i < len(script); i++ {
		c := script[i]
		switch {
		case quoted:
			current.WriteByte(c)
			if c == '\'' {
				quoted = false
			}
		case c == '\'':
			quoted = true
			current.WriteByte(c)
		case c == '-' && i+1 < len(script) && script[i+1] == '-':
			for i < len(script) && script[i] != '\n' {
				i++
			}
			current.WriteByte('\n')
		case c == ';':
			flush()
		default:
			current.WriteByte(c)
		}
	}
	flush()
	return stmts
}
