// Package sqlstore implements domain.Store on database/sql. Dialect-specific
// packages (sqlite, postgres) supply the driver, schema, and error mapping.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"peoplenet/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.Store = (*Store)(nil)

// Dialect captures what differs between SQL backends.
type Dialect struct {
	Name string
	// NumberedPlaceholders rewrites '?' into $1, $2, ... for backends that need it.
	NumberedPlaceholders bool
	// Classify maps a driver error to a domain error (ErrConflict,
	// ErrInvalidReference) or returns nil when the error is not a constraint
	// violation.
	Classify func(err error) error
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store persists people and relationships in two relational tables.
type Store struct {
	repo
	db *sql.DB
}

// New applies schema to db and returns a store over it.
func New(ctx context.Context, db *sql.DB, dialect Dialect, schema []string) (*Store, error) {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("execute ddl: %w", err)
		}
	}
	return &Store{repo: repo{q: db, d: dialect}, db: db}, nil
}

// RunInTransaction executes fn inside a database transaction, committing when
// fn returns nil and rolling back otherwise.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) && retErr == nil {
				retErr = fmt.Errorf("rollback: %w", rbErr)
			}
		}
	}()
	if err := fn(&repo{q: tx, d: s.d}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// Health verifies the database answers queries.
func (s *Store) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", s.d.Name, err)
	}
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("query %s: %w", s.d.Name, err)
	}
	return nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

type repo struct {
	q querier
	d Dialect
}

func (r *repo) bind(query string) string {
	if !r.d.NumberedPlaceholders {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (r *repo) classify(err error) error {
	if r.d.Classify == nil {
		return err
	}
	if mapped := r.d.Classify(err); mapped != nil {
		return fmt.Errorf("%w: %v", mapped, err)
	}
	return err
}

const personColumns = "id, name, dob, phone, email, notes, group_tag"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (domain.Person, error) {
	var (
		p                        domain.Person
		dob, phone, email, notes sql.NullString
		groupTag                 sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Name, &dob, &phone, &email, &notes, &groupTag); err != nil {
		return domain.Person{}, err
	}
	p.DOB = nullable(dob)
	p.Phone = nullable(phone)
	p.Email = nullable(email)
	p.Notes = nullable(notes)
	p.GroupTag = groupTag.String
	return p, nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func (r *repo) ListPeople(ctx context.Context) ([]domain.Person, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT "+personColumns+" FROM people ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("select people: %w", err)
	}
	defer func() { _ = rows.Close() }()
	people := make([]domain.Person, 0)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate people: %w", err)
	}
	return people, nil
}

func (r *repo) GetPerson(ctx context.Context, id int64) (domain.Person, error) {
	row := r.q.QueryRowContext(ctx, r.bind("SELECT "+personColumns+" FROM people WHERE id = ?"), id)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Person{}, domain.ErrNotFound{Entity: domain.EntityPerson, ID: id}
	}
	if err != nil {
		return domain.Person{}, fmt.Errorf("select person %d: %w", id, err)
	}
	return p, nil
}

func (r *repo) CreatePerson(ctx context.Context, p domain.Person) (domain.Person, error) {
	var id int64
	err := r.q.QueryRowContext(ctx,
		r.bind(`INSERT INTO people (name, dob, phone, email, notes, group_tag) VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		p.Name, p.DOB, p.Phone, p.Email, p.Notes, domain.GroupOrDefault(p.GroupTag),
	).Scan(&id)
	if err != nil {
		return domain.Person{}, fmt.Errorf("insert person: %w", r.classify(err))
	}
	return r.GetPerson(ctx, id)
}

func (r *repo) UpdatePerson(ctx context.Context, p domain.Person) (domain.Person, error) {
	res, err := r.q.ExecContext(ctx,
		r.bind(`UPDATE people SET name = ?, dob = ?, phone = ?, email = ?, notes = ?, group_tag = ? WHERE id = ?`),
		p.Name, p.DOB, p.Phone, p.Email, p.Notes, domain.GroupOrDefault(p.GroupTag), p.ID,
	)
	if err != nil {
		return domain.Person{}, fmt.Errorf("update person %d: %w", p.ID, r.classify(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.Person{}, domain.ErrNotFound{Entity: domain.EntityPerson, ID: p.ID}
	}
	return r.GetPerson(ctx, p.ID)
}

func (r *repo) DeletePerson(ctx context.Context, id int64) error {
	if _, err := r.q.ExecContext(ctx, r.bind("DELETE FROM people WHERE id = ?"), id); err != nil {
		return fmt.Errorf("delete person %d: %w", id, err)
	}
	return nil
}

func (r *repo) ListRelationships(ctx context.Context) ([]domain.Relationship, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT id, person_id, related_person_id, relationship_type FROM relationships ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("select relationships: %w", err)
	}
	defer func() { _ = rows.Close() }()
	rels := make([]domain.Relationship, 0)
	for rows.Next() {
		var rel domain.Relationship
		if err := rows.Scan(&rel.ID, &rel.PersonID, &rel.RelatedPersonID, &rel.RelationshipType); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		rels = append(rels, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relationships: %w", err)
	}
	return rels, nil
}

func (r *repo) CreateRelationship(ctx context.Context, rel domain.Relationship) (domain.Relationship, error) {
	err := r.q.QueryRowContext(ctx,
		r.bind(`INSERT INTO relationships (person_id, related_person_id, relationship_type) VALUES (?, ?, ?) RETURNING id`),
		rel.PersonID, rel.RelatedPersonID, rel.RelationshipType,
	).Scan(&rel.ID)
	if err != nil {
		return domain.Relationship{}, fmt.Errorf("insert relationship: %w", r.classify(err))
	}
	return rel, nil
}

func (r *repo) DeleteRelationship(ctx context.Context, id int64) error {
	if _, err := r.q.ExecContext(ctx, r.bind("DELETE FROM relationships WHERE id = ?"), id); err != nil {
		return fmt.Errorf("delete relationship %d: %w", id, err)
	}
	return nil
}

const linkSelect = `SELECT r.id, r.person_id, r.related_person_id, r.relationship_type, p.id, p.name, p.group_tag
FROM relationships r
JOIN people p ON p.id = r.%s
WHERE r.%s = ?
ORDER BY r.id`

func (r *repo) Outbound(ctx context.Context, personID int64) ([]domain.Link, error) {
	return r.links(ctx, fmt.Sprintf(linkSelect, "related_person_id", "person_id"), personID)
}

func (r *repo) Inbound(ctx context.Context, personID int64) ([]domain.Link, error) {
	return r.links(ctx, fmt.Sprintf(linkSelect, "person_id", "related_person_id"), personID)
}

func (r *repo) links(ctx context.Context, query string, personID int64) ([]domain.Link, error) {
	rows, err := r.q.QueryContext(ctx, r.bind(query), personID)
	if err != nil {
		return nil, fmt.Errorf("select links for %d: %w", personID, err)
	}
	defer func() { _ = rows.Close() }()
	links := make([]domain.Link, 0)
	for rows.Next() {
		var (
			l     domain.Link
			group sql.NullString
		)
		if err := rows.Scan(
			&l.Relationship.ID, &l.Relationship.PersonID, &l.Relationship.RelatedPersonID, &l.Relationship.RelationshipType,
			&l.Counterpart.ID, &l.Counterpart.Name, &group,
		); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		l.Counterpart.GroupTag = group.String
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return links, nil
}

func (r *repo) Reset(ctx context.Context) error {
	for _, stmt := range []string{"DELETE FROM relationships", "DELETE FROM people"} {
		if _, err := r.q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	return nil
}
