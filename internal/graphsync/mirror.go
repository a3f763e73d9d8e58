// Package graphsync mirrors people and relationships into Neo4j so they can
// be explored with Cypher. The relational store stays authoritative.
package graphsync

import (
	"context"
	"fmt"
	"time"

	"peoplenet/internal/core"
	"peoplenet/pkg/domain"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var _ core.GraphMirror = (*Mirror)(nil)

const (
	cypherSchema = `CREATE CONSTRAINT person_id IF NOT EXISTS FOR (p:Person) REQUIRE p.id IS UNIQUE`

	cypherUpsertPerson = `MERGE (p:Person {id: $id})
SET p.name = $name, p.group = $group, p.email = $email, p.phone = $phone, p.dob = $dob`

	cypherDeletePerson = `MATCH (p:Person {id: $id}) DETACH DELETE p`

	cypherUpsertRelationship = `MERGE (a:Person {id: $from})
MERGE (b:Person {id: $to})
MERGE (a)-[r:RELATED {id: $id}]->(b)
SET r.type = $type`

	cypherDeleteRelationship = `MATCH ()-[r:RELATED {id: $id}]->() DELETE r`

	cypherReset = `MATCH (p:Person) DETACH DELETE p`
)

// Runner executes a single write statement.
type Runner interface {
	Write(ctx context.Context, cypher string, params map[string]any) error
	Close(ctx context.Context) error
}

// Config addresses a Neo4j server.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// Mirror implements core.GraphMirror on a Runner.
type Mirror struct {
	runner Runner
}

// NewMirror wraps runner.
func NewMirror(runner Runner) *Mirror {
	return &Mirror{runner: runner}
}

// Dial connects to Neo4j, verifies connectivity and ensures the person id
// constraint exists.
func Dial(ctx context.Context, cfg Config) (*Mirror, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connect to neo4j: %w", err)
	}
	m := NewMirror(&driverRunner{driver: driver, database: cfg.Database})
	if err := m.EnsureSchema(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}
	return m, nil
}

// EnsureSchema creates the uniqueness constraint on Person.id.
func (m *Mirror) EnsureSchema(ctx context.Context) error {
	if err := m.runner.Write(ctx, cypherSchema, nil); err != nil {
		return fmt.Errorf("ensure neo4j schema: %w", err)
	}
	return nil
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func (m *Mirror) UpsertPerson(ctx context.Context, p domain.Person) error {
	return m.runner.Write(ctx, cypherUpsertPerson, map[string]any{
		"id":    p.ID,
		"name":  p.Name,
		"group": p.Group(),
		"email": optional(p.Email),
		"phone": optional(p.Phone),
		"dob":   optional(p.DOB),
	})
}

func (m *Mirror) DeletePerson(ctx context.Context, id int64) error {
	return m.runner.Write(ctx, cypherDeletePerson, map[string]any{"id": id})
}

func (m *Mirror) UpsertRelationship(ctx context.Context, r domain.Relationship) error {
	return m.runner.Write(ctx, cypherUpsertRelationship, map[string]any{
		"id":   r.ID,
		"from": r.PersonID,
		"to":   r.RelatedPersonID,
		"type": r.RelationshipType,
	})
}

func (m *Mirror) DeleteRelationship(ctx context.Context, id int64) error {
	return m.runner.Write(ctx, cypherDeleteRelationship, map[string]any{"id": id})
}

func (m *Mirror) Reset(ctx context.Context) error {
	return m.runner.Write(ctx, cypherReset, nil)
}

// Close releases the underlying driver.
func (m *Mirror) Close(ctx context.Context) error {
	return m.runner.Close(ctx)
}

type driverRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

func (r *driverRunner) Write(ctx context.Context, cypher string, params map[string]any) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: r.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer func() { _ = session.Close(ctx) }()

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}

func (r *driverRunner) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}
