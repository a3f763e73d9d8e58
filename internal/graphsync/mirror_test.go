package graphsync

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"peoplenet/internal/core"
	"peoplenet/internal/infra/persistence/memory"
	"peoplenet/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	cypher string
	params map[string]any
}

type recordingRunner struct {
	calls  []call
	err    error
	closed bool
}

func (r *recordingRunner) Write(_ context.Context, cypher string, params map[string]any) error {
	r.calls = append(r.calls, call{cypher: cypher, params: params})
	return r.err
}

func (r *recordingRunner) Close(context.Context) error {
	r.closed = true
	return nil
}

func (r *recordingRunner) statements() []string {
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, strings.Fields(c.cypher)[0]+" "+strings.Fields(c.cypher)[1])
	}
	return out
}

func TestUpsertPersonParams(t *testing.T) {
	runner := &recordingRunner{}
	m := NewMirror(runner)
	email := "amit@example.com"

	require.NoError(t, m.UpsertPerson(context.Background(), domain.Person{ID: 2, Name: "Amit", Email: &email}))
	require.Len(t, runner.calls, 1)
	got := runner.calls[0]
	assert.Equal(t, cypherUpsertPerson, got.cypher)
	assert.Equal(t, int64(2), got.params["id"])
	assert.Equal(t, "Amit", got.params["name"])
	assert.Equal(t, domain.DefaultGroupTag, got.params["group"])
	assert.Equal(t, "amit@example.com", got.params["email"])
	assert.Nil(t, got.params["phone"])
}

func TestRelationshipStatements(t *testing.T) {
	runner := &recordingRunner{}
	m := NewMirror(runner)
	ctx := context.Background()

	require.NoError(t, m.UpsertRelationship(ctx, domain.Relationship{ID: 5, PersonID: 1, RelatedPersonID: 2, RelationshipType: "Brother"}))
	require.NoError(t, m.DeleteRelationship(ctx, 5))
	require.NoError(t, m.DeletePerson(ctx, 1))
	require.NoError(t, m.Reset(ctx))
	require.NoError(t, m.Close(ctx))

	require.Len(t, runner.calls, 4)
	assert.Equal(t, map[string]any{"id": int64(5), "from": int64(1), "to": int64(2), "type": "Brother"}, runner.calls[0].params)
	assert.Contains(t, runner.calls[2].cypher, "DETACH DELETE")
	assert.True(t, runner.closed)
}

func TestEnsureSchemaWrapsError(t *testing.T) {
	m := NewMirror(&recordingRunner{err: errors.New("unavailable")})
	err := m.EnsureSchema(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ensure neo4j schema")
}

func TestServiceWritesReachMirror(t *testing.T) {
	runner := &recordingRunner{}
	svc := core.NewService(memory.NewStore(), core.WithGraphMirror(NewMirror(runner)))
	ctx := context.Background()

	res, err := svc.Seed(ctx, true)
	require.NoError(t, err)
	require.NoError(t, svc.DeletePerson(ctx, res.IDs["ravi"]))

	stmts := runner.statements()
	require.NotEmpty(t, stmts)
	assert.Equal(t, "MATCH (p:Person)", stmts[0], "seed --clear resets the mirror first")
	assert.Equal(t, "MATCH (p:Person", stmts[len(stmts)-1])
	merges := 0
	for _, s := range stmts {
		if strings.HasPrefix(s, "MERGE") {
			merges++
		}
	}
	assert.Equal(t, 7, merges, "four people and three relationships")
}

func TestMirrorFailureDoesNotFailWrites(t *testing.T) {
	svc := core.NewService(memory.NewStore(), core.WithGraphMirror(NewMirror(&recordingRunner{err: errors.New("down")})))
	p, err := svc.CreatePerson(context.Background(), domain.PersonInput{Name: domain.Some("Isha")})
	require.NoError(t, err)
	assert.Positive(t, p.ID)
}

func TestDialLive(t *testing.T) {
	uri := os.Getenv("PEOPLENET_TEST_NEO4J_URI")
	if uri == "" {
		t.Skip("PEOPLENET_TEST_NEO4J_URI not set")
	}
	ctx := context.Background()
	m, err := Dial(ctx, Config{URI: uri, Username: os.Getenv("PEOPLENET_TEST_NEO4J_USER"), Password: os.Getenv("PEOPLENET_TEST_NEO4J_PASSWORD")})
	require.NoError(t, err)
	defer func() { _ = m.Close(ctx) }()
	require.NoError(t, m.Reset(ctx))
	require.NoError(t, m.UpsertPerson(ctx, domain.Person{ID: 1, Name: "Pramod", GroupTag: "family"}))
}
