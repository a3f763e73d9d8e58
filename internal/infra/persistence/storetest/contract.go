// Package storetest holds the behavioural contract every domain.Store backend
// must satisfy. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"

	"peoplenet/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store. It is called once per subtest.
type Factory func(t *testing.T) domain.Store

func strptr(s string) *string { return &s }

// Run exercises the store contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("PersonCRUD", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		created, err := s.CreatePerson(ctx, domain.Person{Name: "Pramod", Email: strptr("pramod@example.com"), GroupTag: domain.GroupFamily})
		require.NoError(t, err)
		require.Positive(t, created.ID)
		assert.Equal(t, "Pramod", created.Name)
		assert.Nil(t, created.Phone)
		require.NotNil(t, created.Email)
		assert.Equal(t, "pramod@example.com", *created.Email)

		defaulted, err := s.CreatePerson(ctx, domain.Person{Name: "Amit"})
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultGroupTag, defaulted.GroupTag)
		assert.Greater(t, defaulted.ID, created.ID)

		got, err := s.GetPerson(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)

		got.Phone = strptr("555-0100")
		got.Email = nil
		updated, err := s.UpdatePerson(ctx, got)
		require.NoError(t, err)
		require.NotNil(t, updated.Phone)
		assert.Equal(t, "555-0100", *updated.Phone)
		assert.Nil(t, updated.Email)

		people, err := s.ListPeople(ctx)
		require.NoError(t, err)
		require.Len(t, people, 2)
		assert.Equal(t, created.ID, people[0].ID)
		assert.Equal(t, defaulted.ID, people[1].ID)
	})

	t.Run("MissingPerson", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		_, err := s.GetPerson(ctx, 42)
		var nf domain.ErrNotFound
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, domain.EntityPerson, nf.Entity)
		assert.Equal(t, int64(42), nf.ID)

		_, err = s.UpdatePerson(ctx, domain.Person{ID: 42, Name: "Ghost"})
		assert.True(t, domain.IsNotFound(err))

		assert.NoError(t, s.DeletePerson(ctx, 42))
		assert.NoError(t, s.DeleteRelationship(ctx, 42))

		people, err := s.ListPeople(ctx)
		require.NoError(t, err)
		assert.NotNil(t, people)
		assert.Empty(t, people)
	})

	t.Run("RelationshipConstraints", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		a := mustPerson(t, s, "Pramod", domain.GroupFamily)
		b := mustPerson(t, s, "Amit", domain.GroupFriend)

		rel, err := s.CreateRelationship(ctx, domain.Relationship{PersonID: a.ID, RelatedPersonID: b.ID, RelationshipType: "Brother"})
		require.NoError(t, err)
		require.Positive(t, rel.ID)

		_, err = s.CreateRelationship(ctx, domain.Relationship{PersonID: a.ID, RelatedPersonID: b.ID, RelationshipType: "Brother"})
		assert.True(t, errors.Is(err, domain.ErrConflict), "duplicate triple: %v", err)

		other, err := s.CreateRelationship(ctx, domain.Relationship{PersonID: a.ID, RelatedPersonID: b.ID, RelationshipType: "Colleague"})
		require.NoError(t, err, "same pair with a different type is allowed")
		reverse, err := s.CreateRelationship(ctx, domain.Relationship{PersonID: b.ID, RelatedPersonID: a.ID, RelationshipType: "Brother"})
		require.NoError(t, err, "reverse direction is a distinct relationship")

		_, err = s.CreateRelationship(ctx, domain.Relationship{PersonID: a.ID, RelatedPersonID: 999, RelationshipType: "Friend"})
		assert.True(t, errors.Is(err, domain.ErrInvalidReference), "dangling reference: %v", err)

		rels, err := s.ListRelationships(ctx)
		require.NoError(t, err)
		require.Len(t, rels, 3)
		assert.Equal(t, []int64{rel.ID, other.ID, reverse.ID}, []int64{rels[0].ID, rels[1].ID, rels[2].ID})

		require.NoError(t, s.DeleteRelationship(ctx, other.ID))
		rels, err = s.ListRelationships(ctx)
		require.NoError(t, err)
		assert.Len(t, rels, 2)
	})

	t.Run("DeleteCascades", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		a := mustPerson(t, s, "Pramod", domain.GroupFamily)
		b := mustPerson(t, s, "Amit", domain.GroupFriend)
		c := mustPerson(t, s, "Ravi", domain.GroupColleague)
		mustRelate(t, s, a.ID, b.ID, "Brother")
		mustRelate(t, s, c.ID, a.ID, "Friend")
		kept := mustRelate(t, s, b.ID, c.ID, "Friend")

		require.NoError(t, s.DeletePerson(ctx, a.ID))
		_, err := s.GetPerson(ctx, a.ID)
		assert.True(t, domain.IsNotFound(err))

		rels, err := s.ListRelationships(ctx)
		require.NoError(t, err)
		require.Len(t, rels, 1)
		assert.Equal(t, kept.ID, rels[0].ID)
	})

	t.Run("Links", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		a := mustPerson(t, s, "Pramod", domain.GroupFamily)
		b := mustPerson(t, s, "Amit", domain.GroupFriend)
		c := mustPerson(t, s, "Isha", domain.GroupFamily)
		out := mustRelate(t, s, a.ID, b.ID, "Brother")
		in := mustRelate(t, s, c.ID, a.ID, "Sister")

		outbound, err := s.Outbound(ctx, a.ID)
		require.NoError(t, err)
		require.Len(t, outbound, 1)
		assert.Equal(t, out, outbound[0].Relationship)
		assert.Equal(t, domain.PersonSummary{ID: b.ID, Name: "Amit", GroupTag: domain.GroupFriend}, outbound[0].Counterpart)

		inbound, err := s.Inbound(ctx, a.ID)
		require.NoError(t, err)
		require.Len(t, inbound, 1)
		assert.Equal(t, in, inbound[0].Relationship)
		assert.Equal(t, domain.PersonSummary{ID: c.ID, Name: "Isha", GroupTag: domain.GroupFamily}, inbound[0].Counterpart)

		none, err := s.Outbound(ctx, c.ID+100)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("TransactionRollback", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		boom := errors.New("boom")

		err := s.RunInTransaction(ctx, func(tx domain.Transaction) error {
			if _, err := tx.CreatePerson(ctx, domain.Person{Name: "Transient"}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		people, err := s.ListPeople(ctx)
		require.NoError(t, err)
		assert.Empty(t, people)

		require.NoError(t, s.RunInTransaction(ctx, func(tx domain.Transaction) error {
			p, err := tx.CreatePerson(ctx, domain.Person{Name: "Durable"})
			if err != nil {
				return err
			}
			_, err = tx.GetPerson(ctx, p.ID)
			return err
		}))
		people, err = s.ListPeople(ctx)
		require.NoError(t, err)
		require.Len(t, people, 1)
		assert.Equal(t, "Durable", people[0].Name)
	})

	t.Run("Reset", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		a := mustPerson(t, s, "Pramod", domain.GroupFamily)
		b := mustPerson(t, s, "Amit", domain.GroupFriend)
		mustRelate(t, s, a.ID, b.ID, "Brother")

		require.NoError(t, s.Reset(ctx))
		people, err := s.ListPeople(ctx)
		require.NoError(t, err)
		assert.Empty(t, people)
		rels, err := s.ListRelationships(ctx)
		require.NoError(t, err)
		assert.Empty(t, rels)
		assert.NoError(t, s.Health(ctx))
	})
}

func mustPerson(t *testing.T, s domain.Store, name, group string) domain.Person {
	t.Helper()
	p, err := s.CreatePerson(context.Background(), domain.Person{Name: name, GroupTag: group})
	require.NoError(t, err)
	return p
}

func mustRelate(t *testing.T, s domain.Store, from, to int64, kind string) domain.Relationship {
	t.Helper()
	r, err := s.CreateRelationship(context.Background(), domain.Relationship{PersonID: from, RelatedPersonID: to, RelationshipType: kind})
	require.NoError(t, err)
	return r
}
