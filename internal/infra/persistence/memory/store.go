// Package memory provides an in-memory implementation of the persistence
// store used for tests and ephemeral environments. It enforces the same
// uniqueness, reference and cascade rules as the SQL schema.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"peoplenet/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.Store = (*Store)(nil)

type relationKey struct {
	from, to int64
	kind     string
}

type memoryState struct {
	people        map[int64]domain.Person
	relationships map[int64]domain.Relationship
	triples       map[relationKey]int64
	nextPerson    int64
	nextRelation  int64
}

func newMemoryState() memoryState {
	return memoryState{
		people:        make(map[int64]domain.Person),
		relationships: make(map[int64]domain.Relationship),
		triples:       make(map[relationKey]int64),
	}
}

func (s memoryState) clone() memoryState {
	out := memoryState{
		people:        make(map[int64]domain.Person, len(s.people)),
		relationships: make(map[int64]domain.Relationship, len(s.relationships)),
		triples:       make(map[relationKey]int64, len(s.triples)),
		nextPerson:    s.nextPerson,
		nextRelation:  s.nextRelation,
	}
	for k, v := range s.people {
		out.people[k] = v.Clone()
	}
	for k, v := range s.relationships {
		out.relationships[k] = v
	}
	for k, v := range s.triples {
		out.triples[k] = v
	}
	return out
}

// Store provides an in-memory transactional store.
type Store struct {
	mu    sync.RWMutex
	state memoryState
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{state: newMemoryState()}
}

// transaction mutates a private clone of the store state.
type transaction struct {
	state *memoryState
}

// RunInTransaction applies fn to a clone of the current state and swaps it in
// only when fn succeeds.
func (s *Store) RunInTransaction(_ context.Context, fn func(tx domain.Transaction) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.state.clone()
	if err := fn(&transaction{state: &state}); err != nil {
		return err
	}
	s.state = state
	return nil
}

func (s *Store) read(fn func(tx *transaction) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&transaction{state: &s.state})
}

func (s *Store) write(ctx context.Context, fn func(tx domain.Transaction) error) error {
	return s.RunInTransaction(ctx, fn)
}

// Health always succeeds for the in-memory store.
func (s *Store) Health(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// ListPeople returns every person ordered by id.
func (s *Store) ListPeople(ctx context.Context) (people []domain.Person, err error) {
	err = s.read(func(tx *transaction) error {
		people, err = tx.ListPeople(ctx)
		return err
	})
	return people, err
}

// GetPerson returns the person with id.
func (s *Store) GetPerson(ctx context.Context, id int64) (p domain.Person, err error) {
	err = s.read(func(tx *transaction) error {
		p, err = tx.GetPerson(ctx, id)
		return err
	})
	return p, err
}

// CreatePerson inserts p with a fresh id.
func (s *Store) CreatePerson(ctx context.Context, p domain.Person) (created domain.Person, err error) {
	err = s.write(ctx, func(tx domain.Transaction) error {
		created, err = tx.CreatePerson(ctx, p)
		return err
	})
	return created, err
}

// UpdatePerson overwrites the stored person.
func (s *Store) UpdatePerson(ctx context.Context, p domain.Person) (updated domain.Person, err error) {
	err = s.write(ctx, func(tx domain.Transaction) error {
		updated, err = tx.UpdatePerson(ctx, p)
		return err
	})
	return updated, err
}

// DeletePerson removes the person and its relationships.
func (s *Store) DeletePerson(ctx context.Context, id int64) error {
	return s.write(ctx, func(tx domain.Transaction) error { return tx.DeletePerson(ctx, id) })
}

// ListRelationships returns every relationship ordered by id.
func (s *Store) ListRelationships(ctx context.Context) (rels []domain.Relationship, err error) {
	err = s.read(func(tx *transaction) error {
		rels, err = tx.ListRelationships(ctx)
		return err
	})
	return rels, err
}

// CreateRelationship inserts r with a fresh id.
func (s *Store) CreateRelationship(ctx context.Context, r domain.Relationship) (created domain.Relationship, err error) {
	err = s.write(ctx, func(tx domain.Transaction) error {
		created, err = tx.CreateRelationship(ctx, r)
		return err
	})
	return created, err
}

// DeleteRelationship removes the relationship with id.
func (s *Store) DeleteRelationship(ctx context.Context, id int64) error {
	return s.write(ctx, func(tx domain.Transaction) error { return tx.DeleteRelationship(ctx, id) })
}

// Outbound lists relationships sourced at personID.
func (s *Store) Outbound(ctx context.Context, personID int64) (links []domain.Link, err error) {
	err = s.read(func(tx *transaction) error {
		links, err = tx.Outbound(ctx, personID)
		return err
	})
	return links, err
}

// Inbound lists relationships targeting personID.
func (s *Store) Inbound(ctx context.Context, personID int64) (links []domain.Link, err error) {
	err = s.read(func(tx *transaction) error {
		links, err = tx.Inbound(ctx, personID)
		return err
	})
	return links, err
}

// Reset clears every record.
func (s *Store) Reset(ctx context.Context) error {
	return s.write(ctx, func(tx domain.Transaction) error { return tx.Reset(ctx) })
}

func (tx *transaction) ListPeople(context.Context) ([]domain.Person, error) {
	out := make([]domain.Person, 0, len(tx.state.people))
	for _, p := range tx.state.people {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (tx *transaction) GetPerson(_ context.Context, id int64) (domain.Person, error) {
	p, ok := tx.state.people[id]
	if !ok {
		return domain.Person{}, domain.ErrNotFound{Entity: domain.EntityPerson, ID: id}
	}
	return p.Clone(), nil
}

func (tx *transaction) CreatePerson(_ context.Context, p domain.Person) (domain.Person, error) {
	tx.state.nextPerson++
	p = p.Clone()
	p.ID = tx.state.nextPerson
	p.GroupTag = domain.GroupOrDefault(p.GroupTag)
	tx.state.people[p.ID] = p
	return p.Clone(), nil
}

func (tx *transaction) UpdatePerson(_ context.Context, p domain.Person) (domain.Person, error) {
	if _, ok := tx.state.people[p.ID]; !ok {
		return domain.Person{}, domain.ErrNotFound{Entity: domain.EntityPerson, ID: p.ID}
	}
	p = p.Clone()
	p.GroupTag = domain.GroupOrDefault(p.GroupTag)
	tx.state.people[p.ID] = p
	return p.Clone(), nil
}

func (tx *transaction) DeletePerson(_ context.Context, id int64) error {
	if _, ok := tx.state.people[id]; !ok {
		return nil
	}
	delete(tx.state.people, id)
	for relID, r := range tx.state.relationships {
		if r.Touches(id) {
			tx.removeRelationship(relID, r)
		}
	}
	return nil
}

func (tx *transaction) ListRelationships(context.Context) ([]domain.Relationship, error) {
	out := make([]domain.Relationship, 0, len(tx.state.relationships))
	for _, r := range tx.state.relationships {
		out = append(out, r)
	}
	sortRelationships(out)
	return out, nil
}

func (tx *transaction) CreateRelationship(_ context.Context, r domain.Relationship) (domain.Relationship, error) {
	if r.PersonID == r.RelatedPersonID {
		return domain.Relationship{}, domain.NewValidationError("cannot relate a person to themselves")
	}
	for _, id := range []int64{r.PersonID, r.RelatedPersonID} {
		if _, ok := tx.state.people[id]; !ok {
			return domain.Relationship{}, fmt.Errorf("%w: person %d", domain.ErrInvalidReference, id)
		}
	}
	key := relationKey{from: r.PersonID, to: r.RelatedPersonID, kind: r.RelationshipType}
	if _, exists := tx.state.triples[key]; exists {
		return domain.Relationship{}, domain.ErrConflict
	}
	tx.state.nextRelation++
	r.ID = tx.state.nextRelation
	tx.state.relationships[r.ID] = r
	tx.state.triples[key] = r.ID
	return r, nil
}

func (tx *transaction) DeleteRelationship(_ context.Context, id int64) error {
	if r, ok := tx.state.relationships[id]; ok {
		tx.removeRelationship(id, r)
	}
	return nil
}

func (tx *transaction) removeRelationship(id int64, r domain.Relationship) {
	delete(tx.state.relationships, id)
	delete(tx.state.triples, relationKey{from: r.PersonID, to: r.RelatedPersonID, kind: r.RelationshipType})
}

func (tx *transaction) Outbound(_ context.Context, personID int64) ([]domain.Link, error) {
	return tx.links(func(r domain.Relationship) (bool, int64) { return r.PersonID == personID, r.RelatedPersonID }), nil
}

func (tx *transaction) Inbound(_ context.Context, personID int64) ([]domain.Link, error) {
	return tx.links(func(r domain.Relationship) (bool, int64) { return r.RelatedPersonID == personID, r.PersonID }), nil
}

// links joins matching relationships with their counterpart, ordered by
// relationship id.
func (tx *transaction) links(match func(domain.Relationship) (bool, int64)) []domain.Link {
	rels := make([]domain.Relationship, 0)
	for _, r := range tx.state.relationships {
		if ok, _ := match(r); ok {
			rels = append(rels, r)
		}
	}
	sortRelationships(rels)
	out := make([]domain.Link, 0, len(rels))
	for _, r := range rels {
		_, other := match(r)
		p, ok := tx.state.people[other]
		if !ok {
			continue
		}
		out = append(out, domain.Link{
			Relationship: r,
			Counterpart:  domain.PersonSummary{ID: p.ID, Name: p.Name, GroupTag: p.GroupTag},
		})
	}
	return out
}

func (tx *transaction) Reset(context.Context) error {
	next := newMemoryState()
	next.nextPerson = tx.state.nextPerson
	next.nextRelation = tx.state.nextRelation
	*tx.state = next
	return nil
}

func sortRelationships(rels []domain.Relationship) {
	sort.Slice(rels, func(i, j int) bool { return rels[i].ID < rels[j].ID })
}
