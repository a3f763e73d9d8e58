package domain

import "context"

// Transaction exposes the record operations a persistence implementation must
// support within an atomic scope.
type Transaction interface {
	ListPeople(ctx context.Context) ([]Person, error)
	// GetPerson returns ErrNotFound when no row matches.
	GetPerson(ctx context.Context, id int64) (Person, error)
	CreatePerson(ctx context.Context, p Person) (Person, error)
	// UpdatePerson overwrites every mutable column; ErrNotFound when absent.
	UpdatePerson(ctx context.Context, p Person) (Person, error)
	// DeletePerson removes the person and every relationship touching it.
	// Deleting a missing id is not an error.
	DeletePerson(ctx context.Context, id int64) error

	ListRelationships(ctx context.Context) ([]Relationship, error)
	// CreateRelationship returns ErrConflict on a duplicate triple and
	// ErrInvalidReference when either end does not exist.
	CreateRelationship(ctx context.Context, r Relationship) (Relationship, error)
	DeleteRelationship(ctx context.Context, id int64) error

	// Outbound returns relationships where personID is the source, joined
	// with the target person.
	Outbound(ctx context.Context, personID int64) ([]Link, error)
	// Inbound returns relationships where personID is the target, joined
	// with the source person.
	Inbound(ctx context.Context, personID int64) ([]Link, error)

	// Reset removes every relationship and person.
	Reset(ctx context.Context) error
}

// Store is a durable backend. Its Transaction methods each execute
// atomically on their own; RunInTransaction groups several of them.
type Store interface {
	Transaction
	RunInTransaction(ctx context.Context, fn func(tx Transaction) error) error
	Health(ctx context.Context) error
	Close() error
}
