// Package core hosts the people/relationships service: validation, the
// transactional CRUD workflows, the network projection and seeding, with
// logging, metrics, tracing and audit hooks around every operation.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"peoplenet/pkg/domain"
)

// Operation names used for logs, metrics, spans and audit entries.
const (
	OpListPeople         = "list_people"
	OpGetPerson          = "get_person"
	OpCreatePerson       = "create_person"
	OpUpdatePerson       = "update_person"
	OpDeletePerson       = "delete_person"
	OpListRelationships  = "list_relationships"
	OpCreateRelationship = "create_relationship"
	OpDeleteRelationship = "delete_relationship"
	OpNetwork            = "network"
	OpSeed               = "seed"
)

var auditedOperations = map[string]domain.EntityType{
	OpCreatePerson:       domain.EntityPerson,
	OpUpdatePerson:       domain.EntityPerson,
	OpDeletePerson:       domain.EntityPerson,
	OpCreateRelationship: domain.EntityRelationship,
	OpDeleteRelationship: domain.EntityRelationship,
	OpSeed:               domain.EntityPerson,
}

// Service exposes transactional operations over people and relationships.
type Service struct {
	store   domain.Store
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
	clock   Clock
	mirror  GraphMirror
	seed    SeedDataset
}

// Option configures a Service.
type Option func(*Service)

// WithLogger overrides the service logger.
func WithLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetricsRecorder installs a metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer installs a tracer.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithAuditRecorder installs an audit recorder for mutating operations.
func WithAuditRecorder(a AuditRecorder) Option {
	return func(s *Service) {
		if a != nil {
			s.audit = a
		}
	}
}

// WithClock overrides the time source.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithGraphMirror mirrors successful writes into a graph database.
func WithGraphMirror(m GraphMirror) Option {
	return func(s *Service) {
		if m != nil {
			s.mirror = m
		}
	}
}

// WithSeedDataset replaces the default seed dataset.
func WithSeedDataset(d SeedDataset) Option {
	return func(s *Service) {
		if len(d.People) > 0 {
			s.seed = d
		}
	}
}

// NewService constructs a service over store.
func NewService(store domain.Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logger:  noopLogger{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		audit:   noopAudit{},
		clock:   ClockFunc(func() time.Time { return time.Now().UTC() }),
		mirror:  noopMirror{},
		seed:    DefaultSeedDataset(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying store.
func (s *Service) Store() domain.Store { return s.store }

// Health reports whether the store is reachable.
func (s *Service) Health(ctx context.Context) error { return s.store.Health(ctx) }

// run wraps an operation with tracing, metrics, audit and logging. fn returns
// the id of the affected record for mutations.
func (s *Service) run(ctx context.Context, op string, fn func(ctx context.Context) (int64, error)) error {
	start := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, op)
	id, err := fn(ctx)
	duration := s.clock.Now().Sub(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)

	if entity, ok := auditedOperations[op]; ok {
		entry := AuditEntry{
			Operation: op,
			Entity:    entity,
			EntityID:  id,
			Status:    AuditStatusSuccess,
			Duration:  duration,
			Timestamp: start,
		}
		if err != nil {
			entry.Status = AuditStatusError
			entry.Error = err.Error()
		}
		s.audit.Record(ctx, entry)
	}

	switch {
	case err == nil:
		s.logger.Debug("operation completed", "operation", op, "id", id, "duration", duration)
	case isClientError(err):
		s.logger.Info("operation rejected", "operation", op, "id", id, "error", err)
	default:
		s.logger.Error("operation failed", "operation", op, "id", id, "error", err)
	}
	return err
}

func isClientError(err error) bool {
	return domain.IsValidation(err) || domain.IsNotFound(err) || errors.Is(err, domain.ErrConflict)
}

// ListPeople returns every person ordered by id.
func (s *Service) ListPeople(ctx context.Context) ([]domain.Person, error) {
	var people []domain.Person
	err := s.run(ctx, OpListPeople, func(ctx context.Context) (int64, error) {
		var err error
		people, err = s.store.ListPeople(ctx)
		return 0, err
	})
	return people, err
}

// GetPerson returns a person or domain.ErrNotFound.
func (s *Service) GetPerson(ctx context.Context, id int64) (domain.Person, error) {
	var person domain.Person
	err := s.run(ctx, OpGetPerson, func(ctx context.Context) (int64, error) {
		var err error
		person, err = s.store.GetPerson(ctx, id)
		return id, err
	})
	return person, err
}

// CreatePerson validates and persists a new person.
func (s *Service) CreatePerson(ctx context.Context, in domain.PersonInput) (domain.Person, error) {
	var created domain.Person
	err := s.run(ctx, OpCreatePerson, func(ctx context.Context) (int64, error) {
		if err := in.ValidateCreate(); err != nil {
			return 0, err
		}
		var err error
		created, err = s.store.CreatePerson(ctx, in.NewPerson())
		if err != nil {
			return 0, fmt.Errorf("create person: %w", err)
		}
		s.mirrorPerson(ctx, created)
		return created.ID, nil
	})
	return created, err
}

// UpdatePerson merges the supplied fields onto the stored person.
func (s *Service) UpdatePerson(ctx context.Context, id int64, in domain.PersonInput) (domain.Person, error) {
	var updated domain.Person
	err := s.run(ctx, OpUpdatePerson, func(ctx context.Context) (int64, error) {
		if err := in.ValidatePatch(); err != nil {
			return id, err
		}
		err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			existing, err := tx.GetPerson(ctx, id)
			if err != nil {
				return err
			}
			updated, err = tx.UpdatePerson(ctx, in.Merge(existing))
			return err
		})
		if err != nil {
			return id, err
		}
		s.mirrorPerson(ctx, updated)
		return id, nil
	})
	return updated, err
}

// DeletePerson removes a person and every relationship touching it. Missing
// ids are not an error.
func (s *Service) DeletePerson(ctx context.Context, id int64) error {
	return s.run(ctx, OpDeletePerson, func(ctx context.Context) (int64, error) {
		if err := s.store.DeletePerson(ctx, id); err != nil {
			return id, err
		}
		s.mirrorDo(ctx, "delete_person", func(ctx context.Context) error { return s.mirror.DeletePerson(ctx, id) })
		return id, nil
	})
}

// ListRelationships returns every relationship ordered by id.
func (s *Service) ListRelationships(ctx context.Context) ([]domain.Relationship, error) {
	var rels []domain.Relationship
	err := s.run(ctx, OpListRelationships, func(ctx context.Context) (int64, error) {
		var err error
		rels, err = s.store.ListRelationships(ctx)
		return 0, err
	})
	return rels, err
}

// CreateRelationship validates both ends exist and persists the relationship.
// Duplicate triples yield domain.ErrConflict.
func (s *Service) CreateRelationship(ctx context.Context, in domain.RelationshipInput) (domain.Relationship, error) {
	var created domain.Relationship
	err := s.run(ctx, OpCreateRelationship, func(ctx context.Context) (int64, error) {
		rel, err := in.Validate()
		if err != nil {
			return 0, err
		}
		err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			for _, pid := range []int64{rel.PersonID, rel.RelatedPersonID} {
				if _, err := tx.GetPerson(ctx, pid); err != nil {
					if domain.IsNotFound(err) {
						return errInvalidPersonIDs()
					}
					return err
				}
			}
			var err error
			created, err = tx.CreateRelationship(ctx, rel)
			return err
		})
		if errors.Is(err, domain.ErrInvalidReference) {
			return 0, errInvalidPersonIDs()
		}
		if err != nil {
			return 0, err
		}
		s.mirrorRelationship(ctx, created)
		return created.ID, nil
	})
	return created, err
}

func errInvalidPersonIDs() error {
	return domain.NewValidationError("invalid person ids")
}

// DeleteRelationship removes a relationship by id. Missing ids are not an error.
func (s *Service) DeleteRelationship(ctx context.Context, id int64) error {
	return s.run(ctx, OpDeleteRelationship, func(ctx context.Context) (int64, error) {
		if err := s.store.DeleteRelationship(ctx, id); err != nil {
			return id, err
		}
		s.mirrorDo(ctx, "delete_relationship", func(ctx context.Context) error { return s.mirror.DeleteRelationship(ctx, id) })
		return id, nil
	})
}

// Network projects the relationships of person id into nodes and edges. The
// outbound and inbound reads are separate statements.
func (s *Service) Network(ctx context.Context, id int64) (domain.Network, error) {
	var network domain.Network
	err := s.run(ctx, OpNetwork, func(ctx context.Context) (int64, error) {
		center, err := s.store.GetPerson(ctx, id)
		if err != nil {
			return id, err
		}
		outbound, err := s.store.Outbound(ctx, id)
		if err != nil {
			return id, fmt.Errorf("outbound relationships: %w", err)
		}
		inbound, err := s.store.Inbound(ctx, id)
		if err != nil {
			return id, fmt.Errorf("inbound relationships: %w", err)
		}
		network = domain.BuildNetwork(center, outbound, inbound)
		return id, nil
	})
	return network, err
}
