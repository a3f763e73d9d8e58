package core

import (
	"context"

	"peoplenet/pkg/domain"
)

// GraphMirror receives successful writes so a graph database can answer
// traversal queries. Mirror failures never fail the originating operation.
type GraphMirror interface {
	UpsertPerson(ctx context.Context, p domain.Person) error
	DeletePerson(ctx context.Context, id int64) error
	UpsertRelationship(ctx context.Context, r domain.Relationship) error
	DeleteRelationship(ctx context.Context, id int64) error
	Reset(ctx context.Context) error
}

type noopMirror struct{}

func (noopMirror) UpsertPerson(context.Context, domain.Person) error             { return nil }
func (noopMirror) DeletePerson(context.Context, int64) error                     { return nil }
func (noopMirror) UpsertRelationship(context.Context, domain.Relationship) error { return nil }
func (noopMirror) DeleteRelationship(context.Context, int64) error               { return nil }
func (noopMirror) Reset(context.Context) error                                   { return nil }

func (s *Service) mirrorDo(ctx context.Context, action string, fn func(ctx context.Context) error) {
	if err := fn(ctx); err != nil {
		s.logger.Warn("graph mirror failed", "action", action, "error", err)
	}
}

func (s *Service) mirrorPerson(ctx context.Context, p domain.Person) {
	s.mirrorDo(ctx, "upsert_person", func(ctx context.Context) error { return s.mirror.UpsertPerson(ctx, p) })
}

func (s *Service) mirrorRelationship(ctx context.Context, r domain.Relationship) {
	s.mirrorDo(ctx, "upsert_relationship", func(ctx context.Context) error { return s.mirror.UpsertRelationship(ctx, r) })
}
