package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"peoplenet/pkg/domain"

	"gopkg.in/yaml.v3"
)

// SeedPerson is one person in a seed dataset. Key names the person in
// relationship entries and in the returned id map; it defaults to the
// lower-cased name.
type SeedPerson struct {
	Key      string  `yaml:"key"`
	Name     string  `yaml:"name"`
	GroupTag string  `yaml:"group_tag"`
	Email    *string `yaml:"email"`
	Phone    *string `yaml:"phone"`
	DOB      *string `yaml:"dob"`
	Notes    *string `yaml:"notes"`
}

func (p SeedPerson) key() string {
	if p.Key != "" {
		return p.Key
	}
	return strings.ToLower(p.Name)
}

// SeedRelationship links two seed people by key.
type SeedRelationship struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Type string `yaml:"type"`
}

// SeedDataset is the fixture inserted by Seed.
type SeedDataset struct {
	People        []SeedPerson       `yaml:"people"`
	Relationships []SeedRelationship `yaml:"relationships"`
}

// SeedResult reports the ids assigned to the seeded people.
type SeedResult struct {
	OK  bool             `json:"ok"`
	IDs map[string]int64 `json:"ids"`
}

func (p SeedPerson) input() domain.PersonInput {
	in := domain.PersonInput{Name: domain.Some(p.Name)}
	for _, f := range []struct {
		dst *domain.Optional[string]
		v   *string
	}{{&in.DOB, p.DOB}, {&in.Phone, p.Phone}, {&in.Email, p.Email}, {&in.Notes, p.Notes}} {
		if f.v != nil {
			*f.dst = domain.Some(*f.v)
		}
	}
	if p.GroupTag != "" {
		in.GroupTag = domain.Some(p.GroupTag)
	}
	return in
}

func strPtr(s string) *string { return &s }

// DefaultSeedDataset returns the built-in example dataset.
func DefaultSeedDataset() SeedDataset {
	return SeedDataset{
		People: []SeedPerson{
			{Name: "Pramod", GroupTag: domain.GroupFamily, Email: strPtr("pramod@example.com")},
			{Name: "Amit", GroupTag: domain.GroupFriend, Email: strPtr("amit@example.com")},
			{Name: "Ravi", GroupTag: domain.GroupColleague, Email: strPtr("ravi@work.com")},
			{Name: "Isha", GroupTag: domain.GroupFamily, Email: strPtr("isha@example.com")},
		},
		Relationships: []SeedRelationship{
			{From: "pramod", To: "amit", Type: "Brother"},
			{From: "pramod", To: "ravi", Type: "Friend"},
			{From: "isha", To: "pramod", Type: "Sister"},
		},
	}
}

// LoadSeedDataset reads a YAML seed fixture and validates it with
// SeedDataset.Validate.
func LoadSeedDataset(path string) (SeedDataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SeedDataset{}, fmt.Errorf("read seed file: %w", err)
	}
	var d SeedDataset
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return SeedDataset{}, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if err := d.Validate(); err != nil {
		return SeedDataset{}, fmt.Errorf("seed file %s: %w", path, err)
	}
	return d, nil
}

// Validate applies the person create rules to every person, then checks keys,
// references, self-relationships and duplicate triples, so a bad fixture is
// rejected before anything is written.
func (d SeedDataset) Validate() error {
	verr := &domain.ValidationError{Message: "invalid seed dataset"}
	keys := make(map[string]struct{}, len(d.People))
	for i, p := range d.People {
		var perr *domain.ValidationError
		if errors.As(p.input().ValidateCreate(), &perr) {
			for _, f := range perr.Fields {
				verr.Add(fmt.Sprintf("people[%d].%s", i, f.Field), f.Message)
			}
			if perr.Has("name") {
				continue
			}
		}
		if _, dup := keys[p.key()]; dup {
			verr.Add(fmt.Sprintf("people[%d].key", i), "duplicate key "+p.key())
		}
		keys[p.key()] = struct{}{}
	}
	seen := make(map[SeedRelationship]int, len(d.Relationships))
	for i, r := range d.Relationships {
		if _, ok := keys[r.From]; !ok {
			verr.Add(fmt.Sprintf("relationships[%d].from", i), "unknown person "+r.From)
		}
		if _, ok := keys[r.To]; !ok {
			verr.Add(fmt.Sprintf("relationships[%d].to", i), "unknown person "+r.To)
		}
		if r.From == r.To {
			verr.Add(fmt.Sprintf("relationships[%d].to", i), "cannot relate a person to themselves")
		}
		if strings.TrimSpace(r.Type) == "" {
			verr.Add(fmt.Sprintf("relationships[%d].type", i), "must not be empty")
		}
		if first, dup := seen[r]; dup {
			verr.Add(fmt.Sprintf("relationships[%d]", i), fmt.Sprintf("duplicates relationships[%d]", first))
			continue
		}
		seen[r] = i
	}
	return verr.OrNil()
}

// Seed optionally clears every record and then inserts the configured dataset
// in a single transaction.
func (s *Service) Seed(ctx context.Context, reset bool) (SeedResult, error) {
	result := SeedResult{IDs: make(map[string]int64, len(s.seed.People))}
	var (
		people []domain.Person
		rels   []domain.Relationship
	)
	err := s.run(ctx, OpSeed, func(ctx context.Context) (int64, error) {
		if err := s.seed.Validate(); err != nil {
			return 0, err
		}
		err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			if reset {
				if err := tx.Reset(ctx); err != nil {
					return err
				}
			}
			for _, sp := range s.seed.People {
				p, err := tx.CreatePerson(ctx, sp.input().NewPerson())
				if err != nil {
					return fmt.Errorf("seed person %s: %w", sp.Name, err)
				}
				result.IDs[sp.key()] = p.ID
				people = append(people, p)
			}
			for _, sr := range s.seed.Relationships {
				r, err := tx.CreateRelationship(ctx, domain.Relationship{
					PersonID:         result.IDs[sr.From],
					RelatedPersonID:  result.IDs[sr.To],
					RelationshipType: sr.Type,
				})
				if err != nil {
					return fmt.Errorf("seed relationship %s->%s: %w", sr.From, sr.To, err)
				}
				rels = append(rels, r)
			}
			return nil
		})
		return 0, err
	})
	if err != nil {
		return SeedResult{}, err
	}
	if reset {
		s.mirrorDo(ctx, "reset", s.mirror.Reset)
	}
	for _, p := range people {
		s.mirrorPerson(ctx, p)
	}
	for _, r := range rels {
		s.mirrorRelationship(ctx, r)
	}
	result.OK = true
	return result, nil
}
