// Package domain defines the persistent people/relationship entities, input
// validation, and the network projection derived from them.
package domain

// EntityType identifies the type of record stored in the domain.
type EntityType string

// Supported entity type identifiers used in errors and audit records.
const (
	// EntityPerson identifies a person record.
	EntityPerson EntityType = "person"
	// EntityRelationship identifies a directed relationship record.
	EntityRelationship EntityType = "relationship"
)

// DefaultGroupTag is applied to people created or updated without a group.
const DefaultGroupTag = "friend"

// Well-known group tags. Group tags are free text; these are the values the
// bundled seed data and renderers know about.
const (
	GroupFamily    = "family"
	GroupFriend    = "friend"
	GroupColleague = "colleague"
	GroupOther     = "other"
)

// Person is an individual in the network.
type Person struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	DOB      *string `json:"dob"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	Notes    *string `json:"notes"`
	GroupTag string  `json:"group_tag"`
}

// Group returns the person's group tag, falling back to DefaultGroupTag.
func (p Person) Group() string {
	return GroupOrDefault(p.GroupTag)
}

// Relationship is a directed, labeled edge from PersonID to RelatedPersonID.
type Relationship struct {
	ID               int64  `json:"id"`
	PersonID         int64  `json:"person_id"`
	RelatedPersonID  int64  `json:"related_person_id"`
	RelationshipType string `json:"relationship_type"`
}

// Touches reports whether the relationship references the person on either end.
func (r Relationship) Touches(personID int64) bool {
	return r.PersonID == personID || r.RelatedPersonID == personID
}

// PersonSummary is the subset of a person needed to draw a graph node.
type PersonSummary struct {
	ID       int64
	Name     string
	GroupTag string
}

// Link pairs a relationship with the person on its far side, relative to the
// person whose links were queried.
type Link struct {
	Relationship Relationship
	Counterpart  PersonSummary
}

// GroupOrDefault returns tag, or DefaultGroupTag when tag is empty.
func GroupOrDefault(tag string) string {
	if tag == "" {
		return DefaultGroupTag
	}
	return tag
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Clone returns a deep copy of the person.
func (p Person) Clone() Person {
	out := p
	out.DOB = cloneString(p.DOB)
	out.Phone = cloneString(p.Phone)
	out.Email = cloneString(p.Email)
	out.Notes = cloneString(p.Notes)
	return out
}
