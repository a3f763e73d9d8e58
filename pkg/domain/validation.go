package domain

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func fieldValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// ValidEmail reports whether s is a syntactically valid email address.
func ValidEmail(s string) bool {
	return fieldValidator().Var(s, "required,email") == nil
}

// PersonInput carries person fields from a create or partial-update request.
type PersonInput struct {
	Name     Optional[string] `json:"name"`
	DOB      Optional[string] `json:"dob"`
	Phone    Optional[string] `json:"phone"`
	Email    Optional[string] `json:"email"`
	Notes    Optional[string] `json:"notes"`
	GroupTag Optional[string] `json:"group_tag"`

	decodeErrs []FieldError
}

// RelationshipInput carries relationship fields from a create request.
// Pointers distinguish missing ids from zero.
type RelationshipInput struct {
	PersonID         *int64  `json:"person_id"`
	RelatedPersonID  *int64  `json:"related_person_id"`
	RelationshipType *string `json:"relationship_type"`

	decodeErrs []FieldError
}

// ValidateCreate checks a person create request.
func (in PersonInput) ValidateCreate() error {
	verr := inputError("invalid person", in.decodeErrs)
	switch {
	case verr.Has("name"):
	case !in.Name.Present():
		verr.Add("name", "is required")
	case strings.TrimSpace(in.Name.Value) == "":
		verr.Add("name", "must not be empty")
	}
	in.validateEmail(verr)
	return verr.OrNil()
}

// ValidatePatch checks a partial update request; every field is optional but
// a supplied name must still be non-empty.
func (in PersonInput) ValidatePatch() error {
	verr := inputError("invalid person", in.decodeErrs)
	if in.Name.Set && !verr.Has("name") {
		if in.Name.Null {
			verr.Add("name", "must not be null")
		} else if strings.TrimSpace(in.Name.Value) == "" {
			verr.Add("name", "must not be empty")
		}
	}
	in.validateEmail(verr)
	return verr.OrNil()
}

func (in PersonInput) validateEmail(verr *ValidationError) {
	if in.Email.Present() && !verr.Has("email") && !ValidEmail(in.Email.Value) {
		verr.Add("email", "must be a valid email address")
	}
}

// NewPerson builds the person to insert from a validated create request.
func (in PersonInput) NewPerson() Person {
	p := Person{
		Name:     in.Name.Value,
		DOB:      in.DOB.Ptr(),
		Phone:    in.Phone.Ptr(),
		Email:    in.Email.Ptr(),
		Notes:    in.Notes.Ptr(),
		GroupTag: DefaultGroupTag,
	}
	if in.GroupTag.Present() && in.GroupTag.Value != "" {
		p.GroupTag = in.GroupTag.Value
	}
	return p
}

// Merge applies the supplied fields onto existing. Unsupplied fields keep the
// existing value, explicit null clears optional attributes and resets the
// group tag to DefaultGroupTag.
func (in PersonInput) Merge(existing Person) Person {
	out := existing.Clone()
	if in.Name.Present() {
		out.Name = in.Name.Value
	}
	mergeOptional(&out.DOB, in.DOB)
	mergeOptional(&out.Phone, in.Phone)
	mergeOptional(&out.Email, in.Email)
	mergeOptional(&out.Notes, in.Notes)
	if in.GroupTag.Set {
		out.GroupTag = in.GroupTag.Value
	}
	out.GroupTag = GroupOrDefault(out.GroupTag)
	return out
}

func mergeOptional(dst **string, v Optional[string]) {
	if v.Set {
		*dst = v.Ptr()
	}
}

// Validate checks a relationship create request and returns the relationship
// to insert. Self-relationships are rejected here regardless of whether the
// id exists.
func (in RelationshipInput) Validate() (Relationship, error) {
	verr := inputError("invalid relationship", in.decodeErrs)
	checkID(verr, "person_id", in.PersonID)
	checkID(verr, "related_person_id", in.RelatedPersonID)
	switch {
	case verr.Has("relationship_type"):
	case in.RelationshipType == nil:
		verr.Add("relationship_type", "is required")
	case strings.TrimSpace(*in.RelationshipType) == "":
		verr.Add("relationship_type", "must not be empty")
	}
	if err := verr.OrNil(); err != nil {
		return Relationship{}, err
	}
	if *in.PersonID == *in.RelatedPersonID {
		return Relationship{}, NewValidationError("cannot relate a person to themselves")
	}
	return Relationship{
		PersonID:         *in.PersonID,
		RelatedPersonID:  *in.RelatedPersonID,
		RelationshipType: *in.RelationshipType,
	}, nil
}

func checkID(verr *ValidationError, field string, id *int64) {
	switch {
	case verr.Has(field):
	case id == nil:
		verr.Add(field, "is required")
	case *id <= 0:
		verr.Add(field, "must be a positive integer")
	}
}

// inputError starts a ValidationError from the type mismatches found while
// decoding.
func inputError(message string, decodeErrs []FieldError) *ValidationError {
	return &ValidationError{Message: message, Fields: append([]FieldError(nil), decodeErrs...)}
}
