package domain

import "encoding/json"

// fieldDecoder decodes a JSON object one field at a time and keeps a field
// error for every value of the wrong type instead of stopping at the first.
type fieldDecoder struct {
	raw  map[string]json.RawMessage
	errs []FieldError
}

func newFieldDecoder(data []byte) (*fieldDecoder, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return &fieldDecoder{raw: raw}, nil
}

// decodeField leaves dst untouched when the field is absent or malformed.
func decodeField[T any](d *fieldDecoder, field, want string, dst *T) {
	raw, ok := d.raw[field]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		d.errs = append(d.errs, FieldError{Field: field, Message: "must be " + want})
		return
	}
	*dst = v
}

// UnmarshalJSON decodes every known field, recording type mismatches for
// ValidateCreate and ValidatePatch to report with the other field failures.
// Only a payload that is not a JSON object fails outright.
func (in *PersonInput) UnmarshalJSON(data []byte) error {
	d, err := newFieldDecoder(data)
	if err != nil {
		return err
	}
	var out PersonInput
	decodeField(d, "name", "a string", &out.Name)
	decodeField(d, "dob", "a string", &out.DOB)
	decodeField(d, "phone", "a string", &out.Phone)
	decodeField(d, "email", "a string", &out.Email)
	decodeField(d, "notes", "a string", &out.Notes)
	decodeField(d, "group_tag", "a string", &out.GroupTag)
	out.decodeErrs = d.errs
	*in = out
	return nil
}

// UnmarshalJSON decodes every known field, recording type mismatches such as
// a string or fractional id for Validate to report.
func (in *RelationshipInput) UnmarshalJSON(data []byte) error {
	d, err := newFieldDecoder(data)
	if err != nil {
		return err
	}
	var out RelationshipInput
	decodeField(d, "person_id", "an integer", &out.PersonID)
	decodeField(d, "related_person_id", "an integer", &out.RelatedPersonID)
	decodeField(d, "relationship_type", "a string", &out.RelationshipType)
	out.decodeErrs = d.errs
	*in = out
	return nil
}
