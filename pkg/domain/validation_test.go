package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePersonInput(t *testing.T, payload string) PersonInput {
	t.Helper()
	var in PersonInput
	require.NoError(t, json.Unmarshal([]byte(payload), &in))
	return in
}

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)
	names := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestPersonInputValidateCreate(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		fields  []string
	}{
		{name: "minimal", payload: `{"name":"Pramod"}`},
		{name: "all fields", payload: `{"name":"Amit","dob":"1990-01-02","phone":"123","email":"amit@example.com","notes":"n","group_tag":"colleague"}`},
		{name: "null optionals", payload: `{"name":"Ravi","email":null,"group_tag":null}`},
		{name: "missing name", payload: `{}`, fields: []string{"name"}},
		{name: "null name", payload: `{"name":null}`, fields: []string{"name"}},
		{name: "empty name", payload: `{"name":""}`, fields: []string{"name"}},
		{name: "blank name", payload: `{"name":"   "}`, fields: []string{"name"}},
		{name: "bad email", payload: `{"name":"Isha","email":"not-an-email"}`, fields: []string{"email"}},
		{name: "empty email", payload: `{"name":"Isha","email":""}`, fields: []string{"email"}},
		{name: "every failure reported", payload: `{"name":"","email":"nope"}`, fields: []string{"name", "email"}},
		{name: "wrong typed name", payload: `{"name":5,"email":"bad"}`, fields: []string{"name", "email"}},
		{name: "wrong typed optional", payload: `{"name":"Ravi","notes":{"text":"x"},"dob":19900102}`, fields: []string{"dob", "notes"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := decodePersonInput(t, tc.payload).ValidateCreate()
			if len(tc.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tc.fields, fieldNames(t, err))
		})
	}
}

func TestPersonInputValidatePatch(t *testing.T) {
	assert.NoError(t, decodePersonInput(t, `{}`).ValidatePatch())
	assert.NoError(t, decodePersonInput(t, `{"notes":null,"email":null}`).ValidatePatch())
	assert.Equal(t, []string{"name"}, fieldNames(t, decodePersonInput(t, `{"name":null}`).ValidatePatch()))
	assert.Equal(t, []string{"name"}, fieldNames(t, decodePersonInput(t, `{"name":""}`).ValidatePatch()))
	assert.Equal(t, []string{"email"}, fieldNames(t, decodePersonInput(t, `{"email":"x@"}`).ValidatePatch()))
	assert.Equal(t, []string{"name"}, fieldNames(t, decodePersonInput(t, `{"name":false}`).ValidatePatch()))
}

func TestPersonInputNewPersonDefaultsGroup(t *testing.T) {
	p := decodePersonInput(t, `{"name":"Pramod","email":"pramod@example.com"}`).NewPerson()
	assert.Equal(t, "Pramod", p.Name)
	assert.Equal(t, DefaultGroupTag, p.GroupTag)
	require.NotNil(t, p.Email)
	assert.Equal(t, "pramod@example.com", *p.Email)
	assert.Nil(t, p.DOB)

	p = decodePersonInput(t, `{"name":"Isha","group_tag":"family"}`).NewPerson()
	assert.Equal(t, GroupFamily, p.GroupTag)
}

func TestPersonInputMerge(t *testing.T) {
	phone := "555"
	notes := "met at work"
	existing := Person{ID: 7, Name: "Ravi", Phone: &phone, Notes: &notes, GroupTag: GroupColleague}

	t.Run("unsupplied fields keep existing values", func(t *testing.T) {
		merged := decodePersonInput(t, `{"name":"Ravi K"}`).Merge(existing)
		assert.Equal(t, int64(7), merged.ID)
		assert.Equal(t, "Ravi K", merged.Name)
		require.NotNil(t, merged.Phone)
		assert.Equal(t, "555", *merged.Phone)
		assert.Equal(t, GroupColleague, merged.GroupTag)
	})

	t.Run("explicit null clears optional fields", func(t *testing.T) {
		merged := decodePersonInput(t, `{"phone":null}`).Merge(existing)
		assert.Nil(t, merged.Phone)
		require.NotNil(t, merged.Notes)
	})

	t.Run("null group resets to default", func(t *testing.T) {
		merged := decodePersonInput(t, `{"group_tag":null}`).Merge(existing)
		assert.Equal(t, DefaultGroupTag, merged.GroupTag)
	})

	t.Run("existing record is not mutated", func(t *testing.T) {
		merged := decodePersonInput(t, `{"phone":"999"}`).Merge(existing)
		assert.Equal(t, "999", *merged.Phone)
		assert.Equal(t, "555", *existing.Phone)
	})
}

func int64Ptr(v int64) *int64 { return &v }
func strPtr(v string) *string { return &v }

func TestRelationshipInputValidate(t *testing.T) {
	rel, err := RelationshipInput{PersonID: int64Ptr(1), RelatedPersonID: int64Ptr(2), RelationshipType: strPtr("Brother")}.Validate()
	require.NoError(t, err)
	assert.Equal(t, Relationship{PersonID: 1, RelatedPersonID: 2, RelationshipType: "Brother"}, rel)

	_, err = RelationshipInput{}.Validate()
	assert.Equal(t, []string{"person_id", "related_person_id", "relationship_type"}, fieldNames(t, err))

	_, err = RelationshipInput{PersonID: int64Ptr(0), RelatedPersonID: int64Ptr(-3), RelationshipType: strPtr("")}.Validate()
	assert.Equal(t, []string{"person_id", "related_person_id", "relationship_type"}, fieldNames(t, err))

	_, err = RelationshipInput{PersonID: int64Ptr(4), RelatedPersonID: int64Ptr(4), RelationshipType: strPtr("Self")}.Validate()
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "themselves")
}

func TestRelationshipInputDecodeReportsTypeErrors(t *testing.T) {
	var in RelationshipInput
	require.NoError(t, json.Unmarshal([]byte(`{"person_id":"1","related_person_id":2.5,"relationship_type":"Friend"}`), &in))
	_, err := in.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []FieldError{
		{Field: "person_id", Message: "must be an integer"},
		{Field: "related_person_id", Message: "must be an integer"},
	}, verr.Fields)

	in = RelationshipInput{}
	require.NoError(t, json.Unmarshal([]byte(`{"person_id":3,"related_person_id":4,"relationship_type":"Friend"}`), &in))
	rel, err := in.Validate()
	require.NoError(t, err)
	assert.Equal(t, Relationship{PersonID: 3, RelatedPersonID: 4, RelationshipType: "Friend"}, rel)

	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &in))
	var p PersonInput
	assert.Error(t, json.Unmarshal([]byte(`"Pramod"`), &p))
}

func TestValidationErrorMessage(t *testing.T) {
	verr := &ValidationError{Message: "invalid person"}
	assert.NoError(t, verr.OrNil())
	verr.Add("name", "is required")
	verr.Add("email", "must be a valid email address")
	assert.Equal(t, "invalid person: name: is required; email: must be a valid email address", verr.Error())
	assert.Equal(t, "invalid person ids", NewValidationError("invalid person ids").Error())
}

func TestErrNotFound(t *testing.T) {
	err := error(ErrNotFound{Entity: EntityPerson, ID: 3})
	assert.Equal(t, "person 3 not found", err.Error())
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(ErrConflict))
}
