package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalDistinguishesMissingNullAndValue(t *testing.T) {
	var payload struct {
		Missing Optional[string] `json:"missing"`
		Null    Optional[string] `json:"null"`
		Value   Optional[string] `json:"value"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"null":null,"value":"x"}`), &payload))

	assert.False(t, payload.Missing.Set)
	assert.True(t, payload.Null.Set)
	assert.True(t, payload.Null.Null)
	assert.False(t, payload.Null.Present())
	assert.True(t, payload.Value.Present())
	assert.Equal(t, "x", payload.Value.Value)
	assert.Nil(t, payload.Null.Ptr())
	require.NotNil(t, payload.Value.Ptr())
}

func TestOptionalRejectsWrongType(t *testing.T) {
	var o Optional[string]
	assert.Error(t, json.Unmarshal([]byte(`12`), &o))
}

func TestOptionalMarshal(t *testing.T) {
	out, err := json.Marshal(struct {
		A Optional[string] `json:"a"`
		B Optional[string] `json:"b"`
	}{A: Some("v"), B: Null[string]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"v","b":null}`, string(out))
}
