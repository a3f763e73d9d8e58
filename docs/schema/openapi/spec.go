// Package openapi embeds the peoplenet HTTP API description for runtime
// distribution.
package openapi

import _ "embed"

// APISpec contains the OpenAPI document served at /openapi.yaml.
//
//go:embed peoplenet.yaml
var APISpec []byte

// Spec returns a copy of the embedded OpenAPI YAML.
func Spec() []byte {
	return append([]byte(nil), APISpec...)
}
