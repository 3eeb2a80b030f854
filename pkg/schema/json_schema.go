// Package schema renders Go structs as JSON schema documents.
package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// ToJSONSchema converts a struct to a JSON schema using its json tags for field names.
func ToJSONSchema[T any](t T) (string, error) {
	return reflect(t, "")
}

// ToYAMLSchema converts a struct to a JSON schema using its yaml tags for field names,
// so the schema matches the keys accepted in a YAML file.
func ToYAMLSchema[T any](t T) (string, error) {
	return reflect(t, "yaml")
}

func reflect(t any, fieldNameTag string) (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	r.FieldNameTag = fieldNameTag
	schema := r.Reflect(t)

	jsonSchemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}
