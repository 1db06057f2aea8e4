package docstore

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CompileSchema compiles a JSON schema for the named document.
func CompileSchema(key, source string) (*jsonschema.Schema, error) {
	schema, err := jsonschema.CompileString(key+".schema.json", source)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", key, err)
	}
	return schema, nil
}

// MustCompileSchema is like CompileSchema but panics on error.
// It is meant for package-level schema variables.
func MustCompileSchema(key, source string) *jsonschema.Schema {
	schema, err := CompileSchema(key, source)
	if err != nil {
		panic(err)
	}
	return schema
}
