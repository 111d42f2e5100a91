package model

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed model.schema.json
var documentSchema string

const documentSchemaURL = "umlpdf://model.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(documentSchemaURL, strings.NewReader(documentSchema)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile(documentSchemaURL)
	})
	return compiledSchema, schemaErr
}

// ValidateDocument checks doc against the embedded schema. The document is
// normalized through JSON first so YAML and JSON inputs validate alike.
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("model document is nil")
	}
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("failed to compile model schema: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal model for schema validation: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("failed to normalize model for schema validation: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("model schema validation failed: %w", err)
	}
	return nil
}
