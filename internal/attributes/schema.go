package attributes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrDeclarationSchema wraps JSON documents rejected by the declaration schema.
var ErrDeclarationSchema = errors.New("attributes: declaration document does not match schema")

const declarationSchema = `{
  "type": "array",
  "items": {
    "oneOf": [
      {"type": "string", "minLength": 1},
      {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "index": {"type": "boolean"},
          "fallback": {"type": "boolean"}
        },
        "additionalProperties": false
      },
      {
        "type": "array",
        "minItems": 1,
        "maxItems": 2,
        "prefixItems": [
          {"type": "string", "minLength": 1},
          {
            "type": "object",
            "properties": {
              "index": {"type": "boolean"},
              "fallback": {"type": "boolean"}
            },
            "additionalProperties": false
          }
        ]
      }
    ]
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// ParseJSON validates a JSON declaration document against the declaration
// schema and resolves it into a Definition.
func ParseJSON(modelType string, document []byte) (*Definition, error) {
	var decoded any
	if err := json.Unmarshal(document, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeclarationSchema, err)
	}
	schema, err := declarationValidator()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(decoded); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDeclarationSchema, describeSchemaError(err))
	}
	entries, ok := decoded.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a list", ErrDeclarationSchema)
	}
	return Resolve(modelType, entries)
}

func declarationValidator() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("declaration.json", bytes.NewReader([]byte(declarationSchema))); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("declaration.json")
	})
	return compiledSchema, schemaErr
}

func describeSchemaError(err error) string {
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) || validationErr == nil {
		return err.Error()
	}
	parts := []string{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			location := strings.TrimSpace(node.InstanceLocation)
			if location == "" {
				location = "#"
			}
			parts = append(parts, fmt.Sprintf("%s: %s", location, strings.TrimSpace(node.Message)))
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(validationErr)
	return strings.Join(parts, "; ")
}
