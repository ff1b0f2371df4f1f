package persist

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// The envelope schemas are deliberately permissive about unknown fields so
// that newer writers stay readable; they pin down only the structure the
// loader depends on. Version compatibility is the table's concern, not the
// schema's.
const tableSchema = `{
	"type": "object",
	"required": ["version", "table_name", "d"],
	"properties": {
		"version": {"type": "integer"},
		"table_name": {"type": "string"},
		"poll_msec": {"type": ["integer", "null"]},
		"poll_time": {"type": ["integer", "null"]},
		"key_source": {"type": "string"},
		"d": {
			"type": "object",
			"additionalProperties": {
				"type": "array",
				"items": {
					"type": "array",
					"minItems": 4,
					"maxItems": 4,
					"items": [
						{"type": "integer"},
						{"type": "integer"},
						{"type": "integer"},
						{"type": "object"}
					]
				}
			}
		}
	}
}`

const historySchema = `{
	"type": "object",
	"required": ["version", "table_name"],
	"properties": {
		"version": {"type": "integer"},
		"table_name": {"type": "string"},
		"msecs": {"type": "array", "items": {"type": "integer"}},
		"times": {"type": "array", "items": {"type": "integer"}}
	}
}`

var (
	tableSchemaCompiled   = mustCompileSchema(tableSchema)
	historySchemaCompiled = mustCompileSchema(historySchema)
)

func mustCompileSchema(raw string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("persist: bad embedded schema: %v", err))
	}

	return schema
}

func validateTableSchema(data []byte) error {
	return validateSchema(tableSchemaCompiled, data)
}

func validateHistorySchema(data []byte) error {
	return validateSchema(historySchemaCompiled, data)
}

func validateSchema(schema *gojsonschema.Schema, data []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}

	if !result.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidEnvelope, result.Errors()[0])
	}

	return nil
}
