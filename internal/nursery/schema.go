package nursery

import (
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// varietySchema describes the structure of a variety file. Semantic rules
// (coefficient signs, bounds and net production) are checked afterwards by
// plants.NewVariety so every violation is reported with the variety name.
const varietySchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["varieties"],
  "properties": {
    "seed": {"type": "integer"},
    "varieties": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "radius", "species", "nutrient_coefficients"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "radius": {"type": "integer"},
          "species": {"enum": ["RHODODENDRON", "GERANIUM", "BEGONIA"]},
          "nutrient_coefficients": {
            "type": "object",
            "required": ["R", "G", "B"],
            "properties": {
              "R": {"type": "number"},
              "G": {"type": "number"},
              "B": {"type": "number"}
            },
            "additionalProperties": false
          },
          "count": {"type": "integer", "minimum": 0}
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString("varieties.schema.json", varietySchema)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile variety schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}
