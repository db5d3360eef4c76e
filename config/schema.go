package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// ExportSchema reflects the flat-form configuration shape into a JSON
// Schema document, for the CLI's `schema export` subcommand and for
// editor/IDE validation of hand-written flow files.
func ExportSchema() (*jsonschema.Schema, error) {
	r := &jsonschema.Reflector{
		DoNotReference:            false,
		ExpandedStruct:            true,
		RequiredFromJSONSchemaTags: false,
	}
	return r.Reflect(&flatConfig{}), nil
}

// ExportSchemaJSON is ExportSchema marshalled to JSON, optionally indented.
func ExportSchemaJSON(pretty bool) ([]byte, error) {
	schema, err := ExportSchema()
	if err != nil {
		return nil, err
	}
	if pretty {
		return json.MarshalIndent(schema, "", "  ")
	}
	return json.Marshal(schema)
}
