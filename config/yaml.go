package config

import (
	"encoding/json"

	"github.com/flowmesh/engine/flowerr"
	"gopkg.in/yaml.v3"
)

// LoadYAML parses a YAML document in either accepted form by bridging
// through JSON: yaml.v3 already decodes mappings as map[string]any, so the
// bridge is a pure re-encoding, not a semantic transform.
func LoadYAML(data []byte) (*WorkflowBundle, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, flowerr.Wrap(flowerr.KindConfig, "parse YAML", err)
	}

	asJSON, err := json.Marshal(generic)
	if err != nil {
		return nil, flowerr.Wrap(flowerr.KindConfig, "re-encode YAML as JSON", err)
	}
	return Load(asJSON)
}
