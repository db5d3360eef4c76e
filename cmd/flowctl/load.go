package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flowmesh/engine/config"
)

// loadBundle reads and parses a configuration file, dispatching on its
// extension the way config.LoadYAML/config.Load are designed to be used:
// .yaml/.yml through the YAML bridge, everything else as JSON.
func loadBundle(path string) (*config.WorkflowBundle, error) {
	if err := config.LoadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, fmt.Errorf("flowctl: load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("flowctl: read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return config.LoadYAML(data)
	default:
		return config.Load(data)
	}
}
