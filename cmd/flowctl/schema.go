package main

import (
	"fmt"
	"os"

	"github.com/flowmesh/engine/config"
)

// SchemaCmd exports the configuration JSON Schema, mirroring the teacher's
// SchemaCmd: written to stdout by default so it can be redirected, or to
// --output when given.
type SchemaCmd struct {
	Output string `short:"o" help:"Write the schema to this file instead of stdout." type:"path"`
	Pretty bool   `help:"Indent the JSON output."`
}

func (c *SchemaCmd) Run(cli *CLI) error {
	doc, err := config.ExportSchemaJSON(c.Pretty)
	if err != nil {
		return fmt.Errorf("flowctl: export schema: %w", err)
	}
	doc = append(doc, '\n')

	if c.Output == "" {
		_, err := os.Stdout.Write(doc)
		return err
	}
	return os.WriteFile(c.Output, doc, 0o644)
}
