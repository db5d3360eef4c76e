package main

import "fmt"

// PluginsListCmd prints the agents and tools a configuration registers —
// the engine's two kinds of pluggable capability, resolved at run time
// against an LlmClientFactory/ToolRegistry the host program supplies.
type PluginsListCmd struct {
	Config string `arg:"" name:"config" help:"Configuration file path." type:"path"`
}

func (c *PluginsListCmd) Run(cli *CLI) error {
	bundle, err := loadBundle(c.Config)
	if err != nil {
		return err
	}

	fmt.Println("Agents:")
	if len(bundle.Agents) == 0 {
		fmt.Println("  (none)")
	}
	for _, name := range sortedKeys(bundle.Agents) {
		a := bundle.Agents[name]
		desc := a.Role
		if desc == "" {
			desc = "(no role)"
		}
		fmt.Printf("  - %s: driver=%s %s\n", name, a.DriverID, desc)
	}

	fmt.Println("Tools:")
	if len(bundle.Tools) == 0 {
		fmt.Println("  (none)")
	}
	for _, t := range bundle.Tools {
		desc := t.Description
		if desc == "" {
			desc = "(no description)"
		}
		fmt.Printf("  - %s: %s\n", t.Name, desc)
	}

	fmt.Println("Tool pipelines:")
	if len(bundle.Pipelines) == 0 {
		fmt.Println("  (none)")
	}
	for _, name := range sortedPipelineKeys(bundle.Pipelines) {
		p := bundle.Pipelines[name]
		fmt.Printf("  - %s: strategy=%s steps=%d\n", name, p.Strategy.Kind, len(p.Strategy.Steps))
	}

	return nil
}
