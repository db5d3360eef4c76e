package main

import (
	"sort"

	"github.com/flowmesh/engine/config"
)

func sortedKeys(m map[string]*config.AgentDescriptor) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedPipelineKeys(m map[string]*config.ToolPipeline) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
