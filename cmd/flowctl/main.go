// Command flowctl is the CLI for the workflow engine: list the agents and
// tools a configuration registers, export its JSON Schema, and run a flow
// while printing a trace of every node it visits.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/flowmesh/engine/logger"
)

// CLI defines the flowctl command-line interface.
type CLI struct {
	Plugins PluginsCmd `cmd:"" help:"Inspect a configuration's registered agents and tools."`
	Schema  SchemaCmd  `cmd:"" help:"Export the configuration JSON Schema."`
	Flow    FlowCmd    `cmd:"" help:"Run and trace a flow."`

	LogLevel string `help:"Log level (debug, info, warn, error)." default:"info"`
}

// PluginsCmd groups the plugins subcommands.
type PluginsCmd struct {
	List PluginsListCmd `cmd:"" help:"List the agents and tools a configuration registers."`
}

// FlowCmd groups the flow subcommands.
type FlowCmd struct {
	Trace FlowTraceCmd `cmd:"" help:"Run a flow to completion and print a node-by-node trace."`
}

func main() {
	cli := CLI{}
	parser := kong.Parse(&cli,
		kong.Name("flowctl"),
		kong.Description("Inspect, validate, and run workflow engine configurations."),
		kong.UsageOnError(),
	)

	level, err := logger.ParseLevel(cli.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flowctl: invalid log level: %v\n", err)
		os.Exit(1)
	}
	logger.Init(level, os.Stderr, "simple")
	slog.SetDefault(logger.GetLogger())

	parser.FatalIfErrorf(parser.Run(&cli))
}
