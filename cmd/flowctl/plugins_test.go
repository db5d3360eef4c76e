package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const chainFixture = `{
  "agents": [
    {"name": "planner", "driver_id": "echo", "role": "a planner"},
    {"name": "finalizer", "driver_id": "echo", "role": "a finalizer"}
  ],
  "flow": {
    "name": "simple-chain",
    "start": "ingest",
    "nodes": [
      {"kind": "agent", "name": "ingest", "agent_ref": "planner"},
      {"kind": "agent", "name": "plan", "agent_ref": "planner"},
      {"kind": "agent", "name": "finish", "agent_ref": "finalizer"},
      {"kind": "terminal", "name": "done"}
    ],
    "transitions": [
      {"from": "ingest", "to": "plan"},
      {"from": "plan", "to": "finish"},
      {"from": "finish", "to": "done"}
    ]
  }
}`

func writeFixture(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flow.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestPluginsListCmdLoadsBundleWithoutError(t *testing.T) {
	path := writeFixture(t, chainFixture)
	cmd := &PluginsListCmd{Config: path}
	require.NoError(t, cmd.Run(&CLI{}))
}

func TestLoadBundleRejectsMissingFile(t *testing.T) {
	_, err := loadBundle(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestLoadBundleParsesJSONFixture(t *testing.T) {
	path := writeFixture(t, chainFixture)
	bundle, err := loadBundle(path)
	require.NoError(t, err)
	require.Equal(t, "simple-chain", bundle.Flow.Name)
	require.Len(t, bundle.Agents, 2)
}
