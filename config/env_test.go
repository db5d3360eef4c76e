package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandEnvStringResolvesBracedReference(t *testing.T) {
	t.Setenv("FLOWMESH_TEST_VAR", "resolved")
	out, err := expandEnvString("value=${FLOWMESH_TEST_VAR}")
	require.NoError(t, err)
	require.Equal(t, "value=resolved", out)
}

func TestExpandEnvStringFallsBackToDefault(t *testing.T) {
	out, err := expandEnvString("${FLOWMESH_TEST_UNSET:-fallback}")
	require.NoError(t, err)
	require.Equal(t, "fallback", out)
}

func TestExpandEnvStringDefaultIgnoredWhenSet(t *testing.T) {
	t.Setenv("FLOWMESH_TEST_VAR2", "actual")
	out, err := expandEnvString("${FLOWMESH_TEST_VAR2:-fallback}")
	require.NoError(t, err)
	require.Equal(t, "actual", out)
}

func TestExpandEnvStringErrorsOnUnresolvedReference(t *testing.T) {
	_, err := expandEnvString("${FLOWMESH_TEST_DEFINITELY_UNSET}")
	require.Error(t, err)
}

func TestExpandEnvValueWalksNestedStructures(t *testing.T) {
	t.Setenv("FLOWMESH_TEST_NESTED", "deep")
	v := map[string]any{
		"a": []any{"${FLOWMESH_TEST_NESTED}", 3},
		"b": map[string]any{"c": "${FLOWMESH_TEST_NESTED}"},
	}
	out, err := expandEnvValue(v)
	require.NoError(t, err)
	m := out.(map[string]any)
	require.Equal(t, "deep", m["a"].([]any)[0])
	require.Equal(t, "deep", m["b"].(map[string]any)["c"])
}

func TestDefaultAPIKeyEnvVar(t *testing.T) {
	require.Equal(t, "OPENAI_API_KEY", DefaultAPIKeyEnvVar("openai"))
	require.Equal(t, "", DefaultAPIKeyEnvVar("echo"))
	require.Equal(t, "OPEN_ROUTER_API_KEY", DefaultAPIKeyEnvVar("open-router"))
}
