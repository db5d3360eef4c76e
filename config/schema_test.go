package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExportSchemaJSONProducesNonEmptyDocument(t *testing.T) {
	data, err := ExportSchemaJSON(true)
	require.NoError(t, err)
	require.Contains(t, string(data), "\"flow\"")
}
