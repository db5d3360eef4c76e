package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/flowmesh/engine/flowerr"
)

// Pre-compiled regex patterns, matching the teacher's approach
// (_examples/kadirpekel-hector/config/env.go) of compiling once for reuse.
var (
	envWithDefault = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*):-(.*?)\}`)
	envBraced      = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
)

// expandEnvString resolves ${NAME} and ${NAME:-default} references in s.
// Per the design note in spec.md section 9, this only ever runs over
// already-parsed JSON string values, never over raw config bytes, so a
// literal "${" inside unrelated data can't be misinterpreted.
func expandEnvString(s string) (string, error) {
	var missing string

	s = envWithDefault.ReplaceAllStringFunc(s, func(match string) string {
		parts := envWithDefault.FindStringSubmatch(match)
		name, def := parts[1], parts[2]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return def
	})

	s = envBraced.ReplaceAllStringFunc(s, func(match string) string {
		name := envBraced.FindStringSubmatch(match)[1]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		missing = name
		return ""
	})

	if missing != "" {
		return "", flowerr.New(flowerr.KindConfig,
			fmt.Sprintf("unresolved environment variable reference ${%s}", missing))
	}
	return s, nil
}

// expandEnvValue walks a parsed JSON value tree (map[string]any,
// []any, string, or scalar) and resolves environment-variable references
// in every string it finds.
func expandEnvValue(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return expandEnvString(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			expanded, err := expandEnvValue(child)
			if err != nil {
				return nil, err
			}
			out[k] = expanded
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			expanded, err := expandEnvValue(child)
			if err != nil {
				return nil, err
			}
			out[i] = expanded
		}
		return out, nil
	default:
		return v, nil
	}
}
