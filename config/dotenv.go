package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads a local .env file (if present) into the process
// environment before configuration is read, so ${API_KEY}-style references
// in a config file resolve the same way in development as in production.
// A missing file is not an error: godotenv.Load fails when the file cannot
// be opened, so os.Stat is checked first and the common "no .env file" case
// returns nil without calling it.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// DefaultAPIKeyEnvVar returns the conventional environment variable name
// for a well-known provider's API key (driverID upper-snake-cased plus
// "_API_KEY"). The loader does not call it. This is purely a
// naming convention lookup table — it never supplies an endpoint, model,
// or any other driver-specific default, preserving "driver is a pure
// identifier" (original_source/src/flow/config/driver.rs). Unknown
// drivers resolve to "", leaving resolution entirely to the config file.
func DefaultAPIKeyEnvVar(driverID string) string {
	switch driverID {
	case "echo", "generic", "":
		return ""
	default:
		return upperSnake(driverID) + "_API_KEY"
	}
}

func upperSnake(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '-' {
			out = append(out, '_')
			continue
		}
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}
