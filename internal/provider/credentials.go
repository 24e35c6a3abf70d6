/*
PURPOSE:
  Resolves configured API keys: literals or whole-string ${NAME} references.

REQUIREMENTS:
  User-specified:
  - ${NAME} reads the environment; unset means no key.

  Implementation-discovered:
  - Keys often live in a .env file next to providers.yaml.

ERROR HANDLING:
  - A missing key is reported as ok=false, never as an error.

IMPLEMENTATION RULES:
  - Never log resolved keys.
*/

package provider

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ResolveKey expands a configured key string.
//
// A value that is exactly ${NAME} is replaced by the NAME environment
// variable; anything else is a literal key. ok is false when nothing usable
// resolved.
func ResolveKey(raw string) (string, bool) {
	key := strings.TrimSpace(raw)
	if key == "" {
		return "", false
	}
	if strings.HasPrefix(key, "${") && strings.HasSuffix(key, "}") && len(key) >= 3 {
		val, set := os.LookupEnv(key[2 : len(key)-1])
		if !set || val == "" {
			return "", false
		}
		return val, true
	}
	return key, true
}

// LoadEnvFiles loads .env files into the process environment without
// overriding variables that are already set. Missing files are an error.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}
