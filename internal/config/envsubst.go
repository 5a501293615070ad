package config

import (
	"os"
	"regexp"
	"strings"
)

// envVarPattern matches ${VAR_NAME} and ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// substituteEnvVars replaces ${VAR} references with environment
// variable values. ${VAR:-default} falls back to default when VAR is
// unset or empty. References with no value and no default are left
// unchanged and reported in missing.
func substituteEnvVars(content string) (string, []string) {
	var missing []string

	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		expr := match[2 : len(match)-1] // strip ${ and }

		name, def, hasDefault := strings.Cut(expr, ":-")
		if value := os.Getenv(name); value != "" {
			return value
		}
		if hasDefault {
			return def
		}
		missing = append(missing, name)
		return match
	})

	return result, missing
}
