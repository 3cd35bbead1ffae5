package loader

import (
	"os"
	"strings"
)

// DefaultEnvPrefix is the prefix of arcane's environment variables.
const DefaultEnvPrefix = "ARCANE_"

// EnvLoader loads configuration from environment variables.
//
// Values are kept as strings; package config converts them to the type
// each setting expects.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "ARCANE_")
	mapping map[string]string // Env var -> config path
	environ func() []string
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore (e.g., "ARCANE_").
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(prefix),
		environ: os.Environ,
	}
}

// NewEnvLoaderFrom creates a loader reading from a fixed environment, given
// as KEY=value pairs.
func NewEnvLoaderFrom(prefix string, environ []string) *EnvLoader {
	l := NewEnvLoader(prefix)
	l.environ = func() []string { return environ }
	return l
}

// defaultEnvMapping returns short aliases for common settings.
func defaultEnvMapping(prefix string) map[string]string {
	return map[string]string{
		prefix + "LOG_LEVEL": "logging.level",
		prefix + "BACKEND":   "engine.backend",
		prefix + "TAB_WIDTH": "engine.tab_width",
	}
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	l.mapping[envVar] = configPath
}

// Load reads environment variables and returns a configuration map.
// Note: Empty string values are treated as valid values, not as unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for _, env := range l.environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		path, mapped := l.mapping[name]
		if !mapped {
			path = l.envToPath(name)
		}
		if path == "" {
			continue
		}
		SetPath(config, path, value)
	}

	return config, nil
}

// envToPath converts ARCANE_HISTORY_MAX_ENTRIES to history.max_entries.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.ToLower(strings.TrimPrefix(env, l.prefix))
	section, setting, ok := strings.Cut(name, "_")
	if !ok || section == "" || setting == "" {
		return ""
	}
	return section + "." + setting
}
