package loader

import (
	"fmt"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// yamlLine extracts the line number yaml.v3 embeds in its messages.
var yamlLine = regexp.MustCompile(`line (\d+)`)

// parseYAML parses YAML data into a map. Nested mappings must have string
// keys so they merge with TOML input.
func parseYAML(source string, data []byte) (map[string]any, error) {
	var config map[string]any
	if err := yaml.Unmarshal(data, &config); err != nil {
		pe := &ParseError{Path: source, Message: err.Error(), Err: err}
		if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
			pe.Line, _ = strconv.Atoi(m[1])
		}
		return nil, pe
	}
	if err := checkKeys(config, ""); err != nil {
		return nil, &ParseError{Path: source, Message: err.Error(), Err: err}
	}
	return config, nil
}

// checkKeys rejects mappings decoded with non-string keys.
func checkKeys(m map[string]any, prefix string) error {
	for k, v := range m {
		switch child := v.(type) {
		case map[string]any:
			if err := checkKeys(child, prefix+k+"."); err != nil {
				return err
			}
		case map[any]any:
			return fmt.Errorf("%s%s: mapping keys must be strings", prefix, k)
		}
	}
	return nil
}
