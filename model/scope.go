package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scope is a list of glob patterns narrowing where a standard applies.
// It decodes from null, a comma-joined string, or an array of comma-joined strings.
type Scope []string

// NormalizeScope flattens raw scope values into trimmed, non-empty patterns
func NormalizeScope(raw interface{}) []string {
	var ret []string
	var add func(v interface{})
	add = func(v interface{}) {
		switch actual := v.(type) {
		case nil:
		case string:
			for _, part := range strings.Split(actual, ",") {
				if part = strings.TrimSpace(part); part != "" {
					ret = append(ret, part)
				}
			}
		case []string:
			for _, item := range actual {
				add(item)
			}
		case []interface{}:
			for _, item := range actual {
				add(item)
			}
		case Scope:
			add([]string(actual))
		default:
			add(fmt.Sprint(actual))
		}
	}
	add(raw)
	return ret
}

// UnmarshalJSON normalizes any supported scope shape
func (s *Scope) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode scope: %w", err)
	}
	*s = NormalizeScope(raw)
	return nil
}

// UnmarshalYAML normalizes any supported scope shape
func (s *Scope) UnmarshalYAML(node *yaml.Node) error {
	var raw interface{}
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("failed to decode scope: %w", err)
	}
	*s = NormalizeScope(raw)
	return nil
}
