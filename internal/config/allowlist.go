package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// AllowList maps a navigation field to its permitted refinement values.
// An empty list permits every refinement of that field; a missing field permits none.
type AllowList map[string][]AllowEntry

// AllowEntry is a permitted refinement value with an optional display label.
// Written either as a raw value ("red", 42) or as {"value": "red", "display": "Red"}.
type AllowEntry struct {
	Value   string `json:"value" yaml:"value"`
	Display string `json:"display,omitempty" yaml:"display,omitempty"`
}

// UnmarshalJSON accepts raw values and {value, display} objects.
func (e *AllowEntry) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return e.set(raw)
}

// UnmarshalYAML accepts raw values and {value, display} mappings.
func (e *AllowEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*e = AllowEntry{Value: node.Value}
		return nil
	}
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return e.set(raw)
}

func (e *AllowEntry) set(raw any) error {
	switch v := raw.(type) {
	case string:
		*e = AllowEntry{Value: v}
	case float64, int, bool:
		*e = AllowEntry{Value: fmt.Sprint(v)}
	case map[string]any:
		*e = AllowEntry{
			Value:   fmt.Sprint(v["value"]),
			Display: displayString(v["display"]),
		}
		if v["value"] == nil {
			e.Value = ""
		}
	default:
		return fmt.Errorf("unsupported allow-list entry %T", raw)
	}
	return nil
}

func displayString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
