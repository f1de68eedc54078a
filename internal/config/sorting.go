package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// SortMode selects the comparator used to order navigations or refinements.
type SortMode string

const (
	SortOff          SortMode = ""             // no sorting
	SortReference    SortMode = "reference"    // order by the recommendations popularity list
	SortAlphabetical SortMode = "alphabetical" // order by name or value
	SortExplicit     SortMode = "explicit"     // order by a configured list
)

// SortSetting is a navigation/refinement sort flag. Accepted forms:
//
//	true                         → reference order
//	"alphabetical" | "reference" → named mode
//	["brand", "colour"]          → explicit order
//	{"brand": ["Nike", "Adidas"]} → explicit order per navigation (refinements only)
type SortSetting struct {
	Mode    SortMode
	Order   []string
	ByField map[string][]string
}

// Enabled reports whether any sorting was requested.
func (s SortSetting) Enabled() bool {
	return s.Mode != SortOff
}

// OrderFor returns the explicit order that applies to the given navigation field.
func (s SortSetting) OrderFor(field string) []string {
	if order, ok := s.ByField[field]; ok {
		return order
	}
	return s.Order
}

// UnmarshalJSON decodes every accepted form.
func (s *SortSetting) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return s.set(raw)
}

// UnmarshalYAML decodes every accepted form.
func (s *SortSetting) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return s.set(raw)
}

// MarshalJSON writes the compact form the setting was most likely read from.
func (s SortSetting) MarshalJSON() ([]byte, error) {
	switch s.Mode {
	case SortOff:
		return []byte("false"), nil
	case SortReference:
		return []byte("true"), nil
	case SortExplicit:
		if len(s.ByField) > 0 {
			return json.Marshal(s.ByField)
		}
		return json.Marshal(s.Order)
	default:
		return json.Marshal(string(s.Mode))
	}
}

func (s *SortSetting) set(raw any) error {
	*s = SortSetting{}
	switch v := raw.(type) {
	case nil:
	case bool:
		if v {
			s.Mode = SortReference
		}
	case string:
		switch SortMode(v) {
		case SortReference, SortAlphabetical:
			s.Mode = SortMode(v)
		case SortOff, "none", "false":
		default:
			return fmt.Errorf("unknown sort mode %q", v)
		}
	case []any:
		order, err := stringList(v)
		if err != nil {
			return err
		}
		s.Mode = SortExplicit
		s.Order = order
	case map[string]any:
		s.Mode = SortExplicit
		s.ByField = make(map[string][]string, len(v))
		for field, values := range v {
			list, ok := values.([]any)
			if !ok {
				return fmt.Errorf("sort order for %q must be a list", field)
			}
			order, err := stringList(list)
			if err != nil {
				return err
			}
			s.ByField[field] = order
		}
	default:
		return fmt.Errorf("unsupported sort setting %T", raw)
	}
	return nil
}

// stringList converts decoded list entries to strings; numbers are formatted.
func stringList(values []any) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		switch e := v.(type) {
		case string:
			out = append(out, e)
		case float64, int:
			out = append(out, fmt.Sprint(e))
		default:
			return nil, fmt.Errorf("unsupported list entry %T", v)
		}
	}
	return out, nil
}
