package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Selectable holds a configuration value that may be written either as a bare
// value or as a selectable list:
//
//	"pageSize": 24
//	"pageSize": {"options": [12, 24, 48], "default": 24}
//
// Both forms normalise to the same (options, default) pair.
type Selectable[T comparable] struct {
	options    []T
	def        T
	hasDefault bool
}

// Select builds a selectable list programmatically.
func Select[T comparable](options []T, def T) Selectable[T] {
	return Selectable[T]{options: options, def: def, hasDefault: true}
}

// Value builds the bare-value form.
func Value[T comparable](v T) Selectable[T] {
	return Selectable[T]{options: []T{v}, def: v, hasDefault: true}
}

// Options returns the configured options. Never nil.
func (s Selectable[T]) Options() []T {
	if s.options == nil {
		return []T{}
	}
	return s.options
}

// Default returns the configured default, falling back to the first option.
// ok is false when nothing is configured.
func (s Selectable[T]) Default() (v T, ok bool) {
	if s.hasDefault {
		return s.def, true
	}
	if len(s.options) > 0 {
		return s.options[0], true
	}
	return v, false
}

// SelectedIndex returns the position of the default within the options, or 0.
func (s Selectable[T]) SelectedIndex() int {
	def, ok := s.Default()
	if !ok {
		return 0
	}
	for i, opt := range s.options {
		if opt == def {
			return i
		}
	}
	return 0
}

// IsZero reports whether the value was left unconfigured.
func (s Selectable[T]) IsZero() bool {
	return len(s.options) == 0 && !s.hasDefault
}

type selectableList[T comparable] struct {
	Options []T `json:"options" yaml:"options"`
	Default *T  `json:"default,omitempty" yaml:"default,omitempty"`
}

// UnmarshalJSON accepts the bare value and {options, default} forms.
func (s *Selectable[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err == nil {
		if _, ok := fields["options"]; ok {
			var list selectableList[T]
			if err := json.Unmarshal(data, &list); err != nil {
				return fmt.Errorf("selectable list: %w", err)
			}
			s.fromList(list)
			return nil
		}
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Value(v)
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML config files.
func (s *Selectable[T]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode && hasMappingKey(node, "options") {
		var list selectableList[T]
		if err := node.Decode(&list); err != nil {
			return fmt.Errorf("selectable list: %w", err)
		}
		s.fromList(list)
		return nil
	}

	var v T
	if err := node.Decode(&v); err != nil {
		return err
	}
	*s = Value(v)
	return nil
}

// MarshalJSON always writes the list form.
func (s Selectable[T]) MarshalJSON() ([]byte, error) {
	list := selectableList[T]{Options: s.Options()}
	if def, ok := s.Default(); ok {
		list.Default = &def
	}
	return json.Marshal(list)
}

func (s *Selectable[T]) fromList(list selectableList[T]) {
	s.options = list.Options
	s.hasDefault = list.Default != nil
	if list.Default != nil {
		s.def = *list.Default
	}
}

// hasMappingKey reports whether a YAML mapping node contains key.
func hasMappingKey(node *yaml.Node, key string) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}

// CollectionOption is a collection entry: either a bare name or {value, label}.
type CollectionOption struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// UnmarshalJSON accepts "name" and {"value": "name", "label": "Name"}.
func (c *CollectionOption) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*c = CollectionOption{Value: name}
		return nil
	}
	type plain CollectionOption
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("collection option: %w", err)
	}
	*c = CollectionOption(p)
	return nil
}

// UnmarshalYAML accepts a scalar name or a {value, label} mapping.
func (c *CollectionOption) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*c = CollectionOption{Value: node.Value}
		return nil
	}
	type plain CollectionOption
	var p plain
	if err := node.Decode(&p); err != nil {
		return fmt.Errorf("collection option: %w", err)
	}
	*c = CollectionOption(p)
	return nil
}
