package config

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"storefront/internal/model"
)

func TestSelectableJSONForms(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantOptions []int
		wantDefault int
		wantIndex   int
	}{
		{"bare value", `24`, []int{24}, 24, 0},
		{"list with default", `{"options": [12, 24, 48], "default": 48}`, []int{12, 24, 48}, 48, 2},
		{"list without default", `{"options": [12, 24]}`, []int{12, 24}, 12, 0},
		{"default not in options", `{"options": [12, 24], "default": 99}`, []int{12, 24}, 99, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Selectable[int]
			if err := json.Unmarshal([]byte(tt.input), &s); err != nil {
				t.Fatalf("Unmarshal() error: %v", err)
			}
			if diff := cmp.Diff(tt.wantOptions, s.Options()); diff != "" {
				t.Errorf("Options() mismatch (-want +got):\n%s", diff)
			}
			if def, ok := s.Default(); !ok || def != tt.wantDefault {
				t.Errorf("Default() = %d, %v, want %d, true", def, ok, tt.wantDefault)
			}
			if idx := s.SelectedIndex(); idx != tt.wantIndex {
				t.Errorf("SelectedIndex() = %d, want %d", idx, tt.wantIndex)
			}
		})
	}
}

func TestSelectableYAMLMatchesJSON(t *testing.T) {
	var fromJSON, fromYAML Selectable[model.Sort]
	if err := json.Unmarshal([]byte(`{"options": [{"field": "price"}, {"field": "title"}], "default": {"field": "title"}}`), &fromJSON); err != nil {
		t.Fatalf("json error: %v", err)
	}
	if err := yaml.Unmarshal([]byte("options:\n  - field: price\n  - field: title\ndefault:\n  field: title\n"), &fromYAML); err != nil {
		t.Fatalf("yaml error: %v", err)
	}

	if diff := cmp.Diff(fromJSON.Options(), fromYAML.Options()); diff != "" {
		t.Errorf("Options() differ (-json +yaml):\n%s", diff)
	}
	if fromJSON.SelectedIndex() != 1 || fromYAML.SelectedIndex() != 1 {
		t.Errorf("SelectedIndex() = %d/%d, want 1/1", fromJSON.SelectedIndex(), fromYAML.SelectedIndex())
	}
}

func TestSelectableZero(t *testing.T) {
	var s Selectable[string]
	if !s.IsZero() {
		t.Error("zero Selectable should report IsZero")
	}
	if s.Options() == nil {
		t.Error("Options() should never be nil")
	}
	if _, ok := s.Default(); ok {
		t.Error("Default() ok = true on zero value")
	}

	if err := json.Unmarshal([]byte(`null`), &s); err != nil {
		t.Fatalf("Unmarshal(null) error: %v", err)
	}
	if !s.IsZero() {
		t.Error("null should leave Selectable unset")
	}
}

func TestSelectableMarshalJSON(t *testing.T) {
	data, err := json.Marshal(Value("brand"))
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if string(data) != `{"options":["brand"],"default":"brand"}` {
		t.Errorf("Marshal() = %s", data)
	}
}

func TestCollectionOption(t *testing.T) {
	var s Selectable[CollectionOption]
	input := `{"options": ["products", {"value": "faq", "label": "Help"}], "default": "products"}`
	if err := json.Unmarshal([]byte(input), &s); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	want := []CollectionOption{{Value: "products"}, {Value: "faq", Label: "Help"}}
	if diff := cmp.Diff(want, s.Options()); diff != "" {
		t.Errorf("Options() mismatch (-want +got):\n%s", diff)
	}
	if def, _ := s.Default(); def.Value != "products" {
		t.Errorf("Default() = %+v, want products", def)
	}
}

func TestSortSetting(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  SortSetting
	}{
		{"true", `true`, SortSetting{Mode: SortReference}},
		{"false", `false`, SortSetting{}},
		{"alphabetical", `"alphabetical"`, SortSetting{Mode: SortAlphabetical}},
		{"none", `"none"`, SortSetting{}},
		{"explicit list", `["brand", "colour"]`, SortSetting{Mode: SortExplicit, Order: []string{"brand", "colour"}}},
		{"per field", `{"brand": ["Nike", 7]}`, SortSetting{Mode: SortExplicit, ByField: map[string][]string{"brand": {"Nike", "7"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got SortSetting
			if err := json.Unmarshal([]byte(tt.input), &got); err != nil {
				t.Fatalf("Unmarshal() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SortSetting mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSortSettingErrors(t *testing.T) {
	for _, input := range []string{`"shuffle"`, `42`, `{"brand": "Nike"}`, `[{"a": 1}]`} {
		var s SortSetting
		if err := json.Unmarshal([]byte(input), &s); err == nil {
			t.Errorf("Unmarshal(%s) expected error", input)
		}
	}
}

func TestSortSettingOrderFor(t *testing.T) {
	s := SortSetting{
		Mode:    SortExplicit,
		Order:   []string{"a", "b"},
		ByField: map[string][]string{"brand": {"Nike"}},
	}
	if diff := cmp.Diff([]string{"Nike"}, s.OrderFor("brand")); diff != "" {
		t.Errorf("OrderFor(brand) mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b"}, s.OrderFor("colour")); diff != "" {
		t.Errorf("OrderFor(colour) mismatch:\n%s", diff)
	}
}

func TestSortSettingMarshalJSON(t *testing.T) {
	tests := []struct {
		setting SortSetting
		want    string
	}{
		{SortSetting{}, `false`},
		{SortSetting{Mode: SortReference}, `true`},
		{SortSetting{Mode: SortAlphabetical}, `"alphabetical"`},
		{SortSetting{Mode: SortExplicit, Order: []string{"x"}}, `["x"]`},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.setting)
		if err != nil {
			t.Fatalf("Marshal() error: %v", err)
		}
		if string(data) != tt.want {
			t.Errorf("Marshal(%+v) = %s, want %s", tt.setting, data, tt.want)
		}
	}
}

func TestAllowEntry(t *testing.T) {
	var list AllowList
	input := `{"colour": ["red", {"value": "blue", "display": "Blue"}, 3], "brand": []}`
	if err := json.Unmarshal([]byte(input), &list); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	want := AllowList{
		"colour": {{Value: "red"}, {Value: "blue", Display: "Blue"}, {Value: "3"}},
		"brand":  {},
	}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Errorf("AllowList mismatch (-want +got):\n%s", diff)
	}
}
