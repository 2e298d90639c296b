package models

import (
	"bytes"
	"encoding/json"

	"go.yaml.in/yaml/v3"
)

// PerformanceUnavailable is reported for a category whose page could not be parsed.
const PerformanceUnavailable = "The underlying data is unavailable for Today"

// FundCategory is an open-ended equity fund category on Value Research.
type FundCategory struct {
	Name string `json:"name" yaml:"name"`
	Code string `json:"code" yaml:"code"`
}

// PerformanceRow is one scheme's line in a category performance table.
// Values are kept as displayed; returns are percentages.
type PerformanceRow struct {
	SchemeName      string `json:"scheme_name"               yaml:"scheme_name"`
	Benchmark       string `json:"benchmark"                 yaml:"benchmark"`
	NAVRegular      string `json:"latest NAV- Regular"       yaml:"latest NAV- Regular"`
	NAVDirect       string `json:"latest NAV- Direct"        yaml:"latest NAV- Direct"`
	Return1YRegular string `json:"1-Year Return(%)- Regular" yaml:"1-Year Return(%)- Regular"`
	Return1YDirect  string `json:"1-Year Return(%)- Direct"  yaml:"1-Year Return(%)- Direct"`
	Return3YRegular string `json:"3-Year Return(%)- Regular" yaml:"3-Year Return(%)- Regular"`
	Return3YDirect  string `json:"3-Year Return(%)- Direct"  yaml:"3-Year Return(%)- Direct"`
	Return5YRegular string `json:"5-Year Return(%)- Regular" yaml:"5-Year Return(%)- Regular"`
	Return5YDirect  string `json:"5-Year Return(%)- Direct"  yaml:"5-Year Return(%)- Direct"`
}

// CategoryPerformance holds the rows of one category, or the reason there are none.
type CategoryPerformance struct {
	Category    FundCategory
	NAVDate     string // dd-Mon-yyyy reference date used for the request
	Rows        []PerformanceRow
	Unavailable string
}

// OK reports whether the category page was parsed.
func (c CategoryPerformance) OK() bool { return c.Unavailable == "" }

func (c CategoryPerformance) wire() any {
	if !c.OK() {
		return []string{c.Unavailable}
	}
	if c.Rows == nil {
		return []PerformanceRow{}
	}
	return c.Rows
}

// MarshalJSON implements json.Marshaler.
func (c CategoryPerformance) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.wire())
}

// MarshalYAML implements yaml.Marshaler.
func (c CategoryPerformance) MarshalYAML() (any, error) {
	return c.wire(), nil
}

// PerformanceReport is the performance of every category, in category order.
type PerformanceReport []CategoryPerformance

// Get returns the entry for the named category.
func (r PerformanceReport) Get(name string) (CategoryPerformance, bool) {
	for _, c := range r {
		if c.Category.Name == name {
			return c, true
		}
	}
	return CategoryPerformance{}, false
}

// MarshalJSON encodes the report as an object keyed by category name,
// keeping category order.
func (r PerformanceReport) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r {
		if i > 0 {
			buf.WriteString(", ")
		}
		key, err := json.Marshal(c.Category.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML implements yaml.Marshaler as a mapping in category order.
func (r PerformanceReport) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, c := range r {
		var val yaml.Node
		if err := val.Encode(c.wire()); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c.Category.Name},
			&val,
		)
	}
	return node, nil
}
