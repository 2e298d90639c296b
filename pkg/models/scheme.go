package models

import (
	"encoding/json"
	"sort"
)

// SchemeDirectory maps AMFI scheme codes to scheme names.
// It is rebuilt from the NAV feed on every fetch.
type SchemeDirectory map[string]string

// Has reports whether code is present in the directory.
func (d SchemeDirectory) Has(code string) bool {
	if code == "" {
		return false
	}
	_, ok := d[code]
	return ok
}

// Codes returns the scheme codes in ascending order.
func (d SchemeDirectory) Codes() []string {
	codes := make([]string, 0, len(d))
	for c := range d {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Scheme is a single code/name pair.
type Scheme struct {
	Code string `json:"scheme_code" yaml:"scheme_code"`
	Name string `json:"scheme_name" yaml:"scheme_name"`
}

// SchemeQuote is the latest NAV of a scheme as published in the AMFI feed.
// The zero value means no feed line matched the requested code.
type SchemeQuote struct {
	SchemeCode  string `json:"scheme_code,omitempty"  yaml:"scheme_code,omitempty"`
	SchemeName  string `json:"scheme_name,omitempty"  yaml:"scheme_name,omitempty"`
	LastUpdated string `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
	NAV         string `json:"nav,omitempty"          yaml:"nav,omitempty"` // decimal as published
}

// Empty reports whether the quote carries no data.
func (q SchemeQuote) Empty() bool {
	return q == SchemeQuote{}
}

// BalanceValue is a quote plus the market value of a unit holding.
type BalanceValue struct {
	SchemeQuote       `yaml:",inline"`
	BalanceUnitsValue string `json:"balance_units_value" yaml:"balance_units_value"`
}

// NAVEntry is one point of a NAV history, as published by MFAPI.
type NAVEntry struct {
	Date string `json:"date" yaml:"date"` // dd-mm-yyyy
	NAV  string `json:"nav"  yaml:"nav"`
}

// SchemeDetails is the static metadata of a scheme.
type SchemeDetails struct {
	FundHouse       string   `json:"fund_house"        yaml:"fund_house"`
	SchemeType      string   `json:"scheme_type"       yaml:"scheme_type"`
	SchemeCategory  string   `json:"scheme_category"   yaml:"scheme_category"`
	SchemeCode      string   `json:"scheme_code"       yaml:"scheme_code"`
	SchemeName      string   `json:"scheme_name"       yaml:"scheme_name"`
	SchemeStartDate NAVEntry `json:"scheme_start_date" yaml:"scheme_start_date"` // oldest NAV record
}

// NAVSeries is a NAV history or the reason none is available.
// On the wire an unavailable series is a single {"Error": reason} element.
type NAVSeries struct {
	Entries     []NAVEntry
	Unavailable string
}

// OK reports whether the series carries data rather than an unavailability reason.
func (s NAVSeries) OK() bool { return s.Unavailable == "" }

// Len returns the number of NAV entries.
func (s NAVSeries) Len() int { return len(s.Entries) }

type navSeriesError struct {
	Error string `json:"Error" yaml:"Error"`
}

func (s NAVSeries) wire() any {
	if !s.OK() {
		return []navSeriesError{{Error: s.Unavailable}}
	}
	if s.Entries == nil {
		return []NAVEntry{}
	}
	return s.Entries
}

// MarshalJSON implements json.Marshaler.
func (s NAVSeries) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.wire())
}

// MarshalYAML implements yaml.Marshaler.
func (s NAVSeries) MarshalYAML() (any, error) {
	return s.wire(), nil
}

// UnmarshalJSON accepts both the data and the {"Error": ...} form.
func (s *NAVSeries) UnmarshalJSON(data []byte) error {
	var raw []map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NAVSeries{}
	if len(raw) == 1 {
		if reason, ok := raw[0]["Error"]; ok {
			s.Unavailable = reason
			return nil
		}
	}
	s.Entries = make([]NAVEntry, 0, len(raw))
	for _, r := range raw {
		s.Entries = append(s.Entries, NAVEntry{Date: r["date"], NAV: r["nav"]})
	}
	return nil
}

// HistoricalNAV is scheme metadata together with its NAV history.
type HistoricalNAV struct {
	SchemeDetails `yaml:",inline"`
	Data          NAVSeries `json:"data" yaml:"data"`
}
