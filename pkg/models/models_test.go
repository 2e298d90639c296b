package models

import (
	"encoding/json"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"
)

func TestSchemeDirectory(t *testing.T) {
	d := SchemeDirectory{"120465": "Axis Bluechip", "100027": "Grindlays", "": "blank"}

	if !d.Has("120465") {
		t.Error("Has(120465) = false")
	}
	if d.Has("") {
		t.Error("Has(\"\") must be false")
	}
	if d.Has("999999") {
		t.Error("Has(999999) = true")
	}

	got := strings.Join(d.Codes(), ",")
	if got != ",100027,120465" {
		t.Errorf("Codes() = %q", got)
	}
}

func TestSchemeQuoteJSON(t *testing.T) {
	data, err := json.Marshal(SchemeQuote{})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{}" {
		t.Errorf("empty quote = %s, want {}", data)
	}
	if !(SchemeQuote{}).Empty() {
		t.Error("zero quote should be empty")
	}
}

func TestNAVSeriesJSON(t *testing.T) {
	tests := []struct {
		name   string
		series NAVSeries
		want   string
	}{
		{"entries", NAVSeries{Entries: []NAVEntry{{Date: "03-01-2023", NAV: "45.10"}}}, `[{"date":"03-01-2023","nav":"45.10"}]`},
		{"nil entries", NAVSeries{}, `[]`},
		{"unavailable", NAVSeries{Unavailable: "For Year 1999 Data is NOT available"}, `[{"Error":"For Year 1999 Data is NOT available"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.series)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Errorf("got %s, want %s", data, tt.want)
			}

			var back NAVSeries
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatal(err)
			}
			if back.OK() != tt.series.OK() || back.Len() != tt.series.Len() || back.Unavailable != tt.series.Unavailable {
				t.Errorf("decoded %+v, want %+v", back, tt.series)
			}
		})
	}
}

func TestHistoricalNAVJSON(t *testing.T) {
	h := HistoricalNAV{
		SchemeDetails: SchemeDetails{
			FundHouse:       "Axis Mutual Fund",
			SchemeCode:      "120465",
			SchemeStartDate: NAVEntry{Date: "02-01-2013", NAV: "10.00"},
		},
		Data: NAVSeries{Unavailable: "For Year 1999 Data is NOT available"},
	}
	data, err := json.Marshal(h)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"fund_house", "scheme_type", "scheme_category", "scheme_code", "scheme_name", "scheme_start_date", "data"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
	if string(decoded["data"]) != `[{"Error":"For Year 1999 Data is NOT available"}]` {
		t.Errorf("data = %s", decoded["data"])
	}
}

func TestHistoricalNAVYAML(t *testing.T) {
	h := HistoricalNAV{
		SchemeDetails: SchemeDetails{FundHouse: "Axis Mutual Fund"},
		Data:          NAVSeries{Entries: []NAVEntry{{Date: "03-01-2023", NAV: "45.10"}}},
	}
	data, err := yaml.Marshal(h)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{"fund_house: Axis Mutual Fund", "date: 03-01-2023", `nav: "45.10"`} {
		if !strings.Contains(out, want) {
			t.Errorf("YAML missing %q:\n%s", want, out)
		}
	}
}

func TestBalanceValueJSONIsFlat(t *testing.T) {
	v := BalanceValue{
		SchemeQuote:       SchemeQuote{SchemeCode: "120465", NAV: "12.3456"},
		BalanceUnitsValue: "123.46",
	}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"scheme_code":"120465","nav":"12.3456","balance_units_value":"123.46"}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestPerformanceReportJSON(t *testing.T) {
	report := PerformanceReport{
		{
			Category: FundCategory{Name: "Large Cap", Code: "SEQ_LC"},
			Rows:     []PerformanceRow{{SchemeName: "Axis Bluechip Fund", Return1YDirect: "13.6"}},
		},
		{
			Category:    FundCategory{Name: "Contra", Code: "SEQ_CONT"},
			Unavailable: PerformanceUnavailable,
		},
	}

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)

	if !strings.HasPrefix(out, `{"Large Cap":[{"scheme_name":"Axis Bluechip Fund"`) {
		t.Errorf("unexpected prefix: %s", out)
	}
	if !strings.Contains(out, `"1-Year Return(%)- Direct":"13.6"`) {
		t.Errorf("missing 1Y direct key: %s", out)
	}
	if !strings.HasSuffix(out, `"Contra":["The underlying data is unavailable for Today"]}`) {
		t.Errorf("unexpected suffix: %s", out)
	}

	if _, ok := report.Get("Contra"); !ok {
		t.Error("Get(Contra) not found")
	}
	if _, ok := report.Get("Hybrid"); ok {
		t.Error("Get(Hybrid) found")
	}
}

func TestPerformanceReportEmptyCategory(t *testing.T) {
	data, err := json.Marshal(PerformanceReport{{Category: FundCategory{Name: "ELSS"}}})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"ELSS":[]}` {
		t.Errorf("got %s", data)
	}
}

func TestPerformanceReportYAML(t *testing.T) {
	report := PerformanceReport{
		{Category: FundCategory{Name: "Value"}, Unavailable: PerformanceUnavailable},
	}
	data, err := yaml.Marshal(report)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.HasPrefix(out, "Value:\n") || !strings.Contains(out, "- The underlying data is unavailable for Today") {
		t.Errorf("unexpected YAML:\n%s", out)
	}
}

func TestPerformanceReportYAMLKeepsOrder(t *testing.T) {
	report := PerformanceReport{
		{Category: FundCategory{Name: "Value"}},
		{Category: FundCategory{Name: "Contra"}},
	}
	data, err := yaml.Marshal(report)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if strings.Index(out, "Value:") > strings.Index(out, "Contra:") {
		t.Errorf("categories out of order:\n%s", out)
	}
}
