package mftool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/mfindia/pkg/models"
	"github.com/seenimoa/mfindia/pkg/utils"
)

const navFeed = "Scheme Code;ISIN Div Payout/ ISIN Growth;ISIN Div Reinvestment;Scheme Name;Net Asset Value;Date\r\n" +
	"\r\n" +
	"Open Ended Schemes(Equity Scheme - Large Cap Fund)\r\n" +
	"\r\n" +
	"Axis Mutual Fund\r\n" +
	"120465;INF846K01DP8;-;Axis Bluechip Fund - Direct Plan - Growth;12.3456;16-Oct-2026\r\n" +
	"120466;INF846K01DQ6;-;Axis Bluechip Fund - Regular Plan - Growth;11.0000;16-Oct-2026\r\n" +
	"\r\n" +
	"Mirae Asset Mutual Fund\r\n" +
	"118834;INF769K01AX2;-;Mirae Asset Large Cap Fund - Direct Plan - Growth;N.A.;16-Oct-2026\r\n"

const schemeJSON = `{
  "meta": {
    "fund_house": "Axis Mutual Fund",
    "scheme_type": "Open Ended Schemes",
    "scheme_category": "Equity Scheme - Large Cap Fund",
    "scheme_code": 120465,
    "scheme_name": "Axis Bluechip Fund - Direct Plan - Growth"
  },
  "data": [
    {"date": "03-01-2023", "nav": "45.10"},
    {"date": "30-12-2022", "nav": "44.90"},
    {"date": "15-06-2022", "nav": "40.00"},
    {"date": "02-01-2013", "nav": "10.00"}
  ],
  "status": "SUCCESS"
}`

const performanceTable = `<html><body><table><tbody>
<tr>
  <td><a href="/funds/1">Axis Bluechip Fund</a></td>
  <td>NIFTY 100 TRI</td>
  <td class="nav text-right">45.12</td>
  <td class="nav text-right">50.34</td>
  <td class="1Y text-right">12.5</td>
  <td class="1Y text-right">13.6</td>
  <td class="3Y text-right hidden">9.1</td>
  <td class="3Y text-right hidden">10.2</td>
  <td class="5Y text-right hidden">11.0</td>
  <td class="5Y text-right hidden">12.1</td>
</tr>
</tbody></table></body></html>`

// upstream fakes the three public sources behind one server.
type upstream struct {
	srv        *httptest.Server
	feedHits   atomic.Int32
	schemeHits atomic.Int32
	perfHits   atomic.Int32
	// brokenCategory gets a page without a table.
	brokenCategory string
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/NAVAll.txt":
			u.feedHits.Add(1)
			_, _ = io.WriteString(w, navFeed)
		case strings.HasPrefix(r.URL.Path, "/mf/"):
			u.schemeHits.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, schemeJSON)
		case r.URL.Path == "/perf":
			u.perfHits.Add(1)
			if r.URL.Query().Get("category") == u.brokenCategory {
				_, _ = io.WriteString(w, "<html><body>maintenance</body></html>")
				return
			}
			_, _ = io.WriteString(w, performanceTable)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(u.srv.Close)
	return u
}

// friday is 16-Oct-2026 in IST.
var friday = time.Date(2026, 10, 16, 11, 0, 0, 0, utils.IST)

func (u *upstream) client(opts ...Option) *Client {
	base := []Option{
		WithEndpoints(
			u.srv.URL+"/NAVAll.txt",
			u.srv.URL+"/mf/",
			u.srv.URL+"/perf?category=CAT",
		),
		WithClock(func() time.Time { return friday }),
	}
	return New(append(base, opts...)...)
}

func TestGetSchemeCodes(t *testing.T) {
	u := newUpstream(t)
	codes, err := u.client().GetSchemeCodes(context.Background())
	require.NoError(t, err)

	assert.Len(t, codes, 3)
	assert.Equal(t, "Axis Bluechip Fund - Direct Plan - Growth", codes["120465"])
	assert.Equal(t, []string{"118834", "120465", "120466"}, codes.Codes())
}

func TestIsValidCode(t *testing.T) {
	u := newUpstream(t)
	c := u.client()
	ctx := context.Background()

	for _, code := range []any{"120465", 120465, " 118834 "} {
		ok, err := c.IsValidCode(ctx, code)
		require.NoError(t, err)
		assert.True(t, ok, "code %v", code)
	}

	before := u.feedHits.Load()
	for _, code := range []any{nil, ""} {
		ok, err := c.IsValidCode(ctx, code)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, before, u.feedHits.Load(), "empty codes are rejected without a request")

	ok, err := c.IsValidCode(ctx, "999999")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsValidCodePropagatesTransportErrors(t *testing.T) {
	c := New(WithEndpoints("http://127.0.0.1:1/NAVAll.txt", "", ""))
	_, err := c.IsValidCode(context.Background(), "120465")
	require.Error(t, err)
}

func TestDirectoryFetchedOnEveryCallByDefault(t *testing.T) {
	u := newUpstream(t)
	c := u.client()
	for range 3 {
		_, err := c.IsValidCode(context.Background(), "120465")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), u.feedHits.Load())
}

func TestDirectoryCache(t *testing.T) {
	u := newUpstream(t)
	c := u.client(WithDirectoryCache(time.Minute))
	ctx := context.Background()

	for range 3 {
		ok, err := c.IsValidCode(ctx, "120465")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, int32(1), u.feedHits.Load())

	codes, err := c.GetSchemeCodes(ctx)
	require.NoError(t, err)
	delete(codes, "120465")

	ok, err := c.IsValidCode(ctx, "120465")
	require.NoError(t, err)
	assert.True(t, ok, "callers cannot mutate the cached directory")
}

func TestSearchSchemes(t *testing.T) {
	u := newUpstream(t)
	got, err := u.client().SearchSchemes(context.Background(), "bluechip")
	require.NoError(t, err)
	assert.Equal(t, []models.Scheme{
		{Code: "120465", Name: "Axis Bluechip Fund - Direct Plan - Growth"},
		{Code: "120466", Name: "Axis Bluechip Fund - Regular Plan - Growth"},
	}, got)

	got, err = u.client().SearchSchemes(context.Background(), "no such fund")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetSchemeQuote(t *testing.T) {
	u := newUpstream(t)
	q, err := u.client().GetSchemeQuote(context.Background(), 120465)
	require.NoError(t, err)
	assert.Equal(t, &models.SchemeQuote{
		SchemeCode:  "120465",
		SchemeName:  "Axis Bluechip Fund - Direct Plan - Growth",
		LastUpdated: "16-Oct-2026",
		NAV:         "12.3456",
	}, q)
}

func TestInvalidCodeReturnsNil(t *testing.T) {
	u := newUpstream(t)
	c := u.client()
	ctx := context.Background()

	q, err := c.GetSchemeQuote(ctx, "999999")
	assert.Nil(t, q)
	assert.ErrorIs(t, err, ErrInvalidSchemeCode)

	d, err := c.GetSchemeDetails(ctx, "999999")
	assert.Nil(t, d)
	assert.ErrorIs(t, err, ErrInvalidSchemeCode)

	h, err := c.GetSchemeHistoricalNAV(ctx, "999999")
	assert.Nil(t, h)
	assert.ErrorIs(t, err, ErrInvalidSchemeCode)

	h, err = c.GetSchemeHistoricalNAVYear(ctx, "999999", "not a year")
	assert.Nil(t, h)
	assert.ErrorIs(t, err, ErrInvalidSchemeCode, "code is checked before the year")

	from := time.Date(2023, 1, 1, 0, 0, 0, 0, utils.IST)
	h, err = c.GetSchemeHistoricalNAVRange(ctx, "999999", from, from.AddDate(0, 1, 0))
	assert.Nil(t, h)
	assert.ErrorIs(t, err, ErrInvalidSchemeCode)

	v, err := c.CalculateBalanceUnitsValue(ctx, "999999", 10)
	assert.Nil(t, v)
	assert.ErrorIs(t, err, ErrInvalidSchemeCode)

	assert.Zero(t, u.schemeHits.Load(), "invalid codes never reach MFAPI")
}

func TestCalculateBalanceUnitsValue(t *testing.T) {
	u := newUpstream(t)
	c := u.client()
	ctx := context.Background()

	for _, units := range []any{"10", 10, 10.0} {
		v, err := c.CalculateBalanceUnitsValue(ctx, "120465", units)
		require.NoError(t, err)
		assert.Equal(t, "123.46", v.BalanceUnitsValue, "units %v", units)
		assert.Equal(t, "12.3456", v.NAV)
		assert.Equal(t, "120465", v.SchemeCode)
	}

	_, err := c.CalculateBalanceUnitsValue(ctx, "120465", "ten")
	assert.ErrorIs(t, err, ErrInvalidNumber)

	_, err = c.CalculateBalanceUnitsValue(ctx, "118834", 5)
	assert.ErrorIs(t, err, ErrInvalidNumber, "a non-numeric NAV cannot be valued")
}

func TestBalanceValueJSON(t *testing.T) {
	u := newUpstream(t)
	v, err := u.client().CalculateBalanceUnitsValue(context.Background(), "120465", "10")
	require.NoError(t, err)

	out, err := RenderJSON(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"scheme_code": "120465",
		"scheme_name": "Axis Bluechip Fund - Direct Plan - Growth",
		"last_updated": "16-Oct-2026",
		"nav": "12.3456",
		"balance_units_value": "123.46"
	}`, out)
}

func TestGetSchemeDetails(t *testing.T) {
	u := newUpstream(t)
	d, err := u.client().GetSchemeDetails(context.Background(), "120465")
	require.NoError(t, err)
	assert.Equal(t, "Axis Mutual Fund", d.FundHouse)
	assert.Equal(t, "120465", d.SchemeCode)
	assert.Equal(t, models.NAVEntry{Date: "02-01-2013", NAV: "10.00"}, d.SchemeStartDate)
}

func TestGetSchemeHistoricalNAV(t *testing.T) {
	u := newUpstream(t)
	h, err := u.client().GetSchemeHistoricalNAV(context.Background(), "120465")
	require.NoError(t, err)
	assert.True(t, h.Data.OK())
	assert.Equal(t, 4, h.Data.Len())
	assert.Equal(t, "03-01-2023", h.Data.Entries[0].Date, "newest first, as published")
	assert.Equal(t, int32(1), u.schemeHits.Load(), "one MFAPI request per call")
}

func TestGetSchemeHistoricalNAVYear(t *testing.T) {
	u := newUpstream(t)
	c := u.client()
	ctx := context.Background()

	h, err := c.GetSchemeHistoricalNAVYear(ctx, "120465", "2022")
	require.NoError(t, err)
	assert.Equal(t, []models.NAVEntry{
		{Date: "30-12-2022", NAV: "44.90"},
		{Date: "15-06-2022", NAV: "40.00"},
	}, h.Data.Entries)
	assert.Equal(t, "Axis Mutual Fund", h.FundHouse)

	h, err = c.GetSchemeHistoricalNAVYear(ctx, "120465", 1999)
	require.NoError(t, err)
	assert.False(t, h.Data.OK())

	out, err := RenderJSON(h)
	require.NoError(t, err)
	var decoded struct {
		Data []map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, []map[string]string{{"Error": "For Year 1999 Data is NOT available"}}, decoded.Data)

	_, err = c.GetSchemeHistoricalNAVYear(ctx, "120465", "twenty")
	assert.Error(t, err)
}

func TestGetSchemeHistoricalNAVRange(t *testing.T) {
	u := newUpstream(t)
	c := u.client()
	ctx := context.Background()

	from := time.Date(2022, 12, 30, 0, 0, 0, 0, utils.IST)
	to := time.Date(2023, 1, 3, 0, 0, 0, 0, utils.IST)
	h, err := c.GetSchemeHistoricalNAVRange(ctx, "120465", from, to)
	require.NoError(t, err)
	assert.Equal(t, []models.NAVEntry{
		{Date: "03-01-2023", NAV: "45.10"},
		{Date: "30-12-2022", NAV: "44.90"},
	}, h.Data.Entries)

	_, err = c.GetSchemeHistoricalNAVRange(ctx, "120465", to, from)
	assert.Error(t, err)
}

func TestCategories(t *testing.T) {
	c := New()
	cats := c.Categories()
	require.Len(t, cats, 10)
	assert.Equal(t, "Large Cap", cats[0].Name)
	assert.Equal(t, "Focused", cats[9].Name)

	cats[0].Name = "changed"
	assert.Equal(t, "Large Cap", c.Categories()[0].Name)
}

func TestGetOpenEndedEquitySchemePerformance(t *testing.T) {
	u := newUpstream(t)
	u.brokenCategory = "SEQ_MC"

	report, err := u.client().GetOpenEndedEquitySchemePerformance(context.Background())
	require.NoError(t, err)
	require.Len(t, report, 10)
	assert.Equal(t, int32(10), u.perfHits.Load())

	large, ok := report.Get("Large Cap")
	require.True(t, ok)
	require.Len(t, large.Rows, 1)
	assert.Equal(t, "Axis Bluechip Fund", large.Rows[0].SchemeName)
	assert.Equal(t, "16-Oct-2026", large.NAVDate)

	mid, ok := report.Get("Mid Cap")
	require.True(t, ok)
	assert.False(t, mid.OK())

	out, err := RenderJSON(report)
	require.NoError(t, err)
	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Len(t, decoded, 10)
	assert.JSONEq(t, `["The underlying data is unavailable for Today"]`, string(decoded["Mid Cap"]))
	assert.True(t, strings.Index(out, `"Large Cap"`) < strings.Index(out, `"Focused"`), "categories keep report order")
}

func TestGetOpenEndedEquitySchemePerformanceConcurrent(t *testing.T) {
	u := newUpstream(t)
	c := u.client(WithConcurrentPerformanceFetches(4))
	report, err := c.GetOpenEndedEquitySchemePerformance(context.Background())
	require.NoError(t, err)

	cats := c.Categories()
	require.Len(t, report, len(cats))
	for i, cp := range report {
		assert.Equal(t, cats[i], cp.Category)
		assert.True(t, cp.OK())
	}
}

func TestGetCategoryPerformance(t *testing.T) {
	u := newUpstream(t)
	c := u.client()

	cp, err := c.GetCategoryPerformance(context.Background(), "seq_elss")
	require.NoError(t, err)
	assert.Equal(t, "ELSS", cp.Category.Name)
	assert.Equal(t, int32(1), u.perfHits.Load())

	_, err = c.GetCategoryPerformance(context.Background(), "Hybrid")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestPerformanceReferenceDate(t *testing.T) {
	sunday := time.Date(2026, 10, 18, 9, 0, 0, 0, utils.IST)
	c := New(WithClock(func() time.Time { return sunday }))
	assert.Equal(t, "16-Oct-2026", utils.FormatPerformanceDate(c.PerformanceReferenceDate()))
}

func TestClientUsesProvidedHTTPClient(t *testing.T) {
	u := newUpstream(t)
	var calls atomic.Int32
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return http.DefaultTransport.RoundTrip(r)
	})}

	_, err := u.client(WithHTTPClient(hc)).GetSchemeCodes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestUpstreamHTTPErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := New(WithEndpoints(srv.URL, "", "")).GetSchemeCodes(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidSchemeCode))
	assert.Contains(t, err.Error(), fmt.Sprint(http.StatusBadGateway))
}
