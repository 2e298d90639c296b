package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/mfindia/pkg/models"
	"github.com/seenimoa/mfindia/pkg/utils"
)

// MFAPI reads per-scheme metadata and NAV history from api.mfapi.in.
type MFAPI struct {
	session *Session
	baseURL string
	log     zerolog.Logger
}

// NewMFAPI creates an MFAPI source. The scheme code is appended to baseURL.
func NewMFAPI(session *Session, baseURL string, log zerolog.Logger) *MFAPI {
	return &MFAPI{session: session, baseURL: baseURL, log: log}
}

// Name returns the data source name.
func (m *MFAPI) Name() string { return "MFAPI" }

// --- MFAPI JSON response types ---

type mfapiResponse struct {
	Meta   mfapiMeta         `json:"meta"`
	Data   []models.NAVEntry `json:"data"`
	Status string            `json:"status"`
}

type mfapiMeta struct {
	FundHouse      string     `json:"fund_house"`
	SchemeType     string     `json:"scheme_type"`
	SchemeCategory string     `json:"scheme_category"`
	SchemeCode     flexString `json:"scheme_code"`
	SchemeName     string     `json:"scheme_name"`
}

// flexString decodes a JSON string or number into its string form.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("scheme code: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

// FetchHistory downloads the scheme document and returns its metadata with the
// full NAV series, newest first, exactly as published.
func (m *MFAPI) FetchHistory(ctx context.Context, code string) (*models.HistoricalNAV, error) {
	url := m.baseURL + code
	body, err := m.session.doGet(ctx, url, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("mfapi %s: %w", code, err)
	}
	defer body.Close()

	var resp mfapiResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode mfapi %s: %w", code, err)
	}

	m.log.Debug().Str("scheme_code", code).Int("entries", len(resp.Data)).Msg("scheme history fetched")

	return &models.HistoricalNAV{
		SchemeDetails: detailsFromResponse(resp),
		Data:          models.NAVSeries{Entries: resp.Data},
	}, nil
}

// FetchDetails returns the scheme metadata and its oldest NAV record.
func (m *MFAPI) FetchDetails(ctx context.Context, code string) (*models.SchemeDetails, error) {
	h, err := m.FetchHistory(ctx, code)
	if err != nil {
		return nil, err
	}
	d := h.SchemeDetails
	return &d, nil
}

// detailsFromResponse maps the meta block. The data array is newest first, so
// the start date is its last element.
func detailsFromResponse(resp mfapiResponse) models.SchemeDetails {
	d := models.SchemeDetails{
		FundHouse:      resp.Meta.FundHouse,
		SchemeType:     resp.Meta.SchemeType,
		SchemeCategory: resp.Meta.SchemeCategory,
		SchemeCode:     string(resp.Meta.SchemeCode),
		SchemeName:     resp.Meta.SchemeName,
	}
	if n := len(resp.Data); n > 0 {
		d.SchemeStartDate = resp.Data[n-1]
	}
	return d
}

// FilterYear keeps the entries dated in year, preserving order. When none
// match, the series carries an unavailability reason instead.
func FilterYear(entries []models.NAVEntry, year int) models.NAVSeries {
	return filterEntries(entries, func(d time.Time) bool {
		return d.Year() == year
	}, fmt.Sprintf("For Year %d Data is NOT available", year))
}

// FilterRange keeps the entries dated between from and to, both inclusive.
func FilterRange(entries []models.NAVEntry, from, to time.Time) models.NAVSeries {
	lo := truncateDay(from)
	hi := truncateDay(to)
	return filterEntries(entries, func(d time.Time) bool {
		return !d.Before(lo) && !d.After(hi)
	}, fmt.Sprintf("For Range %s to %s Data is NOT available", utils.FormatNAVDate(from), utils.FormatNAVDate(to)))
}

func filterEntries(entries []models.NAVEntry, keep func(time.Time) bool, reason string) models.NAVSeries {
	var out []models.NAVEntry
	for _, e := range entries {
		d, err := utils.ParseNAVDate(strings.TrimSpace(e.Date))
		if err != nil {
			continue
		}
		if keep(d) {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return models.NAVSeries{Unavailable: reason}
	}
	return models.NAVSeries{Entries: out}
}

func truncateDay(t time.Time) time.Time {
	t = utils.ToIST(t)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, utils.IST)
}
