// Package mftool is a client for Indian mutual-fund data. It validates scheme
// codes against the AMFI directory and answers quote, details, history,
// valuation and category performance queries from the public upstreams.
package mftool

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/mfindia/internal/config"
	"github.com/seenimoa/mfindia/internal/datasource"
	"github.com/seenimoa/mfindia/pkg/models"
	"github.com/seenimoa/mfindia/pkg/utils"
)

// ErrInvalidSchemeCode is returned, with a nil result, for codes that are not
// in the current scheme directory.
var ErrInvalidSchemeCode = errors.New("invalid scheme code")

// ErrUnknownCategory is returned for a performance category that is not reported.
var ErrUnknownCategory = errors.New("unknown fund category")

const directoryCacheKey = "amfi:directory"

// Client answers mutual-fund queries. Calls are synchronous; the underlying
// HTTP session is shared by all calls of a client.
type Client struct {
	amfi     *datasource.AMFI
	mfapi    *datasource.MFAPI
	vr       *datasource.ValueResearch
	dirCache *datasource.Cache // nil unless a directory TTL is set
	log      zerolog.Logger
}

type options struct {
	cfg          config.Config
	httpClient   *http.Client
	log          zerolog.Logger
	clock        func() time.Time
	parser       datasource.PerformanceTableParser
	directoryTTL *time.Duration
	concurrency  int
}

// Option configures a Client.
type Option func(*options)

// WithConfig takes endpoints, HTTP, cache and performance settings from cfg.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		if cfg != nil {
			o.cfg = *cfg
		}
	}
}

// WithEndpoints overrides the upstream URLs. Empty values keep the defaults.
func WithEndpoints(amfiNAVURL, mfapiURL, performanceURL string) Option {
	return func(o *options) {
		if amfiNAVURL != "" {
			o.cfg.Sources.AMFINAVURL = amfiNAVURL
		}
		if mfapiURL != "" {
			o.cfg.Sources.MFAPIURL = mfapiURL
		}
		if performanceURL != "" {
			o.cfg.Sources.PerformanceURL = performanceURL
		}
	}
}

// WithHTTPClient uses client instead of a new cookie-keeping session.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithClock sets the clock used for the performance reference date.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// WithPerformanceParser replaces the Value Research table parser.
func WithPerformanceParser(p datasource.PerformanceTableParser) Option {
	return func(o *options) { o.parser = p }
}

// WithDirectoryCache keeps the scheme directory for ttl instead of fetching it
// on every call. A zero ttl disables caching.
func WithDirectoryCache(ttl time.Duration) Option {
	return func(o *options) { o.directoryTTL = &ttl }
}

// WithConcurrentPerformanceFetches fetches up to n category pages at once.
func WithConcurrentPerformanceFetches(n int) Option {
	return func(o *options) { o.concurrency = n }
}

func defaultConfig() config.Config {
	return config.Config{
		Sources: config.SourcesConfig{
			AMFINAVURL:     config.DefaultAMFINAVURL,
			MFAPIURL:       config.DefaultMFAPIURL,
			PerformanceURL: config.DefaultPerformanceURL,
		},
		HTTP:        config.HTTPConfig{TimeoutSec: config.DefaultTimeoutSec, UserAgent: config.DefaultUserAgent},
		Performance: config.PerformanceConfig{ConcurrentFetches: 1},
		Logging:     config.LoggingConfig{Level: "info", Format: "text"},
	}
}

// New creates a client using the public endpoints unless configured otherwise.
func New(opts ...Option) *Client {
	o := &options{cfg: defaultConfig(), log: zerolog.Nop()}
	for _, opt := range opts {
		opt(o)
	}

	var session *datasource.Session
	if o.httpClient != nil {
		session = datasource.NewSessionWithClient(o.httpClient, o.log)
	} else {
		session = datasource.NewSession(o.cfg.HTTP, o.log)
	}

	concurrency := o.cfg.Performance.ConcurrentFetches
	if o.concurrency > 0 {
		concurrency = o.concurrency
	}
	vrOpts := []datasource.ValueResearchOption{datasource.WithConcurrency(concurrency)}
	if o.clock != nil {
		vrOpts = append(vrOpts, datasource.WithClock(o.clock))
	}
	if o.parser != nil {
		vrOpts = append(vrOpts, datasource.WithParser(o.parser))
	}

	c := &Client{
		amfi:  datasource.NewAMFI(session, o.cfg.Sources.AMFINAVURL, o.log),
		mfapi: datasource.NewMFAPI(session, o.cfg.Sources.MFAPIURL, o.log),
		vr:    datasource.NewValueResearch(session, o.cfg.Sources.PerformanceURL, o.log, vrOpts...),
		log:   o.log,
	}

	ttl := o.cfg.Cache.TTL()
	if o.directoryTTL != nil {
		ttl = *o.directoryTTL
	}
	if ttl > 0 {
		c.dirCache = datasource.NewCache(ttl)
	}
	return c
}

// --- Scheme directory ---

// GetSchemeCodes returns every scheme code with its name.
func (c *Client) GetSchemeCodes(ctx context.Context) (models.SchemeDirectory, error) {
	dir, err := c.directory(ctx)
	if err != nil {
		return nil, err
	}
	return maps.Clone(dir), nil
}

// IsValidCode reports whether code is in the scheme directory. nil and empty
// codes are invalid and cost no request.
func (c *Client) IsValidCode(ctx context.Context, code any) (bool, error) {
	s := utils.NormalizeSchemeCode(code)
	if s == "" {
		return false, nil
	}
	dir, err := c.directory(ctx)
	if err != nil {
		return false, err
	}
	return dir.Has(s), nil
}

// SearchSchemes returns the schemes whose name contains query, ignoring case,
// ordered by code.
func (c *Client) SearchSchemes(ctx context.Context, query string) ([]models.Scheme, error) {
	dir, err := c.directory(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	var out []models.Scheme
	for code, name := range dir {
		if strings.Contains(strings.ToLower(name), q) {
			out = append(out, models.Scheme{Code: code, Name: name})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (c *Client) directory(ctx context.Context) (models.SchemeDirectory, error) {
	if c.dirCache != nil {
		if v, ok := c.dirCache.Get(directoryCacheKey); ok {
			return v.(models.SchemeDirectory), nil
		}
	}
	dir, err := c.amfi.FetchSchemeCodes(ctx)
	if err != nil {
		return nil, err
	}
	if c.dirCache != nil {
		c.dirCache.Set(directoryCacheKey, dir)
	}
	return dir, nil
}

// validCode normalizes code and checks it against the directory.
func (c *Client) validCode(ctx context.Context, code any) (string, error) {
	s := utils.NormalizeSchemeCode(code)
	ok, err := c.IsValidCode(ctx, s)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidSchemeCode, s)
	}
	return s, nil
}

// --- Quote and valuation ---

// GetSchemeQuote returns the latest NAV of a scheme from the AMFI feed. The
// feed line is found by substring match; an empty quote means no line matched.
func (c *Client) GetSchemeQuote(ctx context.Context, code any) (*models.SchemeQuote, error) {
	s, err := c.validCode(ctx, code)
	if err != nil {
		return nil, err
	}
	q, err := c.amfi.FetchQuote(ctx, s)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// CalculateBalanceUnitsValue values a unit holding at the latest NAV. units
// may be a string or a number.
func (c *Client) CalculateBalanceUnitsValue(ctx context.Context, code any, units any) (*models.BalanceValue, error) {
	q, err := c.GetSchemeQuote(ctx, code)
	if err != nil {
		return nil, err
	}
	value, err := MarketValue(units, q.NAV)
	if err != nil {
		return nil, err
	}
	return &models.BalanceValue{
		SchemeQuote:       *q,
		BalanceUnitsValue: value,
	}, nil
}

// --- Details and history ---

// GetSchemeDetails returns the scheme metadata and its oldest NAV record.
func (c *Client) GetSchemeDetails(ctx context.Context, code any) (*models.SchemeDetails, error) {
	s, err := c.validCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return c.mfapi.FetchDetails(ctx, s)
}

// GetSchemeHistoricalNAV returns the scheme metadata with its full NAV
// history, newest first.
func (c *Client) GetSchemeHistoricalNAV(ctx context.Context, code any) (*models.HistoricalNAV, error) {
	s, err := c.validCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return c.mfapi.FetchHistory(ctx, s)
}

// GetSchemeHistoricalNAVYear returns the NAV history restricted to one
// calendar year. When the year has no data, Data carries the reason instead.
func (c *Client) GetSchemeHistoricalNAVYear(ctx context.Context, code any, year any) (*models.HistoricalNAV, error) {
	s, err := c.validCode(ctx, code)
	if err != nil {
		return nil, err
	}
	y, err := utils.ParseYear(year)
	if err != nil {
		return nil, err
	}
	h, err := c.mfapi.FetchHistory(ctx, s)
	if err != nil {
		return nil, err
	}
	h.Data = datasource.FilterYear(h.Data.Entries, y)
	return h, nil
}

// GetSchemeHistoricalNAVRange returns the NAV history between from and to,
// both inclusive.
func (c *Client) GetSchemeHistoricalNAVRange(ctx context.Context, code any, from, to time.Time) (*models.HistoricalNAV, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range: %s is before %s", utils.FormatNAVDate(to), utils.FormatNAVDate(from))
	}
	s, err := c.validCode(ctx, code)
	if err != nil {
		return nil, err
	}
	h, err := c.mfapi.FetchHistory(ctx, s)
	if err != nil {
		return nil, err
	}
	h.Data = datasource.FilterRange(h.Data.Entries, from, to)
	return h, nil
}

// --- Performance ---

// Categories lists the open-ended equity categories of the performance report.
func (c *Client) Categories() []models.FundCategory {
	return append([]models.FundCategory(nil), datasource.OpenEndedEquityCategories...)
}

// PerformanceReferenceDate returns the NAV date the performance report is requested for.
func (c *Client) PerformanceReferenceDate() time.Time {
	return c.vr.ReferenceDate()
}

// GetOpenEndedEquitySchemePerformance returns the daily performance of every
// open-ended equity category. A category whose page could not be parsed is
// marked unavailable; transport errors fail the whole report.
func (c *Client) GetOpenEndedEquitySchemePerformance(ctx context.Context) (models.PerformanceReport, error) {
	return c.vr.FetchAll(ctx)
}

// GetCategoryPerformance returns the performance of one category, by name or code.
func (c *Client) GetCategoryPerformance(ctx context.Context, category string) (*models.CategoryPerformance, error) {
	cat, ok := datasource.LookupCategory(category)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	cp, err := c.vr.FetchCategory(ctx, cat)
	if err != nil {
		return nil, err
	}
	return &cp, nil
}
