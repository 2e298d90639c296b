package datasource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/mfindia/pkg/models"
	"github.com/seenimoa/mfindia/pkg/utils"
)

// OpenEndedEquityCategories lists the open-ended equity categories reported
// by Value Research, in report order.
var OpenEndedEquityCategories = []models.FundCategory{
	{Name: "Large Cap", Code: "SEQ_LC"},
	{Name: "Large & Mid Cap", Code: "SEQ_LMC"},
	{Name: "Multi Cap", Code: "SEQ_MLC"},
	{Name: "Mid Cap", Code: "SEQ_MC"},
	{Name: "Small Cap", Code: "SEQ_SC"},
	{Name: "Value", Code: "SEQ_VAL"},
	{Name: "ELSS", Code: "SEQ_ELSS"},
	{Name: "Contra", Code: "SEQ_CONT"},
	{Name: "Dividend Yield", Code: "SEQ_DIVY"},
	{Name: "Focused", Code: "SEQ_FOC"},
}

// categoryPlaceholder is replaced by the category code in the URL template.
const categoryPlaceholder = "CAT"

// ValueResearch scrapes the daily open-ended equity fund performance pages.
type ValueResearch struct {
	session     *Session
	urlTemplate string
	parser      PerformanceTableParser
	now         func() time.Time
	concurrency int
	log         zerolog.Logger
}

// ValueResearchOption customizes a ValueResearch source.
type ValueResearchOption func(*ValueResearch)

// WithParser replaces the table parser.
func WithParser(p PerformanceTableParser) ValueResearchOption {
	return func(v *ValueResearch) { v.parser = p }
}

// WithClock replaces the clock used to pick the reference date.
func WithClock(now func() time.Time) ValueResearchOption {
	return func(v *ValueResearch) { v.now = now }
}

// WithConcurrency sets how many category pages are fetched at once.
func WithConcurrency(n int) ValueResearchOption {
	return func(v *ValueResearch) {
		if n > 0 {
			v.concurrency = n
		}
	}
}

// NewValueResearch creates a Value Research source. urlTemplate must contain
// "CAT" where the category code goes.
func NewValueResearch(session *Session, urlTemplate string, log zerolog.Logger, opts ...ValueResearchOption) *ValueResearch {
	v := &ValueResearch{
		session:     session,
		urlTemplate: urlTemplate,
		parser:      GoqueryTableParser{},
		now:         utils.NowIST,
		concurrency: 1,
		log:         log,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Name returns the data source name.
func (v *ValueResearch) Name() string { return "Value Research" }

// ReferenceDate returns the NAV date requested from Value Research today.
func (v *ValueResearch) ReferenceDate() time.Time {
	return utils.PerformanceReferenceDate(v.now())
}

// CategoryURL builds the page URL of a category for a NAV date.
func (v *ValueResearch) CategoryURL(cat models.FundCategory, navDate time.Time) string {
	return strings.Replace(v.urlTemplate, categoryPlaceholder, cat.Code, 1) +
		"&nav-date=" + utils.FormatPerformanceDate(navDate)
}

// FetchCategory fetches and parses one category page. Transport errors are
// returned; a page that cannot be parsed yields an unavailable category.
func (v *ValueResearch) FetchCategory(ctx context.Context, cat models.FundCategory) (models.CategoryPerformance, error) {
	navDate := v.ReferenceDate()
	result := models.CategoryPerformance{
		Category: cat,
		NAVDate:  utils.FormatPerformanceDate(navDate),
	}

	url := v.CategoryURL(cat, navDate)
	body, err := v.session.doGet(ctx, url, map[string]string{
		"Accept": "text/html",
	})
	if err != nil {
		var httpErr *ErrHTTP
		if errors.As(err, &httpErr) {
			v.log.Warn().Str("category", cat.Name).Int("status", httpErr.StatusCode).Msg("performance page unavailable")
			result.Unavailable = models.PerformanceUnavailable
			return result, nil
		}
		return result, fmt.Errorf("value research %s: %w", cat.Code, err)
	}
	defer body.Close()

	rows, err := v.parser.Parse(body)
	if err != nil {
		v.log.Warn().Err(err).Str("category", cat.Name).Msg("performance page not parsed")
		result.Unavailable = models.PerformanceUnavailable
		return result, nil
	}

	v.log.Debug().Str("category", cat.Name).Int("rows", len(rows)).Msg("performance page parsed")
	result.Rows = rows
	return result, nil
}

// FetchAll fetches every open-ended equity category. Pages are fetched one
// after another unless a concurrency above one is configured; the report is
// always in category order.
func (v *ValueResearch) FetchAll(ctx context.Context) (models.PerformanceReport, error) {
	report := make(models.PerformanceReport, len(OpenEndedEquityCategories))

	if v.concurrency <= 1 {
		for i, cat := range OpenEndedEquityCategories {
			cp, err := v.FetchCategory(ctx, cat)
			if err != nil {
				return nil, err
			}
			report[i] = cp
		}
		return report, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)
	for i, cat := range OpenEndedEquityCategories {
		g.Go(func() error {
			cp, err := v.FetchCategory(gctx, cat)
			if err != nil {
				return err
			}
			report[i] = cp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

// LookupCategory finds a category by name or code, case-insensitively.
func LookupCategory(nameOrCode string) (models.FundCategory, bool) {
	key := strings.TrimSpace(nameOrCode)
	for _, c := range OpenEndedEquityCategories {
		if strings.EqualFold(c.Name, key) || strings.EqualFold(c.Code, key) {
			return c, true
		}
	}
	return models.FundCategory{}, false
}
