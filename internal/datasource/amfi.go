package datasource

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/seenimoa/mfindia/pkg/models"
)

// activeFundMarker identifies feed lines that describe a scheme: the ISIN
// column of every Indian mutual fund starts with "INF".
const activeFundMarker = ";INF"

// AMFI feed column positions.
const (
	amfiFieldCode = 0
	amfiFieldName = 3
	amfiFieldNAV  = 4
	amfiFieldDate = 5
)

// AMFI reads the AMFI NAVAll.txt feed.
type AMFI struct {
	session *Session
	url     string
	log     zerolog.Logger
}

// NewAMFI creates an AMFI feed source.
func NewAMFI(session *Session, url string, log zerolog.Logger) *AMFI {
	return &AMFI{session: session, url: url, log: log}
}

// Name returns the data source name.
func (a *AMFI) Name() string { return "AMFI NAV feed" }

// FetchSchemeCodes downloads the feed and returns every scheme code with its name.
func (a *AMFI) FetchSchemeCodes(ctx context.Context) (models.SchemeDirectory, error) {
	body, err := a.fetch(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	dir, err := parseSchemeCodes(body)
	if err != nil {
		return nil, fmt.Errorf("read amfi nav feed: %w", err)
	}
	a.log.Debug().Int("schemes", len(dir)).Msg("scheme directory fetched")
	return dir, nil
}

// FetchQuote downloads the feed and returns the first line containing code.
// A zero SchemeQuote is returned when no line matches.
func (a *AMFI) FetchQuote(ctx context.Context, code string) (models.SchemeQuote, error) {
	body, err := a.fetch(ctx)
	if err != nil {
		return models.SchemeQuote{}, err
	}
	defer body.Close()

	q, err := findQuote(body, code)
	if err != nil {
		return models.SchemeQuote{}, fmt.Errorf("read amfi nav feed: %w", err)
	}
	if q.Empty() {
		a.log.Debug().Str("scheme_code", code).Msg("no feed line matched")
	}
	return q, nil
}

func (a *AMFI) fetch(ctx context.Context) (io.ReadCloser, error) {
	body, err := a.session.doGet(ctx, a.url, map[string]string{
		"Accept": "text/plain",
	})
	if err != nil {
		return nil, fmt.Errorf("amfi nav feed: %w", err)
	}
	return body, nil
}

func newFeedScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return sc
}

// parseSchemeCodes builds the directory from the lines carrying the fund marker.
func parseSchemeCodes(r io.Reader) (models.SchemeDirectory, error) {
	dir := make(models.SchemeDirectory)
	sc := newFeedScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, activeFundMarker) {
			continue
		}
		fields := strings.Split(line, ";")
		if len(fields) <= amfiFieldName {
			continue
		}
		dir[fields[amfiFieldCode]] = fields[amfiFieldName]
	}
	return dir, sc.Err()
}

// findQuote returns the quote of the first line that contains code anywhere.
// Matching is by substring, so a code contained in another line can match it.
func findQuote(r io.Reader, code string) (models.SchemeQuote, error) {
	sc := newFeedScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, code) {
			continue
		}
		fields := strings.Split(line, ";")
		if len(fields) <= amfiFieldDate {
			continue
		}
		return models.SchemeQuote{
			SchemeCode:  fields[amfiFieldCode],
			SchemeName:  fields[amfiFieldName],
			LastUpdated: strings.ReplaceAll(fields[amfiFieldDate], "\r", ""),
			NAV:         fields[amfiFieldNAV],
		}, nil
	}
	return models.SchemeQuote{}, sc.Err()
}
