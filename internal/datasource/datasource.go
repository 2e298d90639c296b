// Package datasource fetches mutual-fund data from the three public upstreams:
// the AMFI NAV text feed, the MFAPI JSON history API and the Value Research
// performance pages. Each source maps its wire format onto pkg/models records.
package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"github.com/seenimoa/mfindia/internal/config"
)

// --- Sentinel errors ---

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// --- Shared HTTP session ---

// Session is the HTTP client shared by all sources. It keeps cookies between
// requests and is reused for every call of a client.
type Session struct {
	client    *http.Client
	userAgent string
	log       zerolog.Logger
}

// NewSession creates a session from the HTTP settings.
func NewSession(cfg config.HTTPConfig, log zerolog.Logger) *Session {
	var jar http.CookieJar
	if j, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}); err != nil {
		log.Warn().Err(err).Msg("cookie jar unavailable, continuing without cookies")
	} else {
		jar = j
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = config.DefaultUserAgent
	}

	return &Session{
		client: &http.Client{
			Timeout: cfg.Timeout(),
			Jar:     jar,
		},
		userAgent: ua,
		log:       log,
	}
}

// NewSessionWithClient wraps an existing HTTP client.
func NewSessionWithClient(client *http.Client, log zerolog.Logger) *Session {
	return &Session{client: client, userAgent: config.DefaultUserAgent, log: log}
}

// doGet performs a GET request with the given URL and headers, returning the response body.
// The caller is responsible for closing the returned ReadCloser.
func (s *Session) doGet(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json, text/html, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}

	s.log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("upstream response")

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp.Body, nil
}

// --- Directory cache ---

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// Cache is a thread-safe in-memory cache whose entries live for a fixed TTL.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache whose entries expire ttl after they are set.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the live value for key. An expired entry is evicted.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

// Set stores value under key for the cache TTL.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}
