// Package api provides the HTTP REST API server for mfindia.
//
// It exposes read-only endpoints for the scheme directory, quotes, scheme
// details, NAV history, holding valuation and category performance, plus a
// WebSocket stream of the performance report.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/seenimoa/mfindia/internal/config"
	"github.com/seenimoa/mfindia/pkg/mftool"
	"github.com/seenimoa/mfindia/pkg/models"
	"github.com/seenimoa/mfindia/pkg/utils"
)

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	client  *mftool.Client
	log     zerolog.Logger
	version string
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, client *mftool.Client, log zerolog.Logger, version string) *Server {
	s := &Server{
		cfg:     cfg,
		client:  client,
		log:     log,
		version: version,
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.requestTimeout() + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("API server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// requestTimeout bounds one API request: a full performance report issues one
// upstream request per category.
func (s *Server) requestTimeout() time.Duration {
	t := s.cfg.HTTP.Timeout()
	if t <= 0 {
		t = time.Duration(config.DefaultTimeoutSec) * time.Second
	}
	return t * time.Duration(len(s.client.Categories())+1)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket streams are long-lived and not subject to the request timeout.
		r.Get("/ws/performance", s.handlePerformanceStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.requestTimeout()))

			r.Get("/health", s.handleHealth)
			r.Get("/config", s.handleGetConfig)

			// Scheme directory
			r.Get("/schemes", s.handleSchemes)
			r.Get("/schemes/{code}/valid", s.handleValidate)

			// Scheme data
			r.Get("/schemes/{code}/quote", s.handleQuote)
			r.Get("/schemes/{code}/details", s.handleDetails)
			r.Get("/schemes/{code}/history", s.handleHistory)
			r.Get("/schemes/{code}/value", s.handleValue)

			// Performance
			r.Get("/categories", s.handleCategories)
			r.Get("/performance", s.handlePerformance)
			r.Get("/performance/{category}", s.handleCategoryPerformance)
		})
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope for all API responses.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ValidityResponse is the body of GET /api/v1/schemes/{code}/valid.
type ValidityResponse struct {
	SchemeCode string `json:"scheme_code"`
	Valid      bool   `json:"valid"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":           "ok",
			"version":          s.version,
			"time_ist":         utils.FormatDateTimeIST(utils.NowIST()),
			"performance_date": utils.FormatPerformanceDate(s.client.PerformanceReferenceDate()),
		},
	})
}

// handleSchemes returns the whole directory, or the matching schemes when ?q= is set.
func (s *Server) handleSchemes(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		schemes, err := s.client.SearchSchemes(r.Context(), q)
		if err != nil {
			s.writeClientError(w, err)
			return
		}
		if schemes == nil {
			schemes = []models.Scheme{}
		}
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: schemes})
		return
	}

	codes, err := s.client.GetSchemeCodes(r.Context())
	if err != nil {
		s.writeClientError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: codes})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	ok, err := s.client.IsValidCode(r.Context(), code)
	if err != nil {
		s.writeClientError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    ValidityResponse{SchemeCode: code, Valid: ok},
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	q, err := s.client.GetSchemeQuote(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeClientError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: q})
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	d, err := s.client.GetSchemeDetails(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeClientError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: d})
}

// handleHistory serves the full history, ?year=YYYY, or ?from=&to= (dd-mm-yyyy or yyyy-mm-dd).
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	query := r.URL.Query()
	year, from, to := query.Get("year"), query.Get("from"), query.Get("to")

	var (
		h   *models.HistoricalNAV
		err error
	)
	switch {
	case year != "" && (from != "" || to != ""):
		writeError(w, http.StatusBadRequest, "year cannot be combined with from/to")
		return
	case year != "":
		if _, perr := strconv.Atoi(year); perr != nil {
			writeError(w, http.StatusBadRequest, "invalid year "+strconv.Quote(year))
			return
		}
		h, err = s.client.GetSchemeHistoricalNAVYear(r.Context(), code, year)
	case from != "":
		fromDate, perr := utils.ParseInputDate(from)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid from date "+strconv.Quote(from))
			return
		}
		toDate := utils.NowIST()
		if to != "" {
			if toDate, perr = utils.ParseInputDate(to); perr != nil {
				writeError(w, http.StatusBadRequest, "invalid to date "+strconv.Quote(to))
				return
			}
		}
		if toDate.Before(fromDate) {
			writeError(w, http.StatusBadRequest, "to is before from")
			return
		}
		h, err = s.client.GetSchemeHistoricalNAVRange(r.Context(), code, fromDate, toDate)
	case to != "":
		writeError(w, http.StatusBadRequest, "from is required with to")
		return
	default:
		h, err = s.client.GetSchemeHistoricalNAV(r.Context(), code)
	}
	if err != nil {
		s.writeClientError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: h})
}

func (s *Server) handleValue(w http.ResponseWriter, r *http.Request) {
	units := r.URL.Query().Get("units")
	if units == "" {
		writeError(w, http.StatusBadRequest, "units is required")
		return
	}
	v, err := s.client.CalculateBalanceUnitsValue(r.Context(), chi.URLParam(r, "code"), units)
	if err != nil {
		s.writeClientError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: v})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.client.Categories()})
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	report, err := s.client.GetOpenEndedEquitySchemePerformance(r.Context())
	if err != nil {
		s.writeClientError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: report})
}

func (s *Server) handleCategoryPerformance(w http.ResponseWriter, r *http.Request) {
	cp, err := s.client.GetCategoryPerformance(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		s.writeClientError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    models.PerformanceReport{*cp},
	})
}

// ============================================================
// Helpers
// ============================================================

// statusFor maps client errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, mftool.ErrInvalidSchemeCode), errors.Is(err, mftool.ErrUnknownCategory):
		return http.StatusNotFound
	case errors.Is(err, mftool.ErrInvalidNumber):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeClientError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Warn().Err(err).Int("status", status).Msg("upstream request failed")
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
