package api

import (
	"net/http"

	"github.com/seenimoa/mfindia/internal/config"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	Sources              []config.EndpointStatus `json:"sources"`
	HTTPTimeoutSec       int                     `json:"http_timeout_sec"`
	DirectoryCacheTTLSec int                     `json:"directory_cache_ttl_sec"`
	ConcurrentFetches    int                     `json:"concurrent_fetches"`
}

// handleGetConfig returns the running configuration of the upstream sources.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Sources:              config.CheckEndpoints(s.cfg),
			HTTPTimeoutSec:       s.cfg.HTTP.TimeoutSec,
			DirectoryCacheTTLSec: s.cfg.Cache.DirectoryTTL,
			ConcurrentFetches:    s.cfg.Performance.ConcurrentFetches,
		},
	})
}
