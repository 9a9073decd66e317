package api

import (
	"net/http"

	"github.com/seenimoa/jyotish/internal/config"
	"github.com/seenimoa/jyotish/internal/ephemeris"
)

// ConfigResponse is the data returned by GET /api/v1/config.
type ConfigResponse struct {
	Ephemeris string                 `json:"ephemeris"` // active strategy
	Backends  []string               `json:"backends"`  // registered precise backends
	Settings  []config.SettingStatus `json:"settings"`
}

// handleGetConfig returns the effective settings and where each comes from.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	backends := ephemeris.BackendNames()
	if backends == nil {
		backends = []string{}
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Ephemeris: s.eph.Name(),
			Backends:  backends,
			Settings:  config.Sources(s.cfg),
		},
	})
}
