package server

import (
	"fmt"
	"net/http"

	"github.com/MeKo-Tech/nonmax/internal/suppress"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	suppressor suppress.Suppressor
	defaults   suppress.Options
	minScore   float64
	corsOrigin string
	maxBodyMB  int64
}

// Config holds server configuration.
type Config struct {
	Host       string
	Port       int
	CORSOrigin string
	MaxBodyMB  int64
	Options    suppress.Options
	MinScore   float64
}

// SuppressRequest is one frame of candidate detections, with an optional
// per-request threshold override.
type SuppressRequest struct {
	suppress.FrameJSON
	Threshold *float64 `json:"threshold,omitempty"`
}

// HealthResponse is the payload of the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// ErrorResponse is the payload of failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer creates a server around the given suppressor configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.MaxBodyMB <= 0 {
		cfg.MaxBodyMB = 10
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	return &Server{
		suppressor: suppress.Greedy{Options: cfg.Options},
		defaults:   cfg.Options,
		minScore:   cfg.MinScore,
		corsOrigin: cfg.CORSOrigin,
		maxBodyMB:  cfg.MaxBodyMB,
	}, nil
}

// Addr returns the listen address for the config.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SetupRoutes registers all HTTP routes on the mux.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/suppress", s.corsMiddleware(s.suppressHandler))
	mux.HandleFunc("/ws", s.suppressWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}
