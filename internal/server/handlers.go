package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/nonmax/internal/geometry"
	"github.com/MeKo-Tech/nonmax/internal/suppress"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Error encoding health response", "error", err)
	}
}

// suppressHandler runs NMS over one frame of posted detections.
func (s *Server) suppressHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyMB*1024*1024)

	var req SuppressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		suppressRequestsTotal.WithLabelValues("http", "error").Inc()
		s.writeErrorResponse(w, "Failed to parse request body", http.StatusBadRequest)
		return
	}

	res, err := s.suppressFrame(req, "http")
	if err != nil {
		suppressRequestsTotal.WithLabelValues("http", "error").Inc()
		if errors.Is(err, suppress.ErrInvalidArgument) {
			s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.writeErrorResponse(w, "Suppression failed", http.StatusInternalServerError)
		return
	}
	suppressRequestsTotal.WithLabelValues("http", "success").Inc()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Error encoding suppression response", "error", err)
	}
}

// suppressFrame applies score prefiltering and suppression to one frame.
func (s *Server) suppressFrame(req SuppressRequest, transport string) (suppress.ResultJSON, error) {
	sup := s.suppressor
	if req.Threshold != nil {
		// A per-request threshold runs on the built-in greedy engine.
		opts := s.defaults
		opts.Threshold = *req.Threshold
		sup = suppress.Greedy{Options: opts}
	}

	dets := suppress.FilterByScore(req.ToDetections(), s.minScore)

	start := time.Now()
	kept, err := sup.Suppress(detBoxes(dets), detScores(dets))
	if err != nil {
		return suppress.ResultJSON{}, err
	}
	suppressDuration.WithLabelValues(transport).Observe(time.Since(start).Seconds())
	boxesInput.Observe(float64(len(dets)))
	boxesKept.Observe(float64(len(kept)))

	return suppress.BuildResult(req.ID, dets, kept), nil
}

func detBoxes(dets []suppress.Detection) []geometry.Box {
	boxes := make([]geometry.Box, len(dets))
	for i, d := range dets {
		boxes[i] = d.Box
	}
	return boxes
}

func detScores(dets []suppress.Detection) []float64 {
	scores := make([]float64, len(dets))
	for i, d := range dets {
		scores[i] = d.Score
	}
	return scores
}

// writeErrorResponse writes a JSON error payload.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); err != nil {
		slog.Error("Error encoding error response", "error", err)
	}
}
