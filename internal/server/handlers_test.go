package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MeKo-Tech/nonmax/internal/suppress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(Config{
		Options: suppress.Options{Threshold: 0.5},
	})
	require.NoError(t, err)
	return s
}

const testFrameBody = `{
	"id": "frame-1",
	"detections": [
		{"box": {"x1": 0, "y1": 0, "x2": 10, "y2": 10}, "score": 0.9},
		{"box": {"x1": 1, "y1": 1, "x2": 11, "y2": 11}, "score": 0.8},
		{"box": {"x1": 50, "y1": 50, "x2": 60, "y2": 60}, "score": 0.95}
	]
}`

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.healthHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestHealthHandlerMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rec := httptest.NewRecorder()
	s.healthHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSuppressHandler(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/suppress", bytes.NewBufferString(testFrameBody))
	rec := httptest.NewRecorder()
	s.suppressHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res suppress.ResultJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "frame-1", res.ID)
	assert.Equal(t, 3, res.Input)
	assert.Equal(t, []int{0, 2}, res.Kept)
	require.Len(t, res.Detections, 2)
}

func TestSuppressHandlerThresholdOverride(t *testing.T) {
	s := newTestServer(t)

	body := `{
		"threshold": 0.9,
		"detections": [
			{"box": {"x1": 0, "y1": 0, "x2": 10, "y2": 10}, "score": 0.9},
			{"box": {"x1": 1, "y1": 1, "x2": 11, "y2": 11}, "score": 0.8}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/suppress", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	s.suppressHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res suppress.ResultJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	// With a 0.9 threshold the overlap is tolerated and both survive.
	assert.Equal(t, []int{0, 1}, res.Kept)
}

func TestSuppressHandlerMinScore(t *testing.T) {
	s, err := NewServer(Config{
		Options:  suppress.Options{Threshold: 0.5},
		MinScore: 0.85,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/suppress", bytes.NewBufferString(testFrameBody))
	rec := httptest.NewRecorder()
	s.suppressHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res suppress.ResultJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	// The 0.8 detection is filtered before suppression.
	assert.Equal(t, 2, res.Input)
	assert.Equal(t, []int{0, 1}, res.Kept)
}

func TestSuppressHandlerInvalidBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/suppress", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	s.suppressHandler(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Error)
}

func TestSuppressHandlerMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/suppress", nil)
	rec := httptest.NewRecorder()
	s.suppressHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSetupRoutes(t *testing.T) {
	s := newTestServer(t)
	mux := http.NewServeMux()
	s.SetupRoutes(mux)

	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	metrics, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = metrics.Body.Close() }()
	assert.Equal(t, http.StatusOK, metrics.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	mux := http.NewServeMux()
	s.SetupRoutes(mux)

	req := httptest.NewRequest(http.MethodOptions, "/suppress", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
