package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func check(name string, err error) Checker {
	return CheckFunc{CheckName: name, Fn: func(ctx context.Context) error { return err }}
}

func get(t *testing.T, handler http.Handler, path string) (*httptest.ResponseRecorder, statusResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body statusResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestServer_Health(t *testing.T) {
	tests := []struct {
		name       string
		checkers   []Checker
		wantCode   int
		wantStatus string
	}{
		{name: "все проверки успешны", checkers: []Checker{check("store", nil)}, wantCode: http.StatusOK, wantStatus: "healthy"},
		{
			name:       "хранилище недоступно",
			checkers:   []Checker{check("store", errors.New("timeout")), check("discord", nil)},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := NewServer("0", zap.NewNop(), nil, nil, tt.checkers...)

			rec, body := get(t, server.Handler(), "/health")

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Len(t, body.Checks, len(tt.checkers))
		})
	}
}

func TestServer_Ready(t *testing.T) {
	started := false
	server := NewServer("0", zap.NewNop(), nil, func() bool { return started }, check("store", nil))

	rec, body := get(t, server.Handler(), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not ready", body.Status)

	started = true
	rec, body = get(t, server.Handler(), "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body.Checks["store"])
}

func TestServer_Live(t *testing.T) {
	server := NewServer("0", zap.NewNop(), nil, nil, check("store", errors.New("down")))

	rec, body := get(t, server.Handler(), "/live")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", body.Status)
}

func TestServer_Metrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_events_total", Help: "Test counter."})
	registry.MustRegister(counter)
	counter.Inc()

	server := NewServer("0", zap.NewNop(), registry, nil)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_events_total 1")
}
