// Package health содержит health check сервер.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// checkTimeout ограничивает одну проверку компонента
const checkTimeout = 5 * time.Second

// Checker проверяет доступность компонента
type Checker interface {
	Name() string
	Ping(ctx context.Context) error
}

// CheckFunc превращает функцию в Checker
type CheckFunc struct {
	CheckName string
	Fn        func(ctx context.Context) error
}

// Name возвращает имя проверки
func (c CheckFunc) Name() string { return c.CheckName }

// Ping выполняет проверку
func (c CheckFunc) Ping(ctx context.Context) error { return c.Fn(ctx) }

// Server представляет health check сервер
type Server struct {
	server   *http.Server
	checkers []Checker
	ready    func() bool
	logger   *zap.Logger
}

type statusResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// NewServer создает новый health check сервер.
// ready сообщает, закончен ли запуск; gatherer отдает метрики на /metrics.
func NewServer(port string, logger *zap.Logger, gatherer prometheus.Gatherer, ready func() bool, checkers ...Checker) *Server {
	mux := http.NewServeMux()

	healthServer := &Server{
		server: &http.Server{
			Addr:              ":" + port,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		checkers: checkers,
		ready:    ready,
		logger:   logger,
	}

	// Регистрируем маршруты
	mux.HandleFunc("/health", healthServer.healthHandler)
	mux.HandleFunc("/ready", healthServer.readyHandler)
	mux.HandleFunc("/live", healthServer.liveHandler)
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return healthServer
}

// Handler возвращает обработчик маршрутов
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start запускает health check сервер. Штатная остановка не считается ошибкой.
func (s *Server) Start() error {
	s.logger.Info("Starting health check server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop останавливает health check сервер
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("Stopping health check server")
	return s.server.Shutdown(ctx)
}

// healthHandler обрабатывает запросы /health
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	checks, err := s.runChecks(r.Context())

	status := "healthy"
	code := http.StatusOK
	if err != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
		s.logger.Error("Health check failed", zap.Error(err))
	}

	writeStatus(w, code, status, checks)
}

// readyHandler обрабатывает запросы /ready
func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil && !s.ready() {
		writeStatus(w, http.StatusServiceUnavailable, "not ready", nil)
		return
	}

	checks, err := s.runChecks(r.Context())
	if err != nil {
		s.logger.Error("Readiness check failed", zap.Error(err))
		writeStatus(w, http.StatusServiceUnavailable, "not ready", checks)
		return
	}

	writeStatus(w, http.StatusOK, "ready", checks)
}

// liveHandler обрабатывает запросы /live
func (s *Server) liveHandler(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, "alive", nil)
}

// runChecks выполняет все проверки и возвращает первую ошибку
func (s *Server) runChecks(ctx context.Context) (map[string]string, error) {
	checks := make(map[string]string, len(s.checkers))
	var firstErr error

	for _, checker := range s.checkers {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := checker.Ping(checkCtx)
		cancel()

		if err != nil {
			checks[checker.Name()] = err.Error()
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", checker.Name(), err)
			}
			continue
		}
		checks[checker.Name()] = "ok"
	}

	return checks, firstErr
}

func writeStatus(w http.ResponseWriter, code int, status string, checks map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(statusResponse{
		Status:    status,
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	})
}
