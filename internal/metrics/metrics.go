// Package metrics содержит метрики Prometheus бота.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "freegames"

// Результаты цикла и отправки
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics содержит метрики цикла сверки
type Metrics struct {
	CyclesTotal        *prometheus.CounterVec
	CycleDuration      prometheus.Histogram
	ItemsFetched       prometheus.Gauge
	AnnouncementsTotal *prometheus.CounterVec
	TrackedItems       prometheus.Gauge
	ExpiredTotal       prometheus.Counter
	StateErrorsTotal   *prometheus.CounterVec
	CommandsTotal      *prometheus.CounterVec
}

// New регистрирует метрики в реестре. При nil используется реестр по умолчанию.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		CyclesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_total",
				Help:      "Total reconciliation cycles by trigger and result.",
			},
			[]string{"trigger", "result"},
		),
		CycleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cycle_duration_seconds",
				Help:      "Duration of reconciliation cycles.",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		ItemsFetched: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "items_fetched",
				Help:      "Free items returned by the last catalog fetch.",
			},
		),
		AnnouncementsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "announcements_total",
				Help:      "Total announcement send attempts by result.",
			},
			[]string{"result"},
		),
		TrackedItems: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tracked_items",
				Help:      "Items in the tracked state after the last cycle.",
			},
		),
		ExpiredTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "expired_total",
				Help:      "Total items removed from the tracked state by retention.",
			},
		),
		StateErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_errors_total",
				Help:      "Total state store errors by operation and backend.",
			},
			[]string{"op", "backend"},
		),
		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Total chat commands handled by command and result.",
			},
			[]string{"command", "result"},
		),
	}
}

// ObserveCycle фиксирует завершение цикла
func (m *Metrics) ObserveCycle(trigger string, err error, started time.Time) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(trigger, result(err)).Inc()
	m.CycleDuration.Observe(time.Since(started).Seconds())
}

// ObserveAnnouncement фиксирует попытку отправки объявления
func (m *Metrics) ObserveAnnouncement(err error) {
	if m == nil {
		return
	}
	m.AnnouncementsTotal.WithLabelValues(result(err)).Inc()
}

// ObserveState фиксирует размер состояния и количество удаленных записей
func (m *Metrics) ObserveState(fetched, tracked, expired int) {
	if m == nil {
		return
	}
	m.ItemsFetched.Set(float64(fetched))
	m.TrackedItems.Set(float64(tracked))
	m.ExpiredTotal.Add(float64(expired))
}

// ObserveStateError фиксирует ошибку хранилища
func (m *Metrics) ObserveStateError(op, backend string) {
	if m == nil {
		return
	}
	m.StateErrorsTotal.WithLabelValues(op, backend).Inc()
}

// ObserveCommand фиксирует обработку команды
func (m *Metrics) ObserveCommand(command string, err error) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(command, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
