// Package metrics defines the Prometheus collectors of the bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Onboarding step results.
const (
	ResultAccepted  = "accepted"
	ResultRejected  = "rejected"
	ResultFailed    = "failed"
	ResultConflict  = "conflict"
	ResultDuplicate = "duplicate"
)

// Metrics holds all collectors, registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	UpdatesTotal        *prometheus.CounterVec
	OnboardingSteps     *prometheus.CounterVec
	OnboardingCompleted prometheus.Counter
	MealsLogged         prometheus.Counter
	FoodUnrecognized    prometheus.Counter
	ErrorsTotal         *prometheus.CounterVec
	UpdateDuration      *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, including Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		UpdatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kbzhu_updates_total",
			Help: "Telegram updates received, by type.",
		}, []string{"type"}),

		OnboardingSteps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kbzhu_onboarding_steps_total",
			Help: "Onboarding answers processed, by state and result.",
		}, []string{"state", "result"}),

		OnboardingCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "kbzhu_onboarding_completed_total",
			Help: "Questionnaires completed.",
		}),

		MealsLogged: factory.NewCounter(prometheus.CounterOpts{
			Name: "kbzhu_meals_logged_total",
			Help: "Meal entries saved.",
		}),

		FoodUnrecognized: factory.NewCounter(prometheus.CounterOpts{
			Name: "kbzhu_food_unrecognized_total",
			Help: "Food messages that matched no dictionary entry.",
		}),

		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kbzhu_errors_total",
			Help: "Errors surfaced to users, by kind.",
		}, []string{"kind"}),

		UpdateDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kbzhu_update_duration_seconds",
			Help:    "Time spent handling an update, by handler.",
			Buckets: prometheus.DefBuckets,
		}, []string{"handler"}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
