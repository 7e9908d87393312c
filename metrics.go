package understory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics are registered on the Engine's registry, so several Engines in
// one process do not collide.
type metrics struct {
	runs          prometheus.Counter
	units         *prometheus.CounterVec
	relations     *prometheus.CounterVec
	dropped       prometheus.Counter
	diagnostics   *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		runs: f.NewCounter(prometheus.CounterOpts{
			Name: "understory_runs_total",
			Help: "Total number of analysis runs.",
		}),
		units: f.NewCounterVec(prometheus.CounterOpts{
			Name: "understory_units_total",
			Help: "Compilation units analyzed, by status.",
		}, []string{"status"}),
		relations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "understory_relations_total",
			Help: "Relations kept after filtering, by kind.",
		}, []string{"kind"}),
		dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "understory_relations_dropped_total",
			Help: "Relations dropped by the noise level or rules.",
		}),
		diagnostics: f.NewCounterVec(prometheus.CounterOpts{
			Name: "understory_diagnostics_total",
			Help: "Diagnostics recorded, by kind.",
		}, []string{"kind"}),
		phaseDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "understory_phase_seconds",
			Help:    "Time spent in each analysis phase.",
			Buckets: prometheus.DefBuckets,
		}, []string{"phase"}),
	}
}
