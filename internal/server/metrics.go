package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Le-Vincent56/Procedural-Generation/internal/wfc"
)

var (
	// runsTotal counts finished solver runs by outcome.
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wfc",
		Subsystem: "server",
		Name:      "runs_total",
		Help:      "Finished solver runs by outcome",
	}, []string{"outcome"})

	// collapsesTotal counts committed cell collapses across all runs.
	collapsesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wfc",
		Subsystem: "server",
		Name:      "collapses_total",
		Help:      "Cells collapsed across all runs",
	})

	// contradictionsTotal counts emptied possibility sets across all runs.
	contradictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wfc",
		Subsystem: "server",
		Name:      "contradictions_total",
		Help:      "Contradictions reached across all runs",
	})

	// backtracksTotal counts snapshot restores across all runs.
	backtracksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wfc",
		Subsystem: "server",
		Name:      "backtracks_total",
		Help:      "Snapshot restores across all runs",
	})

	// solveDuration is the wall-clock run duration distribution.
	solveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "wfc",
		Subsystem: "server",
		Name:      "solve_duration_seconds",
		Help:      "Wall-clock duration of solver runs",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	})

	// activeRuns tracks the number of runs currently in flight.
	activeRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "wfc",
		Subsystem: "server",
		Name:      "active_runs",
		Help:      "Solver runs currently in flight",
	})
)

// recordRun folds one finished run into the counters.
func recordRun(result *wfc.Result) {
	runsTotal.WithLabelValues(string(result.Outcome)).Inc()
	collapsesTotal.Add(float64(result.Stats.Collapses))
	contradictionsTotal.Add(float64(result.Stats.Contradictions))
	backtracksTotal.Add(float64(result.Stats.Backtracks))
	solveDuration.Observe(float64(result.Stats.ElapsedMS) / 1000)
}
