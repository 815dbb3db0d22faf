// Package metrics exposes the simulation kernel's Prometheus instruments.
// It generalizes the teacher engine's internal/api/observability.go metric
// set — bounded-cardinality gauges/counters/histograms registered once via
// promauto, no per-player labels — from render/stream timing to simulation
// tick timing and the kernel's own bounded-collection drop counters.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_tick_duration_seconds",
		Help:    "Time spent in one Core.Update call",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.02},
	})

	playerCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sim_player_count",
		Help: "Current number of registered players",
	})

	wolfCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sim_wolf_count",
		Help: "Current number of live wolves",
	})

	checksumTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sim_checksum_total",
		Help: "Total number of checksum computations",
	})

	desyncTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sim_desync_total",
		Help: "Total number of detected phase divergences from peers",
	})

	// droppedTotal is a bounded-cardinality vector over the kernel's known
	// bounded-collection sources; "reason" is never a free-form string from
	// gameplay data.
	droppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_dropped_events_total",
		Help: "Events dropped by a bounded collection reaching capacity",
	}, []string{"source"}) // recorded source: "hazards"

	packPlanTransitionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_pack_plan_transition_total",
		Help: "Wolf pack plan-state transitions",
	}, []string{"to"}) // bounded: observe/commit/harass/retreat/regroup

	phaseTransitionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_phase_transition_total",
		Help: "Game-state phase transitions",
	}, []string{"to"}) // bounded: the nine gamestate.Phase values

	reconcileVoteTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_reconcile_vote_total",
		Help: "Phase reconciliation votes cast",
	}, []string{"outcome"}) // bounded: "accepted", "rejected", "timed_out"
)

// RecordTick records one Core.Update call's wall-clock duration.
func RecordTick(d time.Duration) { tickDuration.Observe(d.Seconds()) }

// SetPlayerCount updates the player gauge.
func SetPlayerCount(n int) { playerCount.Set(float64(n)) }

// SetWolfCount updates the wolf gauge.
func SetWolfCount(n int) { wolfCount.Set(float64(n)) }

// RecordChecksum increments the checksum counter.
func RecordChecksum() { checksumTotal.Inc() }

// RecordDesync increments the desync counter.
func RecordDesync() { desyncTotal.Inc() }

// RecordDropped increments the dropped-events counter for a bounded source.
func RecordDropped(source string) { droppedTotal.WithLabelValues(source).Inc() }

// RecordPackPlanTransition increments the pack-plan transition counter.
func RecordPackPlanTransition(to string) { packPlanTransitionTotal.WithLabelValues(to).Inc() }

// RecordPhaseTransition increments the game-state phase transition counter.
func RecordPhaseTransition(to string) { phaseTransitionTotal.WithLabelValues(to).Inc() }

// RecordReconcileVote increments the reconciliation vote outcome counter.
func RecordReconcileVote(outcome string) { reconcileVoteTotal.WithLabelValues(outcome).Inc() }
