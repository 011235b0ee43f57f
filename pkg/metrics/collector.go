// Package metrics exposes Prometheus instrumentation for the bot.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hadis11/study.bot/internal/state"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "state_transitions_total",
			Help: "Total number of conversation state transitions",
		},
		[]string{"from", "to"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by code and severity",
		},
		[]string{"code", "severity"},
	)
	studyEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "study_hour_entries_total",
			Help: "Total number of study hour entries recorded",
		},
	)
	pointsAwardedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "points_awarded_total",
			Help: "Total number of points awarded between users",
		},
	)
	reportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_generated_total",
			Help: "Total number of reports generated labeled by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
	storeFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_failures_total",
			Help: "Total number of store failures labeled by operation and failure class",
		},
		[]string{"operation", "class"},
	)
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Current number of users with a stored conversation state",
		},
	)
	usersByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "users_by_state",
			Help: "Number of users per conversation state",
		},
		[]string{"state"},
	)
)

var trackedStates = []state.State{
	state.StateIdle,
	state.StateAwaitingStudyHours,
	state.StateAwaitingAwardDetails,
}

func init() {
	state.RegisterTransitionRecorder(RecordStateTransition)
}

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordStateTransition tracks FSM transitions.
func RecordStateTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(code, severity string) {
	if code == "" {
		code = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(code, severity).Inc()
}

// RecordStudyEntry counts a recorded study hour entry.
func RecordStudyEntry() {
	studyEntriesTotal.Inc()
}

// RecordPointsAwarded adds awarded points.
func RecordPointsAwarded(points int64) {
	if points <= 0 {
		return
	}
	pointsAwardedTotal.Add(float64(points))
}

// RecordReport counts a generated report; outcome is "ok", "empty" or "error".
func RecordReport(kind, outcome string) {
	reportsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordStoreFailure counts a classified store failure.
func RecordStoreFailure(operation, class string) {
	storeFailuresTotal.WithLabelValues(operation, class).Inc()
}

// SetUsersByState updates the gauge for the given state.
func SetUsersByState(state string, count int) {
	if state == "" {
		state = "unknown"
	}

	usersByState.WithLabelValues(state).Set(float64(count))
}

// StateCollector periodically gathers FSM state counts and emits gauge metrics.
type StateCollector struct {
	fsm      state.StateMachine
	interval time.Duration
}

// NewStateCollector builds a metrics collector bound to the provided FSM.
func NewStateCollector(fsm state.StateMachine, interval time.Duration) *StateCollector {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &StateCollector{fsm: fsm, interval: interval}
}

// Run polls the FSM on every interval, updating gauges until ctx is cancelled.
func (c *StateCollector) Run(ctx context.Context) {
	if c == nil || c.fsm == nil {
		return
	}

	for {
		_ = c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.interval):
		}
	}
}

func (c *StateCollector) collect(ctx context.Context) error {
	states, err := c.fsm.GetAllStates(ctx)
	if err != nil {
		return err
	}

	activeSessions.Set(float64(len(states)))

	stateCounts := make(map[string]int, len(states))
	for _, st := range states {
		label := "unknown"
		if st != nil && st.CurrentState != "" {
			label = string(st.CurrentState)
		}
		stateCounts[label]++
	}

	usersByState.Reset()

	for _, tracked := range trackedStates {
		label := string(tracked)
		SetUsersByState(label, stateCounts[label])
		delete(stateCounts, label)
	}

	for label, count := range stateCounts {
		SetUsersByState(label, count)
	}

	return nil
}
