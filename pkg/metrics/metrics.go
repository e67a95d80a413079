package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Workflow metrics
	MessagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "russula_messages_sent_total",
			Help: "Total number of workflow messages sent, by role",
		},
		[]string{"role"},
	)

	MessagesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "russula_messages_received_total",
			Help: "Total number of workflow messages received, by role",
		},
		[]string{"role"},
	)

	InstancesAtState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "russula_instances_at_state",
			Help: "Number of workflow instances currently observed at a given state, by role",
		},
		[]string{"role", "state"},
	)

	PairingRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "russula_pairing_retries_total",
			Help: "Total number of pairing (connect) retries attempted",
		},
		[]string{"role"},
	)

	// Phase sequencer metrics
	PhaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "russula_phase_duration_seconds",
			Help:    "Time taken for an orchestrator phase to complete",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"phase"},
	)

	RemoteCommandRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "russula_remote_command_retries_total",
			Help: "Total number of remote-command dispatch retries, by phase",
		},
		[]string{"phase"},
	)

	RemoteCommandBatchesReady = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "russula_remote_command_batches_ready",
			Help: "Number of remote-command batches that have reached a ready status, by phase",
		},
		[]string{"phase"},
	)

	// Provisioning / teardown metrics
	TeardownRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "russula_teardown_retries_total",
			Help: "Total number of teardown retries, by resource kind",
		},
		[]string{"resource"},
	)

	TeardownFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "russula_teardown_failures_total",
			Help: "Total number of teardown operations that exhausted their retry budget",
		},
		[]string{"resource"},
	)

	InstancesProvisioned = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "russula_instances_provisioned",
			Help: "Number of cloud instances launched by this process, by role (not decremented on teardown)",
		},
		[]string{"role"},
	)
)

func init() {
	prometheus.MustRegister(MessagesSent)
	prometheus.MustRegister(MessagesReceived)
	prometheus.MustRegister(InstancesAtState)
	prometheus.MustRegister(PairingRetries)
	prometheus.MustRegister(PhaseDuration)
	prometheus.MustRegister(RemoteCommandRetries)
	prometheus.MustRegister(RemoteCommandBatchesReady)
	prometheus.MustRegister(TeardownRetries)
	prometheus.MustRegister(TeardownFailuresTotal)
	prometheus.MustRegister(InstancesProvisioned)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
