/*
Package metrics provides Prometheus metrics collection and exposition for
russula's orchestrator and worker binaries.

The package defines and registers russula's metrics using the Prometheus
client library, covering the wire protocol (messages sent/received, instance
state), the phase sequencer (remote command retries, batch readiness, phase
duration), and provisioning/teardown (instances provisioned, teardown
retries and failures). Metrics are exposed via HTTP for scraping by a
Prometheus server.

# Metrics Catalog

Workflow metrics (pkg/workflow):

russula_messages_sent_total{role}:
  - Type: Counter
  - Description: Total protocol messages sent, by role (e.g. server-worker)

russula_messages_received_total{role}:
  - Type: Counter
  - Description: Total protocol messages received, by role

russula_instances_at_state{role, state}:
  - Type: Gauge
  - Description: Number of workflow instances currently at a given state

russula_pairing_retries_total{role}:
  - Type: Counter
  - Description: Total dial/listen retries while pairing workflow instances

Phase sequencer metrics (pkg/phase, pkg/orchestrator):

russula_phase_duration_seconds{phase}:
  - Type: Histogram
  - Description: Time spent in a named orchestrator phase; pkg/orchestrator
    observes it for build, coordinate and teardown only
  - Buckets: 1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600 seconds

russula_remote_command_retries_total{phase}:
  - Type: Counter
  - Description: Total SSM SendCommand retries, by phase

russula_remote_command_batches_ready{phase}:
  - Type: Gauge
  - Description: Number of dispatched command batches that have completed
    as of the latest poll, labelled with the host-group name passed to
    phase.WaitComplete (e.g. "upload-netbench-data")

Provisioning/teardown metrics (pkg/provision):

russula_instances_provisioned{role}:
  - Type: Gauge
  - Description: Number of EC2 instances launched by this process, by role
    (server/client); incremented on launch and not decremented on teardown

russula_teardown_retries_total{resource}:
  - Type: Counter
  - Description: Total teardown retries, by resource kind (placement_group,
    security_group)

russula_teardown_failures_total{resource}:
  - Type: Counter
  - Description: Total teardown operations that exhausted retries without
    succeeding, by resource kind

# Usage

Updating counters and gauges:

	import "github.com/cuemby/russula/pkg/metrics"

	metrics.MessagesSent.WithLabelValues("server-worker").Inc()
	metrics.InstancesAtState.WithLabelValues("server-worker", "Ready").Set(3)

Timing a phase with the Timer helper:

	timer := metrics.NewTimer()
	// ... run the phase ...
	timer.ObserveDurationVec(metrics.PhaseDuration, "coordinate")

Exposing the metrics endpoint:

	http.Handle("/metrics", metrics.Handler())
	http.ListenAndServe(":9090", nil)

# Design Patterns

All metrics are registered in init() via prometheus.MustRegister, so they
are available before main() runs and before any caller touches them. Label
sets are kept low-cardinality (role, phase, resource, state) — never run
IDs or instance IDs, which are unbounded and belong in log fields instead.
*/
package metrics
