package metrics

import "time"

// Source is implemented by a workflow aggregate (or a set of them) so the
// Collector can sample it periodically without importing pkg/workflow
// directly, avoiding a metrics<->workflow import cycle.
type Source interface {
	// Role reports the label used for this source's metrics ("server-coord",
	// "client-worker", etc).
	Role() string
	// StateCounts reports how many instances are currently observed at each
	// state value.
	StateCounts() map[string]int
	// EventCounts reports cumulative send/recv counts across all instances.
	EventCounts() (sent uint64, recv uint64)
}

// Collector periodically samples one or more Sources into the package's
// Prometheus gauges/counters. Mirrors the ticker-based Start/Stop lifecycle
// used throughout this codebase's background loops.
type Collector struct {
	sources []Source
	sent    map[string]uint64
	recv    map[string]uint64
	stopCh  chan struct{}
}

// NewCollector creates a new metrics collector over the given sources.
func NewCollector(sources ...Source) *Collector {
	return &Collector{
		sources: sources,
		sent:    make(map[string]uint64),
		recv:    make(map[string]uint64),
		stopCh:  make(chan struct{}),
	}
}

// Start begins periodic collection.
func (c *Collector) Start() {
	ticker := time.NewTicker(5 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	for _, src := range c.sources {
		role := src.Role()

		for state, count := range src.StateCounts() {
			InstancesAtState.WithLabelValues(role, state).Set(float64(count))
		}

		sent, recv := src.EventCounts()
		if delta := diff(sent, c.sent[role]); delta > 0 {
			MessagesSent.WithLabelValues(role).Add(float64(delta))
		}
		if delta := diff(recv, c.recv[role]); delta > 0 {
			MessagesReceived.WithLabelValues(role).Add(float64(delta))
		}
		c.sent[role] = sent
		c.recv[role] = recv
	}
}

func diff(current, previous uint64) uint64 {
	if current < previous {
		return 0
	}
	return current - previous
}
