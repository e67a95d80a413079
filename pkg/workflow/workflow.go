package workflow

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/cuemby/russula/pkg/log"
	"github.com/cuemby/russula/pkg/metrics"
)

// PairingRetryAttempts is the bounded number of connect attempts a
// WorkflowBuilder makes per peer before failing with PairingExhausted.
const PairingRetryAttempts = 10

// Instance is one Workflow's view of a single peer: its address, the
// underlying connection, and its role-state-machine protocol. Owned
// exclusively by the Workflow that created it.
type Instance struct {
	Addr     string
	Conn     net.Conn
	Protocol Protocol
}

// Workflow is an ordered collection of Instances plus a poll interval. A
// Coordinator's Workflow holds one Instance per Worker; a Worker's Workflow
// holds exactly one Instance (its Coordinator).
type Workflow struct {
	role      string
	instances []*Instance
	pollDelay time.Duration
}

// Role reports the label used when this Workflow is sampled by pkg/metrics.
func (w *Workflow) Role() string { return w.role }

// Instances returns the Workflow's instances, in order.
func (w *Workflow) Instances() []*Instance { return w.instances }

// PollState polls every instance once against target and reports whether
// the aggregate is ready — the meet (latest-common) semantics described by
// the coordination protocol: ready iff every instance has reached target.
// A fatal error on any single instance aborts the whole aggregate, matching
// "the engine logs it and aborts the entire aggregate."
func (w *Workflow) PollState(ctx context.Context, target State) (bool, error) {
	ready := true
	for _, inst := range w.instances {
		instReady, err := PollState(ctx, inst.Protocol, inst.Conn, target)
		if err != nil {
			if !IsFatal(err) {
				ready = false
				continue
			}
			log.WithComponent("workflow").Error().Err(err).Str("peer", inst.Addr).Msg("fatal error, aborting aggregate")
			return false, fmt.Errorf("workflow: instance %s: %w", inst.Addr, err)
		}
		if !instReady {
			ready = false
		}
	}
	return ready, nil
}

// RunTill polls repeatedly, sleeping the configured poll interval between
// attempts, until target is reached by every instance.
func (w *Workflow) RunTill(ctx context.Context, target State) error {
	for {
		ready, err := w.PollState(ctx, target)
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
		select {
		case <-time.After(w.pollDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// IsState reports whether every instance is currently at target, without
// running any action (a pure snapshot check).
func (w *Workflow) IsState(target State) bool {
	for _, inst := range w.instances {
		if !Equal(inst.Protocol.State(), target) {
			return false
		}
	}
	return true
}

// StateCounts implements metrics.Source.
func (w *Workflow) StateCounts() map[string]int {
	counts := make(map[string]int)
	for _, inst := range w.instances {
		counts[inst.Protocol.State().String()]++
	}
	return counts
}

// EventCounts implements metrics.Source: cumulative send/recv counts across
// all instances.
func (w *Workflow) EventCounts() (sent, recv uint64) {
	for _, inst := range w.instances {
		s, r := inst.Protocol.EventRecorder().Counts()
		sent += s
		recv += r
	}
	return sent, recv
}

// WorkflowBuilder pairs a Workflow's instances (establishing their
// connections, with bounded retry) before handing back a ready-to-poll
// Workflow.
type WorkflowBuilder struct {
	role      string
	addrs     []string
	newProto  func(addr string) Protocol
	pollDelay time.Duration
}

// NewWorkflowBuilder constructs a builder for the given peer addresses. For
// a Coordinator, addrs is the set of Worker addresses to dial; for a
// Worker, addrs is a single-element slice naming its own bind address.
func NewWorkflowBuilder(role string, addrs []string, newProto func(addr string) Protocol, pollDelay time.Duration) *WorkflowBuilder {
	return &WorkflowBuilder{role: role, addrs: addrs, newProto: newProto, pollDelay: pollDelay}
}

// Build establishes every instance's connection, retrying each up to
// PairingRetryAttempts times with pollDelay between attempts. On exhaustion
// for any peer, it fails with PairingExhausted.
func (b *WorkflowBuilder) Build(ctx context.Context) (*Workflow, error) {
	instances := make([]*Instance, 0, len(b.addrs))
	wfLog := log.WithComponent("workflow")

	for _, addr := range b.addrs {
		proto := b.newProto(addr)

		var conn net.Conn
		var lastErr error
		for attempt := 0; attempt < PairingRetryAttempts; attempt++ {
			conn, lastErr = proto.PairPeer(ctx, addr)
			if lastErr == nil {
				break
			}
			wfLog.Debug().Str("peer", addr).Int("attempt", attempt).Err(lastErr).Msg("pairing attempt failed")
			metrics.PairingRetries.WithLabelValues(b.role).Inc()
			select {
			case <-time.After(b.pollDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if lastErr != nil {
			return nil, newError(PairingExhausted, fmt.Sprintf("pairing exhausted for %s after %d attempts", addr, PairingRetryAttempts), lastErr)
		}

		instances = append(instances, &Instance{Addr: addr, Conn: conn, Protocol: proto})
	}

	return &Workflow{role: b.role, instances: instances, pollDelay: b.pollDelay}, nil
}
