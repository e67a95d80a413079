package workflow

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toyState is a minimal two-state role used to exercise the engine
// primitives without pulling in the netbench state machines.
type toyState struct {
	name string
}

func (s toyState) Bytes() []byte  { return []byte(s.name) }
func (s toyState) String() string { return s.name }
func (s toyState) TransitionStep() TransitionStep {
	if s.name == "ready" {
		return AwaitNextStep([]byte("ready"))
	}
	return FinishedStep()
}
func (s toyState) NextState() State {
	if s.name == "ready" {
		return toyState{name: "done"}
	}
	return s
}

var toyReady = toyState{name: "ready"}
var toyDone = toyState{name: "done"}

// toyProtocol notifies its peer then awaits the same state back, then is done.
type toyProtocol struct {
	name     string
	state    State
	recorder EventRecorder
}

func (p *toyProtocol) Name() string { return p.name }
func (p *toyProtocol) PairPeer(ctx context.Context, addr string) (net.Conn, error) {
	return nil, nil // connections are injected directly in these tests
}
func (p *toyProtocol) UpdatePeerState(msg Msg) error { return nil }
func (p *toyProtocol) State() State                  { return p.state }
func (p *toyProtocol) SetState(s State)              { p.state = s }
func (p *toyProtocol) ReadyState() State             { return toyReady }
func (p *toyProtocol) DoneState() State              { return toyDone }
func (p *toyProtocol) WorkerRunningState() State     { return toyDone }
func (p *toyProtocol) EventRecorder() *EventRecorder { return &p.recorder }
func (p *toyProtocol) Run(ctx context.Context, conn net.Conn) (*Msg, error) {
	switch p.state.TransitionStep().Kind {
	case StepAwaitNext:
		if err := NotifyPeer(p, conn); err != nil {
			return nil, err
		}
		return AwaitNextMsg(p, conn)
	case StepFinished:
		if err := NotifyPeer(p, conn); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return nil, nil
}

func TestEngineLivenessBothReachDone(t *testing.T) {
	// A loopback TCP pair, not net.Pipe: both peers notify before reading,
	// which needs the socket buffering the real transport has.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	accepted := make(chan net.Conn, 1)
	go func() {
		c, _ := ln.Accept()
		accepted <- c
	}()
	a, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	b := <-accepted
	require.NotNil(t, b)
	defer a.Close()
	defer b.Close()

	p1 := &toyProtocol{name: "p1", state: toyReady}
	p2 := &toyProtocol{name: "p2", state: toyReady}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan struct{}, 2)
	go func() {
		for !IsDoneState(p1) {
			_, _ = PollState(ctx, p1, a, toyDone)
		}
		done <- struct{}{}
	}()
	go func() {
		for !IsDoneState(p2) {
			_, _ = PollState(ctx, p2, b, toyDone)
		}
		done <- struct{}{}
	}()

	<-done
	<-done

	assert.True(t, Equal(p1.State(), toyDone))
	assert.True(t, Equal(p2.State(), toyDone))
}

func TestStateSerializationInjective(t *testing.T) {
	require.False(t, Equal(toyReady, toyDone))
	assert.True(t, Equal(toyReady, toyState{name: "ready"}))
}

func TestIsDoneState(t *testing.T) {
	p := &toyProtocol{state: toyReady}
	assert.False(t, IsDoneState(p))
	p.SetState(toyDone)
	assert.True(t, IsDoneState(p))
}
