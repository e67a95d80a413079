package netbench

import (
	"context"
	"net"

	"github.com/cuemby/russula/pkg/workflow"
)

// ClientCoordProtocol drives one ClientWorker peer through the states
// described in spec 4.5 (client side: Ready -> RunWorker -> WorkersRunning
// -> Done; there is no kill step, since the client subprocess exits on its
// own).
type ClientCoordProtocol struct {
	id        string
	state     ClientCoordState
	peerState ClientWorkerState
	recorder  workflow.EventRecorder
}

// NewClientCoordProtocol constructs a ClientCoord instance paired with one
// ClientWorker.
func NewClientCoordProtocol(id string) *ClientCoordProtocol {
	return &ClientCoordProtocol{
		id:        id,
		state:     ClientCoordState{Kind: CCCheckWorker},
		peerState: ClientWorkerState{Kind: CWWaitCoordInit},
	}
}

func (p *ClientCoordProtocol) Name() string { return "client-c-" + p.id }

func (p *ClientCoordProtocol) PairPeer(ctx context.Context, addr string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, workflow.WrapNetError(err)
	}
	return conn, nil
}

func (p *ClientCoordProtocol) UpdatePeerState(msg workflow.Msg) error {
	kind, ok := parseClientWorkerKind(msg.String())
	if !ok {
		return newUnrecognizedPeerStateError(p.Name(), msg.String())
	}
	p.peerState = ClientWorkerState{Kind: kind}
	return nil
}

func (p *ClientCoordProtocol) State() workflow.State     { return p.state }
func (p *ClientCoordProtocol) SetState(s workflow.State) { p.state = s.(ClientCoordState) }
func (p *ClientCoordProtocol) ReadyState() workflow.State {
	return ClientCoordState{Kind: CCReady}
}
func (p *ClientCoordProtocol) DoneState() workflow.State { return ClientCoordState{Kind: CCDone} }
func (p *ClientCoordProtocol) WorkerRunningState() workflow.State {
	return ClientCoordState{Kind: CCWorkersRunning}
}
func (p *ClientCoordProtocol) EventRecorder() *workflow.EventRecorder { return &p.recorder }

func (p *ClientCoordProtocol) Run(ctx context.Context, conn net.Conn) (*workflow.Msg, error) {
	switch p.state.Kind {
	case CCCheckWorker, CCRunWorker, CCWorkersRunning:
		if err := workflow.NotifyPeer(p, conn); err != nil {
			return nil, err
		}
		return workflow.AwaitNextMsg(p, conn)

	case CCReady:
		return nil, workflow.TransitionSelfOrUserDriven(p, conn)

	case CCDone:
		return nil, workflow.NotifyPeer(p, conn)
	}
	return nil, nil
}

func parseClientWorkerKind(s string) (ClientWorkerKind, bool) {
	for _, k := range []ClientWorkerKind{CWWaitCoordInit, CWReady, CWRun, CWRunning, CWRunningAwaitComplete, CWStopped, CWDone} {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}
