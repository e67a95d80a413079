package netbench

import (
	"context"
	"net"

	"github.com/cuemby/russula/pkg/workflow"
)

// ServerCoordProtocol drives one ServerWorker peer through the states
// described in spec 4.5 (server side: Ready -> RunWorker -> WorkersRunning
// -> KillWorker -> WorkerKilled -> Done).
type ServerCoordProtocol struct {
	id        string
	state     ServerCoordState
	peerState ServerWorkerState
	recorder  workflow.EventRecorder
}

// NewServerCoordProtocol constructs a ServerCoord instance paired with one
// ServerWorker. id distinguishes log lines when a Coordinator holds many
// instances.
func NewServerCoordProtocol(id string) *ServerCoordProtocol {
	return &ServerCoordProtocol{
		id:        id,
		state:     ServerCoordState{Kind: SCCheckWorker},
		peerState: ServerWorkerState{Kind: SWWaitCoordInit},
	}
}

func (p *ServerCoordProtocol) Name() string { return "server-c-" + p.id }

func (p *ServerCoordProtocol) PairPeer(ctx context.Context, addr string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, workflow.WrapNetError(err)
	}
	return conn, nil
}

func (p *ServerCoordProtocol) UpdatePeerState(msg workflow.Msg) error {
	kind, ok := parseServerWorkerKind(msg.String())
	if !ok {
		return newUnrecognizedPeerStateError(p.Name(), msg.String())
	}
	p.peerState = ServerWorkerState{Kind: kind}
	return nil
}

func (p *ServerCoordProtocol) State() workflow.State   { return p.state }
func (p *ServerCoordProtocol) SetState(s workflow.State) { p.state = s.(ServerCoordState) }
func (p *ServerCoordProtocol) ReadyState() workflow.State { return ServerCoordState{Kind: SCReady} }
func (p *ServerCoordProtocol) DoneState() workflow.State  { return ServerCoordState{Kind: SCDone} }
func (p *ServerCoordProtocol) WorkerRunningState() workflow.State {
	return ServerCoordState{Kind: SCWorkersRunning}
}
func (p *ServerCoordProtocol) EventRecorder() *workflow.EventRecorder { return &p.recorder }

func (p *ServerCoordProtocol) Run(ctx context.Context, conn net.Conn) (*workflow.Msg, error) {
	switch p.state.Kind {
	case SCCheckWorker, SCRunWorker, SCKillWorker:
		if err := workflow.NotifyPeer(p, conn); err != nil {
			return nil, err
		}
		return workflow.AwaitNextMsg(p, conn)

	case SCReady, SCWorkersRunning, SCWorkerKilled:
		return nil, workflow.TransitionSelfOrUserDriven(p, conn)

	case SCDone:
		return nil, workflow.NotifyPeer(p, conn)
	}
	return nil, nil
}

func parseServerWorkerKind(s string) (ServerWorkerKind, bool) {
	for _, k := range []ServerWorkerKind{SWWaitCoordInit, SWReady, SWRun, SWRunningAwaitKill, SWKilling, SWStopped, SWDone} {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}
