package netbench

import (
	"context"
	"fmt"
	"net"
	"path/filepath"

	"github.com/cuemby/russula/pkg/log"
	"github.com/cuemby/russula/pkg/process"
	"github.com/cuemby/russula/pkg/workflow"
)

// ClientWorkerProtocol drives one netbench client subprocess through the
// states described in spec 4.4. Unlike the server side, the subprocess is
// expected to exit on its own; RunningAwaitComplete polls the process table
// each tick rather than waiting for an explicit kill command.
type ClientWorkerProtocol struct {
	id        string
	state     ClientWorkerState
	peerState ClientCoordState
	ctx       ClientContext
	recorder  workflow.EventRecorder
	proc      *process.Handle
}

// NewClientWorkerProtocol constructs a ClientWorker identified by id.
func NewClientWorkerProtocol(id string, ctx ClientContext) *ClientWorkerProtocol {
	return &ClientWorkerProtocol{
		id:        id,
		state:     ClientWorkerState{Kind: CWWaitCoordInit},
		peerState: ClientCoordState{Kind: CCCheckWorker},
		ctx:       ctx,
	}
}

func (p *ClientWorkerProtocol) Name() string { return fmt.Sprintf("client-w-%s", p.id) }

func (p *ClientWorkerProtocol) PairPeer(ctx context.Context, addr string) (net.Conn, error) {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, workflow.WrapNetError(err)
	}
	defer ln.Close()
	log.WithComponent("netbench").Info().Str("name", p.Name()).Str("addr", addr).Msg("listening for coordinator")

	conn, err := ln.Accept()
	if err != nil {
		return nil, workflow.WrapNetError(err)
	}
	return conn, nil
}

func (p *ClientWorkerProtocol) UpdatePeerState(msg workflow.Msg) error {
	kind, ok := parseClientCoordKind(msg.String())
	if !ok {
		return newUnrecognizedPeerStateError(p.Name(), msg.String())
	}
	p.peerState = ClientCoordState{Kind: kind}
	return nil
}

func (p *ClientWorkerProtocol) State() workflow.State     { return p.state }
func (p *ClientWorkerProtocol) SetState(s workflow.State) { p.state = s.(ClientWorkerState) }
func (p *ClientWorkerProtocol) ReadyState() workflow.State {
	return ClientWorkerState{Kind: CWReady}
}
func (p *ClientWorkerProtocol) DoneState() workflow.State { return ClientWorkerState{Kind: CWDone} }
func (p *ClientWorkerProtocol) WorkerRunningState() workflow.State {
	panic("netbench: WorkerRunningState should only be called on Coordinators")
}
func (p *ClientWorkerProtocol) EventRecorder() *workflow.EventRecorder { return &p.recorder }

func (p *ClientWorkerProtocol) Run(ctx context.Context, conn net.Conn) (*workflow.Msg, error) {
	switch p.state.Kind {
	case CWWaitCoordInit:
		return workflow.AwaitNextMsg(p, conn)

	case CWReady:
		if err := workflow.NotifyPeer(p, conn); err != nil {
			return nil, err
		}
		return workflow.AwaitNextMsg(p, conn)

	case CWRun:
		return nil, p.runSubprocess(ctx, conn)

	case CWRunning:
		if err := workflow.NotifyPeer(p, conn); err != nil {
			return nil, err
		}
		return workflow.AwaitNextMsg(p, conn)

	case CWRunningAwaitComplete:
		return nil, p.pollComplete(conn)

	case CWStopped:
		if err := workflow.NotifyPeer(p, conn); err != nil {
			return nil, err
		}
		return workflow.AwaitNextMsg(p, conn)

	case CWDone:
		return nil, workflow.NotifyPeer(p, conn)
	}
	return nil, nil
}

func (p *ClientWorkerProtocol) runSubprocess(ctx context.Context, conn net.Conn) error {
	binary := filepath.Join(p.ctx.NetbenchPath, p.ctx.Driver)
	env := make([]string, 0, len(p.ctx.NetbenchServers))
	for i, server := range p.ctx.NetbenchServers {
		env = append(env, fmt.Sprintf("SERVER_%d=%s", i, server))
	}
	outPath := filepath.Join(p.ctx.NetbenchPath, fmt.Sprintf("%s-%s.json", p.ctx.TrimmedDriverName(), p.id))

	if p.ctx.Testing {
		binary = "true"
		env = nil
	}

	handle, err := process.Spawn(ctx, binary, []string{"--scenario", filepath.Join(p.ctx.NetbenchPath, p.ctx.Scenario)}, env, outPath)
	if err != nil {
		return fmt.Errorf("netbench: %s: spawn client: %w", p.Name(), err)
	}
	p.proc = handle

	p.state = ClientWorkerState{Kind: CWRunning, Pid: handle.Pid}
	return workflow.NotifyPeer(p, conn)
}

func (p *ClientWorkerProtocol) pollComplete(conn net.Conn) error {
	status, err := process.Probe(p.state.Pid)
	if err != nil {
		return fmt.Errorf("netbench: %s: probe pid %d: %w", p.Name(), p.state.Pid, err)
	}

	switch status {
	case process.Absent:
		p.state = ClientWorkerState{Kind: CWStopped}
		return workflow.NotifyPeer(p, conn)
	case process.Zombie:
		log.WithComponent("netbench").Warn().Str("name", p.Name()).Int("pid", p.state.Pid).Msg("client subprocess exited into zombie state, advancing anyway")
		p.state = ClientWorkerState{Kind: CWStopped}
		return workflow.NotifyPeer(p, conn)
	default:
		return nil
	}
}

func parseClientCoordKind(s string) (ClientCoordKind, bool) {
	for _, k := range []ClientCoordKind{CCCheckWorker, CCReady, CCRunWorker, CCWorkersRunning, CCDone} {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}
