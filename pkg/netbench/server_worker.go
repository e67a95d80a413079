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

// ServerWorkerProtocol drives one netbench server subprocess through the
// states described in spec 4.3.
type ServerWorkerProtocol struct {
	id        string
	state     ServerWorkerState
	peerState ServerCoordState
	ctx       ServerContext
	recorder  workflow.EventRecorder
	proc      *process.Handle
}

// NewServerWorkerProtocol constructs a ServerWorker identified by id (used
// in logs and output filenames, e.g. "0", "1", ...).
func NewServerWorkerProtocol(id string, ctx ServerContext) *ServerWorkerProtocol {
	return &ServerWorkerProtocol{
		id:        id,
		state:     ServerWorkerState{Kind: SWWaitCoordInit},
		peerState: ServerCoordState{Kind: SCCheckWorker},
		ctx:       ctx,
	}
}

func (p *ServerWorkerProtocol) Name() string { return fmt.Sprintf("server-w-%s", p.id) }

func (p *ServerWorkerProtocol) PairPeer(ctx context.Context, addr string) (net.Conn, error) {
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

func (p *ServerWorkerProtocol) UpdatePeerState(msg workflow.Msg) error {
	kind, ok := parseServerCoordKind(msg.String())
	if !ok {
		return newUnrecognizedPeerStateError(p.Name(), msg.String())
	}
	p.peerState = ServerCoordState{Kind: kind}
	return nil
}

func (p *ServerWorkerProtocol) State() workflow.State { return p.state }
func (p *ServerWorkerProtocol) SetState(s workflow.State) {
	p.state = s.(ServerWorkerState)
}
func (p *ServerWorkerProtocol) ReadyState() workflow.State         { return ServerWorkerState{Kind: SWReady} }
func (p *ServerWorkerProtocol) DoneState() workflow.State          { return ServerWorkerState{Kind: SWDone} }
func (p *ServerWorkerProtocol) WorkerRunningState() workflow.State {
	panic("netbench: WorkerRunningState should only be called on Coordinators")
}
func (p *ServerWorkerProtocol) EventRecorder() *workflow.EventRecorder { return &p.recorder }

func (p *ServerWorkerProtocol) Run(ctx context.Context, conn net.Conn) (*workflow.Msg, error) {
	switch p.state.Kind {
	case SWWaitCoordInit:
		return workflow.AwaitNextMsg(p, conn)

	case SWReady:
		if err := workflow.NotifyPeer(p, conn); err != nil {
			return nil, err
		}
		return workflow.AwaitNextMsg(p, conn)

	case SWRun:
		return nil, p.runSubprocess(ctx, conn)

	case SWRunningAwaitKill:
		if err := workflow.NotifyPeer(p, conn); err != nil {
			return nil, err
		}
		return workflow.AwaitNextMsg(p, conn)

	case SWKilling:
		return nil, p.kill(conn)

	case SWStopped:
		if err := workflow.NotifyPeer(p, conn); err != nil {
			return nil, err
		}
		return workflow.AwaitNextMsg(p, conn)

	case SWDone:
		return nil, workflow.NotifyPeer(p, conn)
	}
	return nil, nil
}

func (p *ServerWorkerProtocol) runSubprocess(ctx context.Context, conn net.Conn) error {
	binary := filepath.Join(p.ctx.NetbenchPath, p.ctx.Driver)
	env := []string{fmt.Sprintf("PORT=%d", p.ctx.NetbenchPort)}
	outPath := filepath.Join(p.ctx.NetbenchPath, fmt.Sprintf("%s-%s.json", p.ctx.TrimmedDriverName(), p.id))

	if p.ctx.Testing {
		binary = "true"
		env = nil
	}

	handle, err := process.Spawn(ctx, binary, []string{"--scenario", filepath.Join(p.ctx.NetbenchPath, p.ctx.Scenario)}, env, outPath)
	if err != nil {
		return fmt.Errorf("netbench: %s: spawn server: %w", p.Name(), err)
	}
	p.proc = handle

	p.state = ServerWorkerState{Kind: SWRunningAwaitKill, Pid: handle.Pid}
	return workflow.NotifyPeer(p, conn)
}

func (p *ServerWorkerProtocol) kill(conn net.Conn) error {
	status, err := process.Probe(p.state.Pid)
	if err != nil {
		return fmt.Errorf("netbench: %s: probe pid %d: %w", p.Name(), p.state.Pid, err)
	}
	if status == process.Absent {
		log.WithComponent("netbench").Info().Str("name", p.Name()).Int("pid", p.state.Pid).Msg("server subprocess already exited")
	} else {
		if err := process.Terminate(p.state.Pid); err != nil {
			return fmt.Errorf("netbench: %s: terminate pid %d: %w", p.Name(), p.state.Pid, err)
		}
	}

	p.state = ServerWorkerState{Kind: SWStopped}
	return workflow.NotifyPeer(p, conn)
}

func parseServerCoordKind(s string) (ServerCoordKind, bool) {
	for _, k := range []ServerCoordKind{SCCheckWorker, SCReady, SCRunWorker, SCWorkersRunning, SCKillWorker, SCWorkerKilled, SCDone} {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}
