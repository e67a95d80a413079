package netbench

import "github.com/cuemby/russula/pkg/workflow"

// ServerWorkerKind enumerates a ServerWorker's states (spec 4.3).
type ServerWorkerKind int

const (
	SWWaitCoordInit ServerWorkerKind = iota
	SWReady
	SWRun
	SWRunningAwaitKill
	SWKilling
	SWStopped
	SWDone
)

func (k ServerWorkerKind) String() string {
	switch k {
	case SWWaitCoordInit:
		return "WaitCoordInit"
	case SWReady:
		return "Ready"
	case SWRun:
		return "Run"
	case SWRunningAwaitKill:
		return "RunningAwaitKill"
	case SWKilling:
		return "Killing"
	case SWStopped:
		return "Stopped"
	case SWDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// ServerWorkerState is one ServerWorker state. Pid is a local-only
// subprocess identifier excluded from the wire encoding.
type ServerWorkerState struct {
	Kind ServerWorkerKind
	Pid  int
}

func (s ServerWorkerState) Bytes() []byte  { return []byte(s.Kind.String()) }
func (s ServerWorkerState) String() string { return s.Kind.String() }

func (s ServerWorkerState) TransitionStep() workflow.TransitionStep {
	switch s.Kind {
	case SWWaitCoordInit:
		return workflow.AwaitNextStep(ServerCoordState{Kind: SCCheckWorker}.Bytes())
	case SWReady:
		return workflow.AwaitNextStep(ServerCoordState{Kind: SCRunWorker}.Bytes())
	case SWRun:
		return workflow.SelfDrivenStep()
	case SWRunningAwaitKill:
		return workflow.AwaitNextStep(ServerCoordState{Kind: SCKillWorker}.Bytes())
	case SWKilling:
		return workflow.SelfDrivenStep()
	case SWStopped:
		return workflow.AwaitNextStep(ServerCoordState{Kind: SCDone}.Bytes())
	case SWDone:
		return workflow.FinishedStep()
	default:
		return workflow.FinishedStep()
	}
}

func (s ServerWorkerState) NextState() workflow.State {
	switch s.Kind {
	case SWWaitCoordInit:
		return ServerWorkerState{Kind: SWReady}
	case SWReady:
		return ServerWorkerState{Kind: SWRun}
	case SWRun:
		return ServerWorkerState{Kind: SWRunningAwaitKill, Pid: s.Pid}
	case SWRunningAwaitKill:
		return ServerWorkerState{Kind: SWKilling, Pid: s.Pid}
	case SWKilling:
		return ServerWorkerState{Kind: SWStopped}
	case SWStopped:
		return ServerWorkerState{Kind: SWDone}
	default:
		return ServerWorkerState{Kind: SWDone}
	}
}

// ServerCoordKind enumerates a ServerCoord's states (spec 4.5).
type ServerCoordKind int

const (
	SCCheckWorker ServerCoordKind = iota
	SCReady
	SCRunWorker
	SCWorkersRunning
	SCKillWorker
	SCWorkerKilled
	SCDone
)

func (k ServerCoordKind) String() string {
	switch k {
	case SCCheckWorker:
		return "CheckWorker"
	case SCReady:
		return "Ready"
	case SCRunWorker:
		return "RunWorker"
	case SCWorkersRunning:
		return "WorkersRunning"
	case SCKillWorker:
		return "KillWorker"
	case SCWorkerKilled:
		return "WorkerKilled"
	case SCDone:
		return "Done"
	default:
		return "Unknown"
	}
}

type ServerCoordState struct {
	Kind ServerCoordKind
}

func (s ServerCoordState) Bytes() []byte  { return []byte(s.Kind.String()) }
func (s ServerCoordState) String() string { return s.Kind.String() }

func (s ServerCoordState) TransitionStep() workflow.TransitionStep {
	switch s.Kind {
	case SCCheckWorker:
		return workflow.AwaitNextStep(ServerWorkerState{Kind: SWReady}.Bytes())
	case SCReady:
		return workflow.UserDrivenStep()
	case SCRunWorker:
		return workflow.AwaitNextStep(ServerWorkerState{Kind: SWRunningAwaitKill}.Bytes())
	case SCWorkersRunning:
		return workflow.UserDrivenStep()
	case SCKillWorker:
		return workflow.AwaitNextStep(ServerWorkerState{Kind: SWStopped}.Bytes())
	case SCWorkerKilled:
		return workflow.UserDrivenStep()
	case SCDone:
		return workflow.FinishedStep()
	default:
		return workflow.FinishedStep()
	}
}

func (s ServerCoordState) NextState() workflow.State {
	switch s.Kind {
	case SCCheckWorker:
		return ServerCoordState{Kind: SCReady}
	case SCReady:
		return ServerCoordState{Kind: SCRunWorker}
	case SCRunWorker:
		return ServerCoordState{Kind: SCWorkersRunning}
	case SCWorkersRunning:
		return ServerCoordState{Kind: SCKillWorker}
	case SCKillWorker:
		return ServerCoordState{Kind: SCWorkerKilled}
	case SCWorkerKilled:
		return ServerCoordState{Kind: SCDone}
	default:
		return ServerCoordState{Kind: SCDone}
	}
}

// ClientWorkerKind enumerates a ClientWorker's states (spec 4.4).
type ClientWorkerKind int

const (
	CWWaitCoordInit ClientWorkerKind = iota
	CWReady
	CWRun
	CWRunning
	CWRunningAwaitComplete
	CWStopped
	CWDone
)

func (k ClientWorkerKind) String() string {
	switch k {
	case CWWaitCoordInit:
		return "WaitCoordInit"
	case CWReady:
		return "Ready"
	case CWRun:
		return "Run"
	case CWRunning:
		return "Running"
	case CWRunningAwaitComplete:
		return "RunningAwaitComplete"
	case CWStopped:
		return "Stopped"
	case CWDone:
		return "Done"
	default:
		return "Unknown"
	}
}

type ClientWorkerState struct {
	Kind ClientWorkerKind
	Pid  int
}

func (s ClientWorkerState) Bytes() []byte  { return []byte(s.Kind.String()) }
func (s ClientWorkerState) String() string { return s.Kind.String() }

func (s ClientWorkerState) TransitionStep() workflow.TransitionStep {
	switch s.Kind {
	case CWWaitCoordInit:
		return workflow.AwaitNextStep(ClientCoordState{Kind: CCCheckWorker}.Bytes())
	case CWReady:
		return workflow.AwaitNextStep(ClientCoordState{Kind: CCRunWorker}.Bytes())
	case CWRun:
		return workflow.SelfDrivenStep()
	case CWRunning:
		return workflow.AwaitNextStep(ClientCoordState{Kind: CCWorkersRunning}.Bytes())
	case CWRunningAwaitComplete:
		return workflow.SelfDrivenStep()
	case CWStopped:
		return workflow.AwaitNextStep(ClientCoordState{Kind: CCDone}.Bytes())
	case CWDone:
		return workflow.FinishedStep()
	default:
		return workflow.FinishedStep()
	}
}

func (s ClientWorkerState) NextState() workflow.State {
	switch s.Kind {
	case CWWaitCoordInit:
		return ClientWorkerState{Kind: CWReady}
	case CWReady:
		return ClientWorkerState{Kind: CWRun}
	case CWRun:
		return ClientWorkerState{Kind: CWRunning, Pid: s.Pid}
	case CWRunning:
		return ClientWorkerState{Kind: CWRunningAwaitComplete, Pid: s.Pid}
	case CWRunningAwaitComplete:
		return ClientWorkerState{Kind: CWStopped}
	case CWStopped:
		return ClientWorkerState{Kind: CWDone}
	default:
		return ClientWorkerState{Kind: CWDone}
	}
}

// ClientCoordKind enumerates a ClientCoord's states. Unlike ServerCoord,
// there is no KillWorker/WorkerKilled pair: the client side never signals
// its workers to stop. In WorkersRunning it waits for them to report
// Stopped, then moves to Done.
type ClientCoordKind int

const (
	CCCheckWorker ClientCoordKind = iota
	CCReady
	CCRunWorker
	CCWorkersRunning
	CCDone
)

func (k ClientCoordKind) String() string {
	switch k {
	case CCCheckWorker:
		return "CheckWorker"
	case CCReady:
		return "Ready"
	case CCRunWorker:
		return "RunWorker"
	case CCWorkersRunning:
		return "WorkersRunning"
	case CCDone:
		return "Done"
	default:
		return "Unknown"
	}
}

type ClientCoordState struct {
	Kind ClientCoordKind
}

func (s ClientCoordState) Bytes() []byte  { return []byte(s.Kind.String()) }
func (s ClientCoordState) String() string { return s.Kind.String() }

func (s ClientCoordState) TransitionStep() workflow.TransitionStep {
	switch s.Kind {
	case CCCheckWorker:
		return workflow.AwaitNextStep(ClientWorkerState{Kind: CWReady}.Bytes())
	case CCReady:
		return workflow.UserDrivenStep()
	case CCRunWorker:
		return workflow.AwaitNextStep(ClientWorkerState{Kind: CWRunning}.Bytes())
	case CCWorkersRunning:
		return workflow.AwaitNextStep(ClientWorkerState{Kind: CWStopped}.Bytes())
	case CCDone:
		return workflow.FinishedStep()
	default:
		return workflow.FinishedStep()
	}
}

func (s ClientCoordState) NextState() workflow.State {
	switch s.Kind {
	case CCCheckWorker:
		return ClientCoordState{Kind: CCReady}
	case CCReady:
		return ClientCoordState{Kind: CCRunWorker}
	case CCRunWorker:
		return ClientCoordState{Kind: CCWorkersRunning}
	case CCWorkersRunning:
		return ClientCoordState{Kind: CCDone}
	default:
		return ClientCoordState{Kind: CCDone}
	}
}
