package netbench

import (
	"testing"

	"github.com/cuemby/russula/pkg/workflow"
	"github.com/stretchr/testify/assert"
)

func TestServerWorkerTransitionTable(t *testing.T) {
	tests := []struct {
		name     string
		state    ServerWorkerState
		wantKind workflow.StepKind
		wantNext ServerWorkerKind
	}{
		{"WaitCoordInit", ServerWorkerState{Kind: SWWaitCoordInit}, workflow.StepAwaitNext, SWReady},
		{"Ready", ServerWorkerState{Kind: SWReady}, workflow.StepAwaitNext, SWRun},
		{"Run", ServerWorkerState{Kind: SWRun}, workflow.StepSelfDriven, SWRunningAwaitKill},
		{"RunningAwaitKill", ServerWorkerState{Kind: SWRunningAwaitKill, Pid: 42}, workflow.StepAwaitNext, SWKilling},
		{"Killing", ServerWorkerState{Kind: SWKilling, Pid: 42}, workflow.StepSelfDriven, SWStopped},
		{"Stopped", ServerWorkerState{Kind: SWStopped}, workflow.StepAwaitNext, SWDone},
		{"Done", ServerWorkerState{Kind: SWDone}, workflow.StepFinished, SWDone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, tt.state.TransitionStep().Kind)
			next := tt.state.NextState().(ServerWorkerState)
			assert.Equal(t, tt.wantNext, next.Kind)
		})
	}
}

func TestServerWorkerPidExcludedFromBytes(t *testing.T) {
	a := ServerWorkerState{Kind: SWRunningAwaitKill, Pid: 1}
	b := ServerWorkerState{Kind: SWRunningAwaitKill, Pid: 99999}
	assert.True(t, workflow.Equal(a, b))
}

func TestClientWorkerTransitionTable(t *testing.T) {
	tests := []struct {
		name     string
		state    ClientWorkerState
		wantKind workflow.StepKind
		wantNext ClientWorkerKind
	}{
		{"WaitCoordInit", ClientWorkerState{Kind: CWWaitCoordInit}, workflow.StepAwaitNext, CWReady},
		{"Ready", ClientWorkerState{Kind: CWReady}, workflow.StepAwaitNext, CWRun},
		{"Run", ClientWorkerState{Kind: CWRun}, workflow.StepSelfDriven, CWRunning},
		{"Running", ClientWorkerState{Kind: CWRunning, Pid: 7}, workflow.StepAwaitNext, CWRunningAwaitComplete},
		{"RunningAwaitComplete", ClientWorkerState{Kind: CWRunningAwaitComplete, Pid: 7}, workflow.StepSelfDriven, CWStopped},
		{"Stopped", ClientWorkerState{Kind: CWStopped}, workflow.StepAwaitNext, CWDone},
		{"Done", ClientWorkerState{Kind: CWDone}, workflow.StepFinished, CWDone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, tt.state.TransitionStep().Kind)
			next := tt.state.NextState().(ClientWorkerState)
			assert.Equal(t, tt.wantNext, next.Kind)
		})
	}
}

func TestServerCoordTransitionTable(t *testing.T) {
	tests := []struct {
		name     string
		state    ServerCoordState
		wantKind workflow.StepKind
		wantNext ServerCoordKind
	}{
		{"CheckWorker", ServerCoordState{Kind: SCCheckWorker}, workflow.StepAwaitNext, SCReady},
		{"Ready", ServerCoordState{Kind: SCReady}, workflow.StepUserDriven, SCRunWorker},
		{"RunWorker", ServerCoordState{Kind: SCRunWorker}, workflow.StepAwaitNext, SCWorkersRunning},
		{"WorkersRunning", ServerCoordState{Kind: SCWorkersRunning}, workflow.StepUserDriven, SCKillWorker},
		{"KillWorker", ServerCoordState{Kind: SCKillWorker}, workflow.StepAwaitNext, SCWorkerKilled},
		{"WorkerKilled", ServerCoordState{Kind: SCWorkerKilled}, workflow.StepUserDriven, SCDone},
		{"Done", ServerCoordState{Kind: SCDone}, workflow.StepFinished, SCDone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, tt.state.TransitionStep().Kind)
			next := tt.state.NextState().(ServerCoordState)
			assert.Equal(t, tt.wantNext, next.Kind)
		})
	}
}

func TestClientCoordTransitionTable(t *testing.T) {
	tests := []struct {
		name     string
		state    ClientCoordState
		wantKind workflow.StepKind
		wantNext ClientCoordKind
	}{
		{"CheckWorker", ClientCoordState{Kind: CCCheckWorker}, workflow.StepAwaitNext, CCReady},
		{"Ready", ClientCoordState{Kind: CCReady}, workflow.StepUserDriven, CCRunWorker},
		{"RunWorker", ClientCoordState{Kind: CCRunWorker}, workflow.StepAwaitNext, CCWorkersRunning},
		{"WorkersRunning", ClientCoordState{Kind: CCWorkersRunning}, workflow.StepAwaitNext, CCDone},
		{"Done", ClientCoordState{Kind: CCDone}, workflow.StepFinished, CCDone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, tt.state.TransitionStep().Kind)
			next := tt.state.NextState().(ClientCoordState)
			assert.Equal(t, tt.wantNext, next.Kind)
		})
	}
}

func TestTrimmedDriverName(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		want   string
	}{
		{"s2n prefix", "s2n-netbench-driver-server-native-tls.json", "server-native-tls"},
		{"short prefix", "netbench-driver-client-s2n-quic.json", "client-s2n-quic"},
		{"no suffix", "s2n-netbench-driver-server-tcp", "server-tcp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ServerContext{Driver: tt.driver}.TrimmedDriverName())
			assert.Equal(t, tt.want, ClientContext{Driver: tt.driver}.TrimmedDriverName())
		})
	}
}
