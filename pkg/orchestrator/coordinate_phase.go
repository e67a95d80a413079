package orchestrator

import (
	"context"
	"fmt"

	"github.com/cuemby/russula/pkg/log"
	"github.com/cuemby/russula/pkg/metrics"
	"github.com/cuemby/russula/pkg/netbench"
	"github.com/cuemby/russula/pkg/phase"
	"github.com/cuemby/russula/pkg/types"
	"github.com/cuemby/russula/pkg/workflow"
)

// runCoordinateAndCollect runs one driver pair end to end: dispatch the
// remote run_russula command (which starts the worker binaries listening on
// the coordination port), drive the coordinator-side workflows against those
// workers, then dispatch and wait for upload_netbench_raw_data. Matches
// main.rs's per-driver-pair block: wait_workers_running, then client
// wait_done, then server wait_done, then the netbench-data copy wait.
func runCoordinateAndCollect(ctx context.Context, clients Clients, plan Plan, p provisioned, pair DriverPair) error {
	coordLog := log.WithComponent("orchestrator").With().Str("run_id", plan.UniqueID).Logger()
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.PhaseDuration, "coordinate")

	runRussulaServer, err := phase.Dispatch(ctx, clients.SSM, phase.Step{Kind: phase.RunRussula}, "server",
		fmt.Sprintf("run_russula_server_%s", pair.Server.TrimmedName()), plan.Run.CDK.LogGroup(),
		p.instanceIDs(types.EndpointServer), pair.Server.BuildCommands)
	if err != nil {
		return fmt.Errorf("dispatch server run_russula: %w", err)
	}
	runRussulaClient, err := phase.Dispatch(ctx, clients.SSM, phase.Step{Kind: phase.RunRussula}, "client",
		fmt.Sprintf("run_russula_client_%s", pair.Client.TrimmedName()), plan.Run.CDK.LogGroup(),
		p.instanceIDs(types.EndpointClient), pair.Client.BuildCommands)
	if err != nil {
		return fmt.Errorf("dispatch client run_russula: %w", err)
	}
	if err := phase.WaitComplete(ctx, clients.SSM, "run-russula", []*phase.Batch{runRussulaServer, runRussulaClient}, plan.Run.Tuning.PollDelaySSM); err != nil {
		return fmt.Errorf("wait for run_russula dispatch: %w", err)
	}

	serverAddrs := coordinationAddrs(p.servers, plan.Run.Tuning.RussulaPort)
	clientAddrs := coordinationAddrs(p.clients, plan.Run.Tuning.RussulaPort)

	serverCoord, err := workflow.NewWorkflowBuilder("server-coord", serverAddrs, func(addr string) workflow.Protocol {
		return netbench.NewServerCoordProtocol(addr)
	}, plan.Run.Tuning.PollDelayRussula).Build(ctx)
	if err != nil {
		return fmt.Errorf("pair server coordinator: %w", err)
	}

	clientCoord, err := workflow.NewWorkflowBuilder("client-coord", clientAddrs, func(addr string) workflow.Protocol {
		return netbench.NewClientCoordProtocol(addr)
	}, plan.Run.Tuning.PollDelayRussula).Build(ctx)
	if err != nil {
		return fmt.Errorf("pair client coordinator: %w", err)
	}

	coordLog.Info().Str("server_driver", pair.Server.TrimmedName()).Str("client_driver", pair.Client.TrimmedName()).Msg("running netbench")

	if err := serverCoord.RunTill(ctx, netbench.ServerCoordState{Kind: netbench.SCWorkersRunning}); err != nil {
		return fmt.Errorf("server coordinator did not reach workers-running: %w", err)
	}
	if err := clientCoord.RunTill(ctx, netbench.ClientCoordState{Kind: netbench.CCDone}); err != nil {
		return fmt.Errorf("client coordinator did not reach done: %w", err)
	}
	if err := serverCoord.RunTill(ctx, netbench.ServerCoordState{Kind: netbench.SCDone}); err != nil {
		return fmt.Errorf("server coordinator did not reach done: %w", err)
	}

	return runCollect(ctx, clients, plan, p, pair)
}

// coordinationAddrs formats each instance's public IP and the coordination
// port into a dial address, the form the coordinator side connects to.
func coordinationAddrs(instances []types.InstanceDescriptor, port int) []string {
	addrs := make([]string, 0, len(instances))
	for _, inst := range instances {
		addrs = append(addrs, fmt.Sprintf("%s:%d", inst.PublicIP, port))
	}
	return addrs
}
