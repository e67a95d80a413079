package orchestrator

import (
	"context"
	"fmt"

	"github.com/cuemby/russula/pkg/metrics"
	"github.com/cuemby/russula/pkg/phase"
	"github.com/cuemby/russula/pkg/types"
)

// runBuild dispatches install-deps/upload-scenario/build-russula/build-driver
// batches for both host groups and waits for all of them to finish, matching
// orchestrator.rs's collect_config_cmds + wait_complete("Setup hosts...")
// call, generalized over every driver pair's server and client drivers.
func runBuild(ctx context.Context, clients Clients, plan Plan, p provisioned) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.PhaseDuration, "build")

	serverDrivers := make([]types.DriverDescriptor, 0, len(plan.Drivers))
	clientDrivers := make([]types.DriverDescriptor, 0, len(plan.Drivers))
	for _, pair := range plan.Drivers {
		serverDrivers = append(serverDrivers, pair.Server)
		clientDrivers = append(clientDrivers, pair.Client)
	}

	serverBatches, err := phase.ConfigureAndBuild(ctx, clients.SSM, "server", p.instanceIDs(types.EndpointServer),
		plan.Run.Tuning.Naming, plan.Run.ScenarioFilename, plan.Run.CDK.PublicBucket(), plan.UniqueID,
		plan.Run.Tuning.RussulaRepo, plan.Run.Tuning.RussulaBranch, serverDrivers, plan.Run.CDK.LogGroup())
	if err != nil {
		return fmt.Errorf("configure/build servers: %w", err)
	}

	clientBatches, err := phase.ConfigureAndBuild(ctx, clients.SSM, "client", p.instanceIDs(types.EndpointClient),
		plan.Run.Tuning.Naming, plan.Run.ScenarioFilename, plan.Run.CDK.PublicBucket(), plan.UniqueID,
		plan.Run.Tuning.RussulaRepo, plan.Run.Tuning.RussulaBranch, clientDrivers, plan.Run.CDK.LogGroup())
	if err != nil {
		return fmt.Errorf("configure/build clients: %w", err)
	}

	all := append(serverBatches, clientBatches...)
	if err := phase.WaitComplete(ctx, clients.SSM, "setup-hosts", all, plan.Run.Tuning.PollDelaySSM); err != nil {
		return fmt.Errorf("wait for host setup: %w", err)
	}
	return nil
}
