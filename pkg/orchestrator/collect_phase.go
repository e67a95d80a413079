package orchestrator

import (
	"context"
	"fmt"

	"github.com/cuemby/russula/pkg/config"
	"github.com/cuemby/russula/pkg/log"
	"github.com/cuemby/russula/pkg/phase"
	"github.com/cuemby/russula/pkg/types"
)

// runCollect dispatches the upload-netbench-raw-data batches for both host
// groups and waits for them, matching ssm_utils::{server,client}::
// upload_netbench_data followed by wait_complete("copy netbench results...").
// It runs after the coordinator has reached Done. A failure to dispatch or
// complete either upload is returned, and the caller fails the driver pair
// (and with it the run) on that error.
func runCollect(ctx context.Context, clients Clients, plan Plan, p provisioned, pair DriverPair) error {
	collectLog := log.WithComponent("orchestrator").With().Str("run_id", plan.UniqueID).Logger()

	serverUpload, err := phase.Dispatch(ctx, clients.SSM, phase.Step{Kind: phase.UploadNetbenchRawData}, "server",
		fmt.Sprintf("upload_netbench_data_server_%s", pair.Server.TrimmedName()), plan.Run.CDK.LogGroup(),
		p.instanceIDs(types.EndpointServer), uploadNetbenchDataCommands(plan, pair.Server))
	if err != nil {
		return fmt.Errorf("dispatch server upload_netbench_raw_data: %w", err)
	}
	clientUpload, err := phase.Dispatch(ctx, clients.SSM, phase.Step{Kind: phase.UploadNetbenchRawData}, "client",
		fmt.Sprintf("upload_netbench_data_client_%s", pair.Client.TrimmedName()), plan.Run.CDK.LogGroup(),
		p.instanceIDs(types.EndpointClient), uploadNetbenchDataCommands(plan, pair.Client))
	if err != nil {
		return fmt.Errorf("dispatch client upload_netbench_raw_data: %w", err)
	}

	if err := phase.WaitComplete(ctx, clients.SSM, "upload-netbench-data", []*phase.Batch{serverUpload, clientUpload}, plan.Run.Tuning.PollDelaySSM); err != nil {
		return fmt.Errorf("wait for netbench data upload: %w", err)
	}

	collectLog.Info().Str("server_driver", pair.Server.TrimmedName()).Str("client_driver", pair.Client.TrimmedName()).Msg("netbench raw data copied")
	return nil
}

// uploadNetbenchDataCommands uploads one driver's result directory to the
// run's public results/<scenario-stem>/<driver> prefix, which runReport
// later syncs down.
func uploadNetbenchDataCommands(plan Plan, driver types.DriverDescriptor) []string {
	dest := fmt.Sprintf("%s/results/%s/%s", plan.Run.S3Path(plan.UniqueID), config.ScenarioStem(plan.Run.ScenarioFilename), driver.TrimmedName())
	return []string{
		fmt.Sprintf("cd %s", plan.Run.Tuning.Naming.HostBinPath()),
		fmt.Sprintf("aws s3 sync ./%s-results %s", driver.TrimmedName(), dest),
	}
}
