// Package orchestrator drives one full benchmark run end to end:
// Provision, Stage, Build, Coordinate, Collect, Report, Teardown, matching
// orchestrator.rs's run() and main.rs's top-level wiring. Each phase is a
// small function over the lower packages (provision, phase, netbench,
// workflow, objectstore) so the sequence itself stays easy to read and the
// phases stay independently testable.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/cuemby/russula/pkg/config"
	"github.com/cuemby/russula/pkg/log"
	"github.com/cuemby/russula/pkg/metrics"
	"github.com/cuemby/russula/pkg/objectstore"
	"github.com/cuemby/russula/pkg/phase"
	"github.com/cuemby/russula/pkg/provision"
	"github.com/cuemby/russula/pkg/types"
)

// Clients bundles every external dependency a run drives, so Run's signature
// stays small and every phase function takes just the clients it needs.
type Clients struct {
	EC2         provision.EC2Client
	IAM         provision.IAMClient
	AMI         provision.AMIResolver
	SSM         phase.SSMClient
	ObjectStore objectstore.Client
}

// DriverPair is one (server driver, client driver) combination the
// Coordinate/Collect phases run a complete russula session for, matching
// main.rs's driver_pairs zip over server_drivers/client_drivers.
type DriverPair struct {
	Server types.DriverDescriptor
	Client types.DriverDescriptor
}

// Plan is everything Run needs to know about a single invocation beyond the
// shared Clients: the resolved config, the scenario body to stage, and the
// driver pairs to exercise.
type Plan struct {
	Run          config.Run
	UniqueID     string
	ScenarioBody []byte
	IndexTemplate []byte
	Drivers      []DriverPair
}

// Result captures the run's outcome for the caller (cmd/russula-orchestrator
// prints a summary from this).
type Result struct {
	UniqueID     string
	ServerHosts  []types.InstanceDescriptor
	ClientHosts  []types.InstanceDescriptor
	ReportURL    string
}

// Run executes the full phase sequence. When Stage, Build, Coordinate,
// Collect or Report fails, it still runs Teardown before returning the
// error. A Provision error is returned at once and Teardown is not run for
// it.
func Run(ctx context.Context, clients Clients, plan Plan) (Result, error) {
	orchLog := log.WithComponent("orchestrator").With().Str("run_id", plan.UniqueID).Logger()

	provisioned, err := runProvision(ctx, clients, plan)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: provision: %w", err)
	}

	result := Result{
		UniqueID:    plan.UniqueID,
		ServerHosts: provisioned.servers,
		ClientHosts: provisioned.clients,
	}

	runErr := func() error {
		if err := runStage(ctx, clients, plan, provisioned); err != nil {
			return fmt.Errorf("stage: %w", err)
		}
		if err := runBuild(ctx, clients, plan, provisioned); err != nil {
			return fmt.Errorf("build: %w", err)
		}
		for _, pair := range plan.Drivers {
			if err := runCoordinateAndCollect(ctx, clients, plan, provisioned, pair); err != nil {
				return fmt.Errorf("driver pair %s/%s: %w", pair.Server.TrimmedName(), pair.Client.TrimmedName(), err)
			}
		}
		reportURL, err := runReport(ctx, clients, plan)
		if err != nil {
			return fmt.Errorf("report: %w", err)
		}
		result.ReportURL = reportURL
		return nil
	}()

	timer := metrics.NewTimer()
	teardownErr := runTeardown(ctx, clients, provisioned)
	timer.ObserveDurationVec(metrics.PhaseDuration, "teardown")
	if teardownErr != nil {
		orchLog.Error().Err(teardownErr).Msg("teardown did not fully complete")
	}

	if runErr != nil {
		return result, runErr
	}
	return result, nil
}
