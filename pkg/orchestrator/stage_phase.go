package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/cuemby/russula/pkg/objectstore"
	"github.com/cuemby/russula/pkg/types"
)

// runStage uploads the benchmark scenario file, publishes the initial status
// dashboard when plan.IndexTemplate is set (and skips it otherwise), and
// records that each role's hosts are running — matching
// orchestrator.rs's upload_object + dashboard::update_dashboard(UploadIndex)
// + update_dashboard(HostsRunning) calls.
func runStage(ctx context.Context, clients Clients, plan Plan, p provisioned) error {
	layout := objectstore.Layout{
		PublicBucket:  plan.Run.CDK.PublicBucket(),
		PrivateBucket: plan.Run.CDK.PrivateBucket(),
		UniqueID:      plan.UniqueID,
	}

	if err := objectstore.UploadScenarioFile(ctx, clients.ObjectStore, layout, plan.Run.ScenarioFilename, plan.ScenarioBody); err != nil {
		return fmt.Errorf("upload scenario file: %w", err)
	}

	if plan.IndexTemplate != nil {
		cfURL := plan.Run.CloudfrontURL(plan.UniqueID)
		if err := objectstore.PublishIndex(ctx, clients.ObjectStore, layout, cfURL, plan.IndexTemplate); err != nil {
			return fmt.Errorf("publish index: %w", err)
		}
	}

	if err := publishHostsRunning(ctx, clients, layout, "server", p.servers); err != nil {
		return err
	}
	if err := publishHostsRunning(ctx, clients, layout, "client", p.clients); err != nil {
		return err
	}

	return nil
}

func publishHostsRunning(ctx context.Context, clients Clients, layout objectstore.Layout, role string, instances []types.InstanceDescriptor) error {
	if len(instances) == 0 {
		return fmt.Errorf("%s: no instances launched", role)
	}
	parts := make([]string, 0, len(instances))
	for _, inst := range instances {
		parts = append(parts, fmt.Sprintf("%s %s", inst.PublicIP, inst.InstanceID))
	}
	body := fmt.Sprintf("EC2 %q instances up: %s", role, strings.Join(parts, " - "))
	return objectstore.PublishStep(ctx, clients.ObjectStore, layout, role, 0, body)
}
