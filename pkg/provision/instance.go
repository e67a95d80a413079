package provision

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/russula/pkg/log"
	"github.com/cuemby/russula/pkg/metrics"
	"github.com/cuemby/russula/pkg/types"
)

// pollInterval mirrors poll_running's fixed 1-second poll between
// describe_instances calls while waiting for Running.
const pollInterval = 1 * time.Second

// LaunchInstance launches one instance for role in az and polls until it
// reaches the running state, returning a fully populated InstanceDescriptor.
// Matches launch_instances + poll_running.
func LaunchInstance(ctx context.Context, client EC2Client, req RunInstanceRequest, role types.EndpointType, az string) (types.InstanceDescriptor, error) {
	provLog := log.WithComponent("provision")

	instanceID, err := client.RunInstance(ctx, req)
	if err != nil {
		return types.InstanceDescriptor{}, fmt.Errorf("provision: run instance %s: %w", req.Name, err)
	}

	attempt := 1
	for {
		status, err := client.DescribeInstance(ctx, instanceID)
		if err != nil {
			return types.InstanceDescriptor{}, fmt.Errorf("provision: describe instance %s: %w", instanceID, err)
		}

		provLog.Debug().Str("instance_id", instanceID).Str("state", status.State).Int("attempt", attempt).Msg("waiting for instance to run")
		if status.State == "running" && status.PrivateIP != "" && status.PublicIP != "" {
			metrics.InstancesProvisioned.WithLabelValues(string(role)).Inc()
			return types.InstanceDescriptor{
				Role:             role,
				AvailabilityZone: az,
				PrivateIP:        status.PrivateIP,
				PublicIP:         status.PublicIP,
				InstanceID:       instanceID,
			}, nil
		}

		attempt++
		select {
		case <-time.After(pollInterval):
		case <-ctx.Done():
			return types.InstanceDescriptor{}, ctx.Err()
		}
	}
}
