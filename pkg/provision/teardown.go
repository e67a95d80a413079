package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cuemby/russula/pkg/log"
	"github.com/cuemby/russula/pkg/metrics"
)

// teardownRetries and teardownBackoff match spec 5's teardown budget: 25
// retries at a 5-second backoff (125s total), because a placement group or
// security group referenced by an instance remains briefly dependency-locked
// after that instance's termination.
const teardownRetries = 25

var teardownBackoff = 5 * time.Second

// retryableTeardownCodes are the well-known AWS error codes that mean "the
// resource is still referenced, try again shortly" rather than a real
// failure.
var retryableTeardownCodes = []string{"DependencyViolation", "InvalidPlacementGroup.InUse"}

func isRetryableTeardownError(err error) bool {
	msg := err.Error()
	for _, code := range retryableTeardownCodes {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}

// Infra bundles everything a provisioning run created, so Teardown can
// unwind it in the mandated order regardless of how far provisioning got.
type Infra struct {
	InstanceIDs      []string
	PlacementGroups  []string
	SecurityGroupID  string
}

// Teardown terminates instances, then deletes placement groups, then deletes
// the security group, in that strict order. Delete-placement-group and
// delete-security-group both retry on DependencyViolation /
// InvalidPlacementGroup.InUse; any other error is fatal to that resource but
// does not stop teardown of the others, matching spec 4.6's best-effort
// semantics.
func Teardown(ctx context.Context, client EC2Client, infra Infra) error {
	teardownLog := log.WithComponent("provision")
	var errs []error

	if len(infra.InstanceIDs) > 0 {
		if err := client.TerminateInstances(ctx, infra.InstanceIDs); err != nil {
			teardownLog.Error().Err(err).Strs("instance_ids", infra.InstanceIDs).Msg("terminate instances failed")
			errs = append(errs, fmt.Errorf("terminate instances: %w", err))
		}
	}

	for _, pg := range infra.PlacementGroups {
		if err := retryTeardown(ctx, "placement_group", func() error {
			return client.DeletePlacementGroup(ctx, pg)
		}); err != nil {
			teardownLog.Error().Err(err).Str("placement_group", pg).Msg("delete placement group failed")
			errs = append(errs, fmt.Errorf("delete placement group %s: %w", pg, err))
		}
	}

	if infra.SecurityGroupID != "" {
		if err := retryTeardown(ctx, "security_group", func() error {
			return client.DeleteSecurityGroup(ctx, infra.SecurityGroupID)
		}); err != nil {
			teardownLog.Error().Err(err).Str("security_group", infra.SecurityGroupID).Msg("delete security group failed")
			errs = append(errs, fmt.Errorf("delete security group: %w", err))
		}
	}

	return errors.Join(errs...)
}

func retryTeardown(ctx context.Context, resource string, op func() error) error {
	var lastErr error
	for attempt := 0; attempt <= teardownRetries; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryableTeardownError(err) {
			return err
		}
		metrics.TeardownRetries.WithLabelValues(resource).Inc()
		select {
		case <-time.After(teardownBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	metrics.TeardownFailuresTotal.WithLabelValues(resource).Inc()
	return fmt.Errorf("exhausted %d teardown retries: %w", teardownRetries, lastErr)
}
