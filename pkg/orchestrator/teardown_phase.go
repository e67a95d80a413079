package orchestrator

import (
	"context"

	"github.com/cuemby/russula/pkg/provision"
)

// runTeardown unwinds everything Provision created, best-effort, matching
// InfraDetail::cleanup's strict terminate→delete-placement-groups→
// delete-security-group ordering.
func runTeardown(ctx context.Context, clients Clients, p provisioned) error {
	return provision.Teardown(ctx, clients.EC2, p.toInfra())
}
