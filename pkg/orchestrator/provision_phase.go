package orchestrator

import (
	"context"
	"fmt"

	"github.com/cuemby/russula/pkg/config"
	"github.com/cuemby/russula/pkg/log"
	"github.com/cuemby/russula/pkg/provision"
	"github.com/cuemby/russula/pkg/types"
)

// provisioned is everything the rest of the run needs to know about the
// infrastructure Provision created.
type provisioned struct {
	securityGroupID string
	placementGroups map[string]string
	servers         []types.InstanceDescriptor
	clients         []types.InstanceDescriptor
}

func (p provisioned) instanceIDs(role types.EndpointType) []string {
	list := p.servers
	if role == types.EndpointClient {
		list = p.clients
	}
	ids := make([]string, 0, len(list))
	for _, d := range list {
		ids = append(ids, d.InstanceID)
	}
	return ids
}

func (p provisioned) publicIPs() []string {
	var ips []string
	for _, d := range p.servers {
		ips = append(ips, d.PublicIP)
	}
	for _, d := range p.clients {
		ips = append(ips, d.PublicIP)
	}
	return ips
}

func (p provisioned) toInfra() provision.Infra {
	infra := provision.Infra{SecurityGroupID: p.securityGroupID}
	for _, pg := range p.placementGroups {
		infra.PlacementGroups = append(infra.PlacementGroups, pg)
	}
	infra.InstanceIDs = append(infra.InstanceIDs, p.instanceIDs(types.EndpointServer)...)
	infra.InstanceIDs = append(infra.InstanceIDs, p.instanceIDs(types.EndpointClient)...)
	return infra
}

// runProvision resolves subnets, creates the security group and per-az
// placement groups, launches every requested host, and finally authorizes
// ingress once every host's public IP is known — matching
// LaunchPlan::create + LaunchPlan::launch + set_routing_permissions.
func runProvision(ctx context.Context, clients Clients, plan Plan) (provisioned, error) {
	provLog := log.WithComponent("orchestrator").With().Str("run_id", plan.UniqueID).Logger()

	azToSubnet, vpcID, err := provision.ResolveSubnets(ctx, clients.EC2, plan.Run.CDK)
	if err != nil {
		return provisioned{}, err
	}
	if err := provision.ValidateAZCoverage(azToSubnet, plan.Run.ServerHosts); err != nil {
		return provisioned{}, err
	}
	if err := provision.ValidateAZCoverage(azToSubnet, plan.Run.ClientHosts); err != nil {
		return provisioned{}, err
	}

	instanceProfileARN, err := clients.IAM.GetInstanceProfileARN(ctx, plan.Run.CDK.InstanceProfile())
	if err != nil {
		return provisioned{}, fmt.Errorf("get instance profile: %w", err)
	}
	amiID, err := clients.AMI.LatestAMI(ctx, plan.Run.Tuning.AMIName)
	if err != nil {
		return provisioned{}, fmt.Errorf("resolve latest ami: %w", err)
	}

	placementGroups, err := provision.CreatePlacementGroups(ctx, clients.EC2, azToSubnet, plan.UniqueID)
	if err != nil {
		return provisioned{}, err
	}

	sgID, err := provision.CreateSecurityGroup(ctx, clients.EC2, plan.Run.Tuning.Naming, vpcID, plan.UniqueID)
	if err != nil {
		return provisioned{}, err
	}

	out := provisioned{securityGroupID: sgID, placementGroups: placementGroups}

	servers, err := launchGroup(ctx, clients.EC2, plan, azToSubnet, out, amiID, instanceProfileARN, types.EndpointServer, plan.Run.ServerHosts)
	if err != nil {
		return provisioned{}, err
	}
	out.servers = servers

	clientInstances, err := launchGroup(ctx, clients.EC2, plan, azToSubnet, out, amiID, instanceProfileARN, types.EndpointClient, plan.Run.ClientHosts)
	if err != nil {
		return provisioned{}, err
	}
	out.clients = clientInstances

	if err := provision.AuthorizeIngress(ctx, clients.EC2, sgID, out.publicIPs(), uint16(plan.Run.Tuning.RussulaPort)); err != nil {
		return provisioned{}, err
	}

	provLog.Info().Int("servers", len(out.servers)).Int("clients", len(out.clients)).Msg("provisioning complete")
	return out, nil
}

// launchGroup launches one instance per host config for role, tagging each
// with the resolved subnet and placement group for its availability zone.
func launchGroup(ctx context.Context, client provision.EC2Client, plan Plan, azToSubnet map[string]string, p provisioned, amiID, instanceProfileARN string, role types.EndpointType, hosts []config.HostConfig) ([]types.InstanceDescriptor, error) {
	instances := make([]types.InstanceDescriptor, 0, len(hosts))
	for i, h := range hosts {
		req := provision.RunInstanceRequest{
			AMIID:              amiID,
			InstanceType:       h.InstanceType,
			SubnetID:           azToSubnet[h.AZ],
			SecurityGroupID:    p.securityGroupID,
			PlacementGroup:     p.placementGroups[h.AZ],
			InstanceProfileARN: instanceProfileARN,
			Name:               fmt.Sprintf("%s-%d", plan.Run.Tuning.Naming.InstanceName(plan.UniqueID, role), i),
			SSHKeyName:         plan.Run.Tuning.SSHKeyName,
		}
		inst, err := provision.LaunchInstance(ctx, client, req, role, h.AZ)
		if err != nil {
			return nil, fmt.Errorf("launch %s instance %d: %w", role, i, err)
		}
		instances = append(instances, inst)
	}
	return instances, nil
}
