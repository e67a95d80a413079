// Package provision creates and tears down the per-run EC2 infrastructure a
// benchmark needs: a placement group per availability zone, a security group
// scoped to the run, and one instance per requested host. It mirrors
// ec2_utils's division of labor (networking, launch_plan, instance) behind a
// narrow client interface so the orchestrator never depends on the AWS SDK
// directly.
package provision

import (
	"context"
	"fmt"

	"github.com/cuemby/russula/pkg/config"
	"github.com/cuemby/russula/pkg/types"
)

// EC2Client is the subset of aws-sdk-go-v2/service/ec2.Client this package
// drives a provisioning run through.
type EC2Client interface {
	DescribeSubnets(ctx context.Context, tagKey, tagValue string) ([]Subnet, error)
	CreateSecurityGroup(ctx context.Context, name, description, vpcID string) (string, error)
	AuthorizeSecurityGroupIngress(ctx context.Context, securityGroupID string, rules []IngressRule) error
	CreatePlacementGroup(ctx context.Context, name string) (string, error)
	RunInstance(ctx context.Context, req RunInstanceRequest) (string, error)
	DescribeInstance(ctx context.Context, instanceID string) (InstanceStatus, error)
	TerminateInstances(ctx context.Context, instanceIDs []string) error
	DeletePlacementGroup(ctx context.Context, name string) error
	DeleteSecurityGroup(ctx context.Context, securityGroupID string) error
}

// IAMClient resolves the instance profile ARN new instances launch under.
type IAMClient interface {
	GetInstanceProfileARN(ctx context.Context, profileName string) (string, error)
}

// AMIResolver resolves the latest AMI id to launch, backed by an SSM
// parameter lookup in production (get_latest_ami reads an SSM public
// parameter, not a command invocation, so this is deliberately not the same
// SSMClient phase.Dispatch drives).
type AMIResolver interface {
	LatestAMI(ctx context.Context, parameterName string) (string, error)
}

// Subnet is one subnet candidate resolved by availability zone tag filter.
type Subnet struct {
	SubnetID string
	VpcID    string
	AZ       string
}

// IngressRule is one authorized ingress rule on the run's security group.
type IngressRule struct {
	FromPort   int32
	ToPort     int32
	Protocol   string // "-1" for all protocols
	CIDR       string // set for a single CIDR rule
	SelfGroup  bool   // set for the intra-security-group allow rule
}

// RunInstanceRequest describes one instance launch.
type RunInstanceRequest struct {
	AMIID             string
	InstanceType      string
	SubnetID          string
	SecurityGroupID   string
	PlacementGroup    string
	InstanceProfileARN string
	Name              string
	SSHKeyName        string
}

// InstanceStatus reports an instance's running state and assigned IPs, as
// returned by DescribeInstances while polling for Running.
type InstanceStatus struct {
	State     string // e.g. "pending", "running", "terminated"
	PrivateIP string
	PublicIP  string
}

// ResolveSubnets looks up subnets matching the CDK-provisioned tag filter,
// groups them by availability zone, and validates they all belong to a
// single VPC, matching get_subnet_vpc_ids.
func ResolveSubnets(ctx context.Context, client EC2Client, cdk config.CDKConfig) (map[string]string, string, error) {
	subnets, err := client.DescribeSubnets(ctx, cdk.SubnetTagKey(), cdk.SubnetTagValue())
	if err != nil {
		return nil, "", fmt.Errorf("provision: describe subnets: %w", err)
	}
	if len(subnets) == 0 {
		return nil, "", fmt.Errorf("provision: no subnets matched tag %s=%s", cdk.SubnetTagKey(), cdk.SubnetTagValue())
	}

	azToSubnet := make(map[string]string, len(subnets))
	vpcID := subnets[0].VpcID
	for _, s := range subnets {
		if s.VpcID != vpcID {
			return nil, "", fmt.Errorf("provision: resolved subnets span multiple VPCs (%s, %s)", vpcID, s.VpcID)
		}
		azToSubnet[s.AZ] = s.SubnetID
	}
	return azToSubnet, vpcID, nil
}

// ValidateAZCoverage confirms every host config's availability zone resolved
// to a subnet, matching launch_plan's per-host-config assertions.
func ValidateAZCoverage(azToSubnet map[string]string, hosts []config.HostConfig) error {
	for _, h := range hosts {
		if _, ok := azToSubnet[h.AZ]; !ok {
			return fmt.Errorf("provision: no subnet resolved for availability zone %s", h.AZ)
		}
	}
	return nil
}

// intraGroupAndPortRules builds the security-group rule set spec 4.6
// mandates: intra-group all-protocol allow, this run's own public IPs for
// all-protocol, port 22 from anywhere, the coordination port from anywhere.
func intraGroupAndPortRules(publicIPs []string, coordinationPort uint16) []IngressRule {
	rules := []IngressRule{
		{FromPort: -1, ToPort: -1, Protocol: "-1", SelfGroup: true},
	}
	for _, ip := range publicIPs {
		rules = append(rules, IngressRule{FromPort: -1, ToPort: -1, Protocol: "-1", CIDR: ip + "/32"})
	}
	rules = append(rules,
		IngressRule{FromPort: 22, ToPort: 22, Protocol: "tcp", CIDR: "0.0.0.0/0"},
		IngressRule{FromPort: int32(coordinationPort), ToPort: int32(coordinationPort), Protocol: "tcp", CIDR: "0.0.0.0/0"},
	)
	return rules
}

// CreateSecurityGroup creates the per-run security group with no ingress
// rules yet. Rules are authorized separately by AuthorizeIngress once every
// instance (and therefore every public IP) exists, matching launch_plan's
// create-then-launch-then-set_routing_permissions ordering.
func CreateSecurityGroup(ctx context.Context, client EC2Client, naming types.Naming, vpcID, uniqueID string) (string, error) {
	name := naming.SecurityGroupName(uniqueID)
	sgID, err := client.CreateSecurityGroup(ctx, name, "security group for a single run of netbench", vpcID)
	if err != nil {
		return "", fmt.Errorf("provision: create security group: %w", err)
	}
	return sgID, nil
}

// AuthorizeIngress authorizes the full ingress rule set spec 4.6 mandates
// against every public IP the run's instances now hold, matching
// set_routing_permissions.
func AuthorizeIngress(ctx context.Context, client EC2Client, securityGroupID string, publicIPs []string, coordinationPort uint16) error {
	rules := intraGroupAndPortRules(publicIPs, coordinationPort)
	if err := client.AuthorizeSecurityGroupIngress(ctx, securityGroupID, rules); err != nil {
		return fmt.Errorf("provision: authorize security group ingress: %w", err)
	}
	return nil
}

// CreatePlacementGroups creates one cluster placement group per availability
// zone present in azToSubnet, matching launch_plan's per-az loop. Only
// cluster placement is supported, as upstream notes.
func CreatePlacementGroups(ctx context.Context, client EC2Client, azToSubnet map[string]string, uniqueID string) (map[string]string, error) {
	groups := make(map[string]string, len(azToSubnet))
	for az := range azToSubnet {
		name := fmt.Sprintf("cluster-%s-%s", uniqueID, az)
		if _, err := client.CreatePlacementGroup(ctx, name); err != nil {
			return nil, fmt.Errorf("provision: create placement group for %s: %w", az, err)
		}
		groups[az] = name
	}
	return groups, nil
}
