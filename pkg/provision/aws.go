package provision

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2api "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	iamapi "github.com/aws/aws-sdk-go-v2/service/iam"
	ssmapi "github.com/aws/aws-sdk-go-v2/service/ssm"
)

// awsEC2Client adapts aws-sdk-go-v2/service/ec2.Client to EC2Client,
// translating between this package's plain request/response shapes and the
// SDK's builder-style types. Grounded on ec2_utils/{networking,instance}.rs.
type awsEC2Client struct {
	client *ec2api.Client
}

// NewAWSEC2Client wraps a configured ec2.Client.
func NewAWSEC2Client(client *ec2api.Client) EC2Client {
	return &awsEC2Client{client: client}
}

func (a *awsEC2Client) DescribeSubnets(ctx context.Context, tagKey, tagValue string) ([]Subnet, error) {
	out, err := a.client.DescribeSubnets(ctx, &ec2api.DescribeSubnetsInput{
		Filters: []ec2types.Filter{{Name: aws.String(tagKey), Values: []string{tagValue}}},
	})
	if err != nil {
		return nil, err
	}
	subnets := make([]Subnet, 0, len(out.Subnets))
	for _, s := range out.Subnets {
		subnets = append(subnets, Subnet{
			SubnetID: aws.ToString(s.SubnetId),
			VpcID:    aws.ToString(s.VpcId),
			AZ:       aws.ToString(s.AvailabilityZone),
		})
	}
	return subnets, nil
}

func (a *awsEC2Client) CreateSecurityGroup(ctx context.Context, name, description, vpcID string) (string, error) {
	out, err := a.client.CreateSecurityGroup(ctx, &ec2api.CreateSecurityGroupInput{
		GroupName:   aws.String(name),
		Description: aws.String(description),
		VpcId:       aws.String(vpcID),
		TagSpecifications: []ec2types.TagSpecification{{
			ResourceType: ec2types.ResourceTypeSecurityGroup,
			Tags:         []ec2types.Tag{{Key: aws.String("Name"), Value: aws.String(name)}},
		}},
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.GroupId), nil
}

func toEC2Permission(r IngressRule) ec2types.IpPermission {
	perm := ec2types.IpPermission{
		FromPort:   aws.Int32(r.FromPort),
		ToPort:     aws.Int32(r.ToPort),
		IpProtocol: aws.String(r.Protocol),
	}
	if r.SelfGroup {
		perm.UserIdGroupPairs = []ec2types.UserIdGroupPair{{}}
		return perm
	}
	perm.IpRanges = []ec2types.IpRange{{CidrIp: aws.String(r.CIDR)}}
	return perm
}

func (a *awsEC2Client) AuthorizeSecurityGroupIngress(ctx context.Context, securityGroupID string, rules []IngressRule) error {
	perms := make([]ec2types.IpPermission, 0, len(rules))
	for _, r := range rules {
		perm := toEC2Permission(r)
		if r.SelfGroup {
			perm.UserIdGroupPairs[0].GroupId = aws.String(securityGroupID)
		}
		perms = append(perms, perm)
	}
	_, err := a.client.AuthorizeSecurityGroupIngress(ctx, &ec2api.AuthorizeSecurityGroupIngressInput{
		GroupId:       aws.String(securityGroupID),
		IpPermissions: perms,
	})
	return err
}

func (a *awsEC2Client) CreatePlacementGroup(ctx context.Context, name string) (string, error) {
	out, err := a.client.CreatePlacementGroup(ctx, &ec2api.CreatePlacementGroupInput{
		GroupName: aws.String(name),
		Strategy:  ec2types.PlacementStrategyCluster,
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.PlacementGroup.GroupName), nil
}

func (a *awsEC2Client) RunInstance(ctx context.Context, req RunInstanceRequest) (string, error) {
	out, err := a.client.RunInstances(ctx, &ec2api.RunInstancesInput{
		ImageId:      aws.String(req.AMIID),
		InstanceType: ec2types.InstanceType(req.InstanceType),
		MinCount:     aws.Int32(1),
		MaxCount:     aws.Int32(1),
		KeyName:      awsOptionalString(req.SSHKeyName),
		Placement: &ec2types.Placement{
			GroupName: aws.String(req.PlacementGroup),
		},
		IamInstanceProfile: &ec2types.IamInstanceProfileSpecification{
			Arn: aws.String(req.InstanceProfileARN),
		},
		InstanceInitiatedShutdownBehavior: ec2types.ShutdownBehaviorTerminate,
		TagSpecifications: []ec2types.TagSpecification{{
			ResourceType: ec2types.ResourceTypeInstance,
			Tags:         []ec2types.Tag{{Key: aws.String("Name"), Value: aws.String(req.Name)}},
		}},
		BlockDeviceMappings: []ec2types.BlockDeviceMapping{{
			DeviceName: aws.String("/dev/xvda"),
			Ebs: &ec2types.EbsBlockDevice{
				DeleteOnTermination: aws.Bool(true),
				VolumeSize:          aws.Int32(50),
			},
		}},
		NetworkInterfaces: []ec2types.InstanceNetworkInterfaceSpecification{{
			AssociatePublicIpAddress: aws.Bool(true),
			DeleteOnTermination:      aws.Bool(true),
			DeviceIndex:              aws.Int32(0),
			SubnetId:                 aws.String(req.SubnetID),
			Groups:                   []string{req.SecurityGroupID},
		}},
	})
	if err != nil {
		return "", err
	}
	if len(out.Instances) == 0 {
		return "", fmt.Errorf("provision: run_instances returned no instances for %s", req.Name)
	}
	return aws.ToString(out.Instances[0].InstanceId), nil
}

func awsOptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}

func (a *awsEC2Client) DescribeInstance(ctx context.Context, instanceID string) (InstanceStatus, error) {
	out, err := a.client.DescribeInstances(ctx, &ec2api.DescribeInstancesInput{InstanceIds: []string{instanceID}})
	if err != nil {
		return InstanceStatus{}, err
	}
	if len(out.Reservations) == 0 || len(out.Reservations[0].Instances) == 0 {
		return InstanceStatus{}, fmt.Errorf("provision: describe_instances returned nothing for %s", instanceID)
	}
	inst := out.Reservations[0].Instances[0]
	return InstanceStatus{
		State:     string(inst.State.Name),
		PrivateIP: aws.ToString(inst.PrivateIpAddress),
		PublicIP:  aws.ToString(inst.PublicIpAddress),
	}, nil
}

func (a *awsEC2Client) TerminateInstances(ctx context.Context, instanceIDs []string) error {
	_, err := a.client.TerminateInstances(ctx, &ec2api.TerminateInstancesInput{InstanceIds: instanceIDs})
	return err
}

func (a *awsEC2Client) DeletePlacementGroup(ctx context.Context, name string) error {
	_, err := a.client.DeletePlacementGroup(ctx, &ec2api.DeletePlacementGroupInput{GroupName: aws.String(name)})
	return err
}

func (a *awsEC2Client) DeleteSecurityGroup(ctx context.Context, securityGroupID string) error {
	_, err := a.client.DeleteSecurityGroup(ctx, &ec2api.DeleteSecurityGroupInput{GroupId: aws.String(securityGroupID)})
	return err
}

// awsIAMClient adapts aws-sdk-go-v2/service/iam.Client to IAMClient.
type awsIAMClient struct {
	client *iamapi.Client
}

// NewAWSIAMClient wraps a configured iam.Client.
func NewAWSIAMClient(client *iamapi.Client) IAMClient {
	return &awsIAMClient{client: client}
}

func (a *awsIAMClient) GetInstanceProfileARN(ctx context.Context, profileName string) (string, error) {
	out, err := a.client.GetInstanceProfile(ctx, &iamapi.GetInstanceProfileInput{InstanceProfileName: aws.String(profileName)})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.InstanceProfile.Arn), nil
}

// awsAMIResolver adapts aws-sdk-go-v2/service/ssm.Client's GetParameter to
// AMIResolver, matching get_latest_ami's lookup of the public SSM parameter
// that tracks the latest Amazon Linux AMI id.
type awsAMIResolver struct {
	client *ssmapi.Client
}

// NewAWSAMIResolver wraps a configured ssm.Client.
func NewAWSAMIResolver(client *ssmapi.Client) AMIResolver {
	return &awsAMIResolver{client: client}
}

func (a *awsAMIResolver) LatestAMI(ctx context.Context, parameterName string) (string, error) {
	out, err := a.client.GetParameter(ctx, &ssmapi.GetParameterInput{
		Name:           aws.String(parameterName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.Parameter.Value), nil
}
