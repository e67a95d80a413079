package orchestrator

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/cuemby/russula/pkg/config"
	"github.com/cuemby/russula/pkg/provision"
	"github.com/cuemby/russula/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func instanceFixture(instanceID, publicIP string) types.InstanceDescriptor {
	return types.InstanceDescriptor{InstanceID: instanceID, PublicIP: publicIP}
}

// --- fake EC2/IAM/AMI/SSM/ObjectStore clients, enough to drive individual
// phase functions without touching AWS ---

type fakeEC2 struct {
	mu                  sync.Mutex
	nextID              int
	launchedAtAuthorize int
}

func newFakeEC2() *fakeEC2 { return &fakeEC2{} }

func (f *fakeEC2) DescribeSubnets(ctx context.Context, tagKey, tagValue string) ([]provision.Subnet, error) {
	return []provision.Subnet{{SubnetID: "subnet-1", VpcID: "vpc-1", AZ: "us-west-2a"}}, nil
}
func (f *fakeEC2) CreateSecurityGroup(ctx context.Context, name, description, vpcID string) (string, error) {
	return "sg-1", nil
}
func (f *fakeEC2) AuthorizeSecurityGroupIngress(ctx context.Context, securityGroupID string, rules []provision.IngressRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launchedAtAuthorize = f.nextID
	return nil
}
func (f *fakeEC2) CreatePlacementGroup(ctx context.Context, name string) (string, error) { return name, nil }
func (f *fakeEC2) RunInstance(ctx context.Context, req provision.RunInstanceRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return "i-" + req.Name, nil
}
func (f *fakeEC2) DescribeInstance(ctx context.Context, instanceID string) (provision.InstanceStatus, error) {
	return provision.InstanceStatus{State: "running", PrivateIP: "10.0.0.1", PublicIP: "127.0.0.1"}, nil
}
func (f *fakeEC2) TerminateInstances(ctx context.Context, instanceIDs []string) error    { return nil }
func (f *fakeEC2) DeletePlacementGroup(ctx context.Context, name string) error           { return nil }
func (f *fakeEC2) DeleteSecurityGroup(ctx context.Context, securityGroupID string) error { return nil }

type fakeIAM struct{}

func (fakeIAM) GetInstanceProfileARN(ctx context.Context, profileName string) (string, error) {
	return "arn:aws:iam::123:instance-profile/test", nil
}

type fakeAMI struct{}

func (fakeAMI) LatestAMI(ctx context.Context, parameterName string) (string, error) { return "ami-1", nil }

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeObjectStore() *fakeObjectStore { return &fakeObjectStore{objects: map[string][]byte{}} }

func (f *fakeObjectStore) PutObject(ctx context.Context, bucket, key, contentType string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+key] = body
	return nil
}
func (f *fakeObjectStore) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return io.NopCloser(strings.NewReader(string(f.objects[bucket+"/"+key]))), nil
}

func TestRunProvisionAuthorizesIngressAfterLaunch(t *testing.T) {
	ec2 := newFakeEC2()
	clients := Clients{EC2: ec2, IAM: fakeIAM{}, AMI: fakeAMI{}}
	plan := Plan{
		Run: config.Run{
			Tuning:      config.DefaultTuning(),
			ServerHosts: []config.HostConfig{{AZ: "us-west-2a", InstanceType: "c5.4xlarge"}},
			ClientHosts: []config.HostConfig{{AZ: "us-west-2a", InstanceType: "c5.4xlarge"}},
		},
		UniqueID: "run-1",
	}

	p, err := runProvision(context.Background(), clients, plan)
	require.NoError(t, err)
	assert.Len(t, p.servers, 1)
	assert.Len(t, p.clients, 1)
	assert.Equal(t, "sg-1", p.securityGroupID)
	assert.Equal(t, "127.0.0.1", p.servers[0].PublicIP)
	assert.Equal(t, 2, ec2.launchedAtAuthorize, "ingress must be authorized after both instances are launched")
}

func TestRunStagePublishesScenarioAndStepMarkers(t *testing.T) {
	store := newFakeObjectStore()
	clients := Clients{ObjectStore: store}
	plan := Plan{
		Run: config.Run{
			Tuning:           config.DefaultTuning(),
			ScenarioFilename: "scenario.json",
		},
		UniqueID:     "run-1",
		ScenarioBody: []byte(`{"a":1}`),
	}
	p := provisioned{
		servers: []types.InstanceDescriptor{instanceFixture("i-server", "1.2.3.4")},
		clients: []types.InstanceDescriptor{instanceFixture("i-client", "5.6.7.8")},
	}

	require.NoError(t, runStage(context.Background(), clients, plan, p))
	assert.Contains(t, store.objects, "/run-1/scenario.json")
	assert.Contains(t, store.objects, "/run-1/server-step-0")
	assert.Contains(t, store.objects, "/run-1/client-step-0")
}
