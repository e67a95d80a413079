// Package config holds the orchestrator's tuning constants and
// run-specific configuration as ordinary values threaded from the CLI
// entry point, replacing the process-wide singleton the original
// implementation used for the same constants.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cuemby/russula/pkg/types"
)

// Tuning holds the fixed constants a run is parameterized by: repo
// locations, ports, poll intervals, AMI and key-pair names. Grounded on
// orchestrator/state.rs's STATE singleton, threaded here instead of global.
type Tuning struct {
	Version string

	NetbenchRepo   string
	NetbenchBranch string
	NetbenchPort   uint16

	Naming       types.Naming
	WorkspaceDir string
	ShutdownMin  int
	PollDelaySSM time.Duration

	RussulaRepo       string
	RussulaBranch     string
	RussulaPort       int
	PollDelayRussula  time.Duration

	AMIName    string
	SSHKeyName string
}

// DefaultTuning mirrors the original's STATE constant: the same default
// repos, ports, and intervals, minus anything operator-specific (its
// hardcoded ssh_key_name is left blank — callers must set one explicitly).
func DefaultTuning() Tuning {
	return Tuning{
		Version:          "v1.0.0",
		NetbenchRepo:      "https://github.com/aws/s2n-netbench.git",
		NetbenchBranch:    "main",
		NetbenchPort:      4433,
		Naming:            types.DefaultNaming(),
		WorkspaceDir:      "./target/netbench",
		ShutdownMin:       120,
		PollDelaySSM:      10 * time.Second,
		RussulaRepo:       "https://github.com/cuemby/russula.git",
		RussulaBranch:     "main",
		RussulaPort:       9000,
		PollDelayRussula:  5 * time.Second,
		AMIName:           "/aws/service/ami-amazon-linux-latest/al2023-ami-kernel-default-x86_64",
	}
}

// CDKResources is the subset of a deployed CDK stack's outputs the
// orchestrator needs: log group, bucket names, subnet discovery tags,
// region. Field names match the stack's camelCase JSON output keys.
type CDKResources struct {
	OutputNetbenchRunnerLogGroup           string `json:"outputNetbenchRunnerLogGroup"`
	OutputNetbenchRunnerPublicLogsBucket   string `json:"outputNetbenchRunnerPublicLogsBucket"`
	OutputNetbenchRunnerPrivateSrcBucket   string `json:"outputNetbenchRunnerPrivateSrcBucket"`
	OutputNetbenchCloudfrontDistribution   string `json:"outputNetbenchCloudfrontDistribution"`
	OutputNetbenchRunnerInstanceProfile    string `json:"outputNetbenchRunnerInstanceProfile"`
	OutputNetbenchSubnetTagKey             string `json:"outputNetbenchSubnetTagKey"`
	OutputNetbenchSubnetTagValue           string `json:"outputNetbenchSubnetTagValue"`
	OutputNetbenchInfraPrimaryProdRegion   string `json:"outputNetbenchInfraPrimaryProdRegion"`
}

// CDKConfig wraps the named top-level stack key the CDK output file nests
// its resources under.
type CDKConfig struct {
	Resources CDKResources `json:"NetbenchInfraPrimaryProd"`
}

// LoadCDKConfig reads and parses a CDK outputs JSON file.
func LoadCDKConfig(path string) (CDKConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CDKConfig{}, fmt.Errorf("config: read cdk config %s: %w", path, err)
	}
	var cfg CDKConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return CDKConfig{}, fmt.Errorf("config: parse cdk config %s: %w", path, err)
	}
	return cfg, nil
}

func (c CDKConfig) PublicBucket() string        { return c.Resources.OutputNetbenchRunnerPublicLogsBucket }
func (c CDKConfig) PrivateBucket() string       { return c.Resources.OutputNetbenchRunnerPrivateSrcBucket }
func (c CDKConfig) CloudfrontDistribution() string { return c.Resources.OutputNetbenchCloudfrontDistribution }
func (c CDKConfig) LogGroup() string            { return c.Resources.OutputNetbenchRunnerLogGroup }
func (c CDKConfig) InstanceProfile() string     { return c.Resources.OutputNetbenchRunnerInstanceProfile }
func (c CDKConfig) SubnetTagKey() string        { return "tag:" + c.Resources.OutputNetbenchSubnetTagKey }
func (c CDKConfig) SubnetTagValue() string      { return c.Resources.OutputNetbenchSubnetTagValue }
func (c CDKConfig) Region() string              { return c.Resources.OutputNetbenchInfraPrimaryProdRegion }

// HostConfig is one EC2 host's placement configuration: its availability
// zone and placement-group strategy.
type HostConfig struct {
	AZ            string
	InstanceType  string
	Placement     types.Placement
}

// NewHostConfig validates az belongs to region before constructing a
// HostConfig, matching the original's assertion.
func NewHostConfig(region, az string, placement types.Placement) (HostConfig, error) {
	if len(az) < len(region) || az[:len(region)] != region {
		return HostConfig{}, fmt.Errorf("config: AZ %q is not in region %q", az, region)
	}
	return HostConfig{AZ: az, InstanceType: "c5.4xlarge", Placement: placement}, nil
}

// Run is the fully resolved per-run configuration: tuning constants, the
// deployed CDK stack's outputs, and the per-host placement plan for both
// roles.
type Run struct {
	Tuning Tuning
	CDK    CDKConfig

	ScenarioFilename string
	ScenarioFilepath string

	ClientHosts []HostConfig
	ServerHosts []HostConfig
}

func (r Run) CloudfrontURL(uniqueID string) string {
	return fmt.Sprintf("%s/%s", r.CDK.CloudfrontDistribution(), uniqueID)
}

func (r Run) S3Path(uniqueID string) string {
	return fmt.Sprintf("s3://%s/%s", r.CDK.PublicBucket(), uniqueID)
}

func (r Run) S3PrivatePath(uniqueID string) string {
	return fmt.Sprintf("s3://%s/%s", r.CDK.PrivateBucket(), uniqueID)
}
