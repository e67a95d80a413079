package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/russula/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCDKConfig(t *testing.T) {
	data := `{
		"NetbenchInfraPrimaryProd": {
			"outputNetbenchRunnerLogGroup": "log-group",
			"outputNetbenchRunnerPublicLogsBucket": "public-bucket",
			"outputNetbenchRunnerPrivateSrcBucket": "private-bucket",
			"outputNetbenchCloudfrontDistribution": "d123.cloudfront.net",
			"outputNetbenchRunnerInstanceProfile": "profile-arn",
			"outputNetbenchSubnetTagKey": "netbench-subnet",
			"outputNetbenchSubnetTagValue": "true",
			"outputNetbenchInfraPrimaryProdRegion": "us-west-2"
		}
	}`
	path := filepath.Join(t.TempDir(), "cdk_config.json")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadCDKConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "public-bucket", cfg.PublicBucket())
	assert.Equal(t, "private-bucket", cfg.PrivateBucket())
	assert.Equal(t, "us-west-2", cfg.Region())
	assert.Equal(t, "tag:netbench-subnet", cfg.SubnetTagKey())
}

func TestNewHostConfigRejectsMismatchedRegion(t *testing.T) {
	_, err := NewHostConfig("us-west-2", "us-east-1a", types.PlacementUnspecified)
	assert.Error(t, err)

	hc, err := NewHostConfig("us-west-2", "us-west-2a", types.PlacementCluster)
	require.NoError(t, err)
	assert.Equal(t, "us-west-2a", hc.AZ)
	assert.Equal(t, "c5.4xlarge", hc.InstanceType)
}

func TestRunPathHelpers(t *testing.T) {
	run := Run{CDK: CDKConfig{Resources: CDKResources{
		OutputNetbenchRunnerPublicLogsBucket: "pub",
		OutputNetbenchRunnerPrivateSrcBucket: "priv",
		OutputNetbenchCloudfrontDistribution: "cf.example.com",
	}}}
	assert.Equal(t, "s3://pub/run-1", run.S3Path("run-1"))
	assert.Equal(t, "s3://priv/run-1", run.S3PrivatePath("run-1"))
	assert.Equal(t, "cf.example.com/run-1", run.CloudfrontURL("run-1"))
}
