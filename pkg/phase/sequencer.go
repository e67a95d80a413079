package phase

import (
	"context"
	"fmt"

	"github.com/cuemby/russula/pkg/types"
)

// ConfigureAndBuild assembles and dispatches the full configure/build batch
// for one host group: install dependencies, upload the scenario file, build
// each netbench driver, and build russula — matching
// ssm_utils::common::collect_config_cmds exactly, generalized over an
// arbitrary driver list and naming scheme.
func ConfigureAndBuild(
	ctx context.Context,
	client SSMClient,
	hostGroup string,
	instanceIDs []string,
	naming types.Naming,
	scenarioFilename string,
	publicBucket string,
	uniqueID string,
	russulaRepo, russulaBranch string,
	drivers []types.DriverDescriptor,
	logGroup string,
) ([]*Batch, error) {
	installDeps, err := Dispatch(ctx, client, Step{Kind: Configure}, hostGroup,
		fmt.Sprintf("configure_host_%s", hostGroup), logGroup, instanceIDs, installDepsCommands(naming))
	if err != nil {
		return nil, fmt.Errorf("phase: install deps: %w", err)
	}

	uploadScenario, err := Dispatch(ctx, client, Step{Kind: UploadScenarioFile}, hostGroup,
		fmt.Sprintf("upload_scenario_%s", hostGroup), logGroup, instanceIDs,
		uploadScenarioCommands(naming, scenarioFilename, publicBucket, uniqueID))
	if err != nil {
		return nil, fmt.Errorf("phase: upload scenario file: %w", err)
	}

	buildRussula, err := Dispatch(ctx, client, Step{Kind: BuildRussula}, hostGroup,
		fmt.Sprintf("build_russula_%s", hostGroup), logGroup, instanceIDs,
		buildRussulaCommands(naming, russulaRepo, russulaBranch))
	if err != nil {
		return nil, fmt.Errorf("phase: build russula: %w", err)
	}

	batches := []*Batch{installDeps, uploadScenario, buildRussula}

	for _, driver := range drivers {
		b, err := Dispatch(ctx, client, Step{Kind: BuildDriver, Detail: driver.TrimmedName()}, hostGroup,
			fmt.Sprintf("build_driver_%s", driver.TrimmedName()), logGroup, instanceIDs, driver.BuildCommands)
		if err != nil {
			return nil, fmt.Errorf("phase: build driver %s: %w", driver.TrimmedName(), err)
		}
		batches = append(batches, b)
	}

	return batches, nil
}

func installDepsCommands(naming types.Naming) []string {
	return []string{
		"shutdown -P +120",
		fmt.Sprintf("mkdir -p %s", naming.HostBinPath()),
		"yum upgrade -y",
		"timeout 5m bash -c 'until yum install cargo cmake git perl openssl-devel bpftrace perf tree -y; do sleep 10; done'",
		"runuser -u ec2-user -- curl --proto '=https' --tlsv1.2 -sSf https://sh.rustup.rs > rustup.rs",
		"chmod +x rustup.rs",
		"chgrp ec2-user rustup.rs",
		"chown ec2-user rustup.rs",
		"sh ./rustup.rs -y",
		"runuser -u ec2-user -- sh ./rustup.rs -y",
		"./root/.cargo/bin/rustup update",
		"runuser -u ec2-user -- ./.cargo/bin/rustup update",
		fmt.Sprintf("ln -s %s/.cargo/bin/cargo %s", naming.HostHomePath, naming.CargoPath()),
	}
}

func uploadScenarioCommands(naming types.Naming, scenarioFilename, publicBucket, uniqueID string) []string {
	return []string{
		fmt.Sprintf("aws s3 cp s3://%s/%s/%s %s/%s", publicBucket, uniqueID, scenarioFilename, naming.HostBinPath(), scenarioFilename),
	}
}

func buildRussulaCommands(naming types.Naming, repo, branch string) []string {
	return []string{
		fmt.Sprintf("git clone --branch %s %s", branch, repo),
		"cd netbench_orchestrator",
		fmt.Sprintf("env CARGO_REGISTRIES_CRATES_IO_PROTOCOL=sparse %s build", naming.CargoPath()),
	}
}
