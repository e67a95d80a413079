package orchestrator

import (
	"fmt"

	"github.com/cuemby/russula/pkg/config"
	"github.com/cuemby/russula/pkg/types"
)

// DefaultDriverPairs returns the four (server, client) driver combinations
// the Rust original hardcodes in orchestrator.rs's run(): s2n-quic-dc, tcp,
// s2n-quic, s2n-tls. tcp/s2n-quic install from crates.io (DriverRegistryPkg);
// s2n-quic-dc/s2n-tls build from source (DriverPublicSource), matching
// ssm_utils::netbench_driver's NetbenchDriverType::{CratesIo,GithubRustProj}
// split.
func DefaultDriverPairs(tuning config.Tuning, uniqueID string) []DriverPair {
	return []DriverPair{
		sourceDriverPair(tuning, "s2n-quic-dc", "https://github.com/aws/s2n-quic.git", "main"),
		cratesDriverPair(tuning, "tcp", "s2n-netbench-driver-tcp"),
		cratesDriverPair(tuning, "s2n-quic", "s2n-netbench-driver-s2n-quic"),
		sourceDriverPair(tuning, "s2n-tls", "https://github.com/aws/s2n-tls.git", "main"),
	}
}

func collectorCommands(tuning config.Tuning) []string {
	cargo := tuning.Naming.CargoPath()
	bin := tuning.Naming.HostBinPath()
	return []string{
		fmt.Sprintf("runuser -u ec2-user -- env CARGO_REGISTRIES_CRATES_IO_PROTOCOL=sparse %s install s2n-netbench-collector", cargo),
		fmt.Sprintf("ln -sf /home/ec2-user/.cargo/bin/s2n-netbench-collector %s/s2n-netbench-collector", bin),
	}
}

func cratesDriverPair(tuning config.Tuning, shortName, krate string) DriverPair {
	build := func(role string) types.DriverDescriptor {
		name := fmt.Sprintf("s2n-netbench-driver-%s-%s", role, shortName)
		commands := append(collectorCommands(tuning), fmt.Sprintf(
			"runuser -u ec2-user -- env CARGO_REGISTRIES_CRATES_IO_PROTOCOL=sparse %s install %s",
			tuning.Naming.CargoPath(), krate))
		return types.DriverDescriptor{
			Kind:          types.DriverRegistryPkg,
			Name:          name,
			PackageName:   krate,
			BuildCommands: commands,
			BinaryName:    name,
		}
	}
	return DriverPair{Server: build("server"), Client: build("client")}
}

func sourceDriverPair(tuning config.Tuning, shortName, repoURL, ref string) DriverPair {
	build := func(role string) types.DriverDescriptor {
		name := fmt.Sprintf("s2n-netbench-driver-%s-%s", role, shortName)
		commands := append(collectorCommands(tuning),
			fmt.Sprintf("git clone --branch %s %s", ref, repoURL),
			fmt.Sprintf("env CARGO_REGISTRIES_CRATES_IO_PROTOCOL=sparse %s build --release", tuning.Naming.CargoPath()),
		)
		return types.DriverDescriptor{
			Kind:          types.DriverPublicSource,
			Name:          name,
			SourceURL:     repoURL,
			SourceRef:     ref,
			BuildCommands: commands,
			BinaryName:    name,
		}
	}
	return DriverPair{Server: build("server"), Client: build("client")}
}
