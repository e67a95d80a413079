// Package types holds the plain data types shared across the orchestrator:
// the roles and endpoints of a run, instance and driver descriptors, and the
// naming/path conventions threaded through provisioning, staging, and the
// object-store layout.
package types

import (
	"fmt"
	"time"
)

// EndpointType distinguishes the two sides of a benchmark run.
type EndpointType string

const (
	EndpointServer EndpointType = "server"
	EndpointClient EndpointType = "client"
)

func (e EndpointType) String() string { return string(e) }

// Placement mirrors the EC2 placement-group strategy requested for a given
// endpoint type's hosts.
type Placement string

const (
	PlacementUnspecified Placement = "unspecified"
	PlacementCluster     Placement = "cluster"
)

// InstanceDescriptor is immutable once created at provisioning time and is
// destroyed at teardown. It is the unit the phase sequencer fans out over.
type InstanceDescriptor struct {
	Role             EndpointType
	AvailabilityZone string
	PrivateIP        string
	PublicIP         string
	InstanceID       string
	RemoteCommandID  string
}

// DriverKind selects one of the three ways a benchmark driver binary can be
// obtained on a remote host.
type DriverKind string

const (
	DriverPublicSource  DriverKind = "public-source"
	DriverRegistryPkg   DriverKind = "registry-package"
	DriverLocalSource   DriverKind = "local-source"
)

// DriverDescriptor describes one benchmark driver variant: how to build or
// fetch it on a remote host, and the name of the resulting binary.
type DriverDescriptor struct {
	Kind DriverKind

	// Name is the driver's canonical name, e.g. "s2n-netbench-driver-server-tcp".
	Name string

	// SourceURL is used by DriverPublicSource (a git remote or tarball URL).
	SourceURL string
	// SourceRef is an optional branch/tag/rev for DriverPublicSource.
	SourceRef string

	// PackageName is used by DriverRegistryPkg.
	PackageName string

	// LocalPath is the operator-workstation path uploaded to object storage
	// and then downloaded to the remote host, used by DriverLocalSource.
	LocalPath string

	// BuildCommands is the shell script run on the remote host to produce
	// BinaryName from this descriptor.
	BuildCommands []string

	// BinaryName is the final binary name installed under the host bin path.
	BinaryName string
}

// TrimmedName strips the "s2n-netbench-driver-"/"netbench-driver-" prefix and
// any ".json" suffix from the driver's name, matching the short form used in
// progress messages and result-file paths.
func (d DriverDescriptor) TrimmedName() string {
	name := d.Name
	for _, prefix := range []string{"s2n-netbench-driver-", "netbench-driver-"} {
		if len(name) > len(prefix) && name[:len(prefix)] == prefix {
			name = name[len(prefix):]
			break
		}
	}
	const jsonSuffix = ".json"
	if len(name) > len(jsonSuffix) && name[len(name)-len(jsonSuffix):] == jsonSuffix {
		name = name[:len(name)-len(jsonSuffix)]
	}
	return name
}

// ScenarioConfig describes the benchmark scenario a run executes.
type ScenarioConfig struct {
	// ScenarioFilename is the JSON scenario file name, uploaded verbatim to
	// object storage and downloaded onto every host.
	ScenarioFilename string
	ClientCount      int
	ServerCount      int
}

// Naming centralizes the host-naming and filesystem-path conventions used
// across provisioning, staging, and the phase sequencer, replacing the
// process-wide constant table the original implementation used.
type Naming struct {
	HostHomePath string
}

// DefaultNaming returns the conventional host layout used by every remote
// worker image.
func DefaultNaming() Naming {
	return Naming{HostHomePath: "/home/ec2-user"}
}

func (n Naming) HostBinPath() string  { return n.HostHomePath + "/bin" }
func (n Naming) CargoPath() string    { return n.HostBinPath() + "/cargo" }
func (n Naming) SentinelDir() string  { return n.HostHomePath }

// SecurityGroupName returns the per-run security group name.
func (n Naming) SecurityGroupName(uniqueID string) string {
	return fmt.Sprintf("netbench_%s", uniqueID)
}

// InstanceName returns the per-role instance name for a run.
func (n Naming) InstanceName(uniqueID string, role EndpointType) string {
	return fmt.Sprintf("%s_%s", role, uniqueID)
}

// UniqueID formats the spec-mandated run identifier:
// <RFC3339-seconds-UTC>-<orchestrator-version>.
func UniqueID(at time.Time, version string) string {
	return fmt.Sprintf("%s-%s", at.UTC().Format(time.RFC3339), version)
}
