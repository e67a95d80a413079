// Package netbench implements the four russula role state machines —
// ServerWorker, ServerCoord, ClientWorker, ClientCoord — as concrete
// workflow.State/workflow.Protocol values. Coordinators and workers are
// paired one-to-one per instance over TCP by the pkg/workflow engine; this
// package supplies the per-role action logic that engine drives.
package netbench

import "strings"

// ServerContext configures a ServerWorker's benchmark subprocess.
type ServerContext struct {
	// Testing runs a stub program instead of the real netbench driver.
	Testing bool
	// NetbenchPath is the directory containing the driver binaries and
	// scenario file, e.g. "/home/ec2-user/bin".
	NetbenchPath string
	// Driver names the netbench driver binary to run, e.g.
	// "s2n-netbench-driver-server-native-tls".
	Driver string
	// Scenario names the scenario file, e.g. "request_response.json".
	Scenario string
	// NetbenchPort is the port the server subprocess accepts connections
	// on.
	NetbenchPort uint16
}

// TrimmedDriverName strips the common driver-binary prefixes and the
// scenario-file suffix, leaving a short label suitable for output
// filenames and logs.
func (c ServerContext) TrimmedDriverName() string { return trimDriverName(c.Driver) }

// ClientContext configures a ClientWorker's benchmark subprocess.
type ClientContext struct {
	Testing      bool
	NetbenchPath string
	Driver       string
	Scenario     string
	// NetbenchServers lists the server addresses the client subprocess
	// should connect to, in peer order; each becomes one SERVER_n
	// environment variable.
	NetbenchServers []string
}

// TrimmedDriverName strips the common driver-binary prefixes and the
// scenario-file suffix, leaving a short label suitable for output
// filenames and logs.
func (c ClientContext) TrimmedDriverName() string { return trimDriverName(c.Driver) }

func trimDriverName(driver string) string {
	name := strings.TrimPrefix(driver, "s2n-netbench-driver-")
	name = strings.TrimPrefix(name, "netbench-driver-")
	name = strings.TrimSuffix(name, ".json")
	return name
}
