package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NetbenchScenario is the subset of the s2n-netbench scenario file the
// orchestrator cares about: how many client and server hosts it names.
// Matches orchestrator/cli.rs's NetbenchScenario (clients/servers arrays of
// opaque JSON values — only their length matters here).
type NetbenchScenario struct {
	Clients []json.RawMessage `json:"clients"`
	Servers []json.RawMessage `json:"servers"`
}

// LoadNetbenchScenario reads and parses a scenario file, returning the
// parsed scenario, its body (for re-upload to object storage), and its
// bare filename.
func LoadNetbenchScenario(path string) (NetbenchScenario, []byte, string, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return NetbenchScenario{}, nil, "", fmt.Errorf("config: read scenario file %s: %w", path, err)
	}
	var scenario NetbenchScenario
	if err := json.Unmarshal(body, &scenario); err != nil {
		return NetbenchScenario{}, nil, "", fmt.Errorf("config: parse scenario file %s: %w", path, err)
	}
	return scenario, body, filepath.Base(path), nil
}

// ScenarioStem strips the scenario filename's extension, matching
// netbench_scenario_file_stem's use as the results-directory name.
func ScenarioStem(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
