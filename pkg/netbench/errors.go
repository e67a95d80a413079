package netbench

import "fmt"

func newUnrecognizedPeerStateError(name, got string) error {
	return fmt.Errorf("netbench: %s: unrecognized peer state %q", name, got)
}
