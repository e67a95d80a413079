package process

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnAndProbeAlive(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.json")
	h, err := Spawn(context.Background(), "sleep", []string{"5"}, nil, out)
	require.NoError(t, err)
	defer func() {
		_ = Terminate(h.Pid)
		_ = h.Wait()
	}()

	status, err := Probe(h.Pid)
	require.NoError(t, err)
	assert.Equal(t, Alive, status)
}

func TestTerminateThenAbsent(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.json")
	h, err := Spawn(context.Background(), "sleep", []string{"30"}, nil, out)
	require.NoError(t, err)

	require.NoError(t, Terminate(h.Pid))
	_ = h.Wait()

	status, err := Probe(h.Pid)
	require.NoError(t, err)
	assert.Equal(t, Absent, status)
}

func TestSpawnCapturesStdoutToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.json")
	h, err := Spawn(context.Background(), "echo", []string{"hello-worker"}, nil, out)
	require.NoError(t, err)
	require.NoError(t, h.Wait())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello-worker")
}

func TestZombieBecomesAbsentAfterWait(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.json")
	h, err := Spawn(context.Background(), "true", nil, nil, out)
	require.NoError(t, err)

	// give the child time to exit before it is reaped
	require.Eventually(t, func() bool {
		status, err := Probe(h.Pid)
		return err == nil && status == Zombie
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, h.Wait())

	status, err := Probe(h.Pid)
	require.NoError(t, err)
	assert.Equal(t, Absent, status)
}
