package phase

import (
	"context"
	"errors"
	"testing"
	"time"

	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitSetTable(t *testing.T) {
	tests := []struct {
		name string
		step Step
		want []Step
	}{
		{"upload scenario has no wait set", Step{Kind: UploadScenarioFile}, nil},
		{"configure has no wait set", Step{Kind: Configure}, nil},
		{"build driver waits on upload+configure", Step{Kind: BuildDriver, Detail: "server-tcp"}, []Step{{Kind: UploadScenarioFile}, {Kind: Configure}}},
		{"build russula waits on upload+configure", Step{Kind: BuildRussula}, []Step{{Kind: UploadScenarioFile}, {Kind: Configure}}},
		{"run russula waits on builds", Step{Kind: RunRussula}, []Step{{Kind: BuildDriver}, {Kind: BuildRussula}}},
		{"upload raw data waits on run russula", Step{Kind: UploadNetbenchRawData}, []Step{{Kind: RunRussula}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.step.WaitSet())
		})
	}
}

func TestAssembleCommandWrapsWithSentinels(t *testing.T) {
	step := Step{Kind: BuildDriver, Detail: "server-tcp"}
	out := assembleCommand(step, step.WaitSet(), []string{"echo building"})

	assert.Contains(t, out, "cd /home/ec2-user; until [ -f fin_upload_scenario_file___ ]; do sleep 5; done")
	assert.Contains(t, out, "cd /home/ec2-user; until [ -f fin_configure___ ]; do sleep 5; done")
	assert.Contains(t, out, "cd /home/ec2-user; touch start_build_driver___")
	assert.Contains(t, out, "cd /home/ec2-user; touch start_build_driver_server-tcp___")
	assert.Contains(t, out, "echo building")
	assert.Contains(t, out, "mv start_build_driver___ fin_build_driver___")
	assert.Contains(t, out, "cd /home/ec2-user; mv start_build_driver_server-tcp___ fin_build_driver_server-tcp___")
}

func TestPollStatusClassification(t *testing.T) {
	tests := []struct {
		status    ssmtypes.CommandInvocationStatus
		wantReady bool
		wantErr   bool
	}{
		{ssmtypes.CommandInvocationStatusSuccess, true, false},
		{ssmtypes.CommandInvocationStatusPending, false, false},
		{ssmtypes.CommandInvocationStatusInProgress, false, false},
		{ssmtypes.CommandInvocationStatusDelayed, false, false},
		{ssmtypes.CommandInvocationStatusFailed, false, true},
		{ssmtypes.CommandInvocationStatusCancelled, false, true},
		{ssmtypes.CommandInvocationStatusCancelling, false, true},
		{ssmtypes.CommandInvocationStatusTimedOut, false, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			ready, err := pollStatus(tt.status)
			assert.Equal(t, tt.wantReady, ready)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type fakeSSMClient struct {
	sendErrs   []error
	invocations map[string][]ssmtypes.CommandInvocation
	sent       int
}

func (f *fakeSSMClient) SendCommand(ctx context.Context, hostGroup, comment, logGroup string, instanceIDs []string, commands []string) (string, error) {
	idx := f.sent
	f.sent++
	if idx < len(f.sendErrs) && f.sendErrs[idx] != nil {
		return "", f.sendErrs[idx]
	}
	return "cmd-id", nil
}

func (f *fakeSSMClient) ListCommandInvocations(ctx context.Context, commandID string) ([]ssmtypes.CommandInvocation, error) {
	return f.invocations[commandID], nil
}

func TestDispatchRetriesThenSucceeds(t *testing.T) {
	orig := dispatchBackoff
	dispatchBackoff = time.Millisecond
	defer func() { dispatchBackoff = orig }()

	client := &fakeSSMClient{sendErrs: []error{errors.New("throttled"), errors.New("throttled")}}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b, err := Dispatch(ctx, client, Step{Kind: Configure}, "servers", "configure_host_servers", "log-group", []string{"i-1"}, []string{"echo hi"})
	require.NoError(t, err)
	assert.Equal(t, "cmd-id", b.CommandID)
	assert.Equal(t, 3, client.sent)
}

func TestPollReadyWhenSuccess(t *testing.T) {
	client := &fakeSSMClient{invocations: map[string][]ssmtypes.CommandInvocation{
		"cmd-id": {{Status: ssmtypes.CommandInvocationStatusSuccess}},
	}}
	ready, err := Poll(context.Background(), client, &Batch{CommandID: "cmd-id"})
	require.NoError(t, err)
	assert.True(t, ready)
}

func TestPollErrorsOnFailedStatus(t *testing.T) {
	client := &fakeSSMClient{invocations: map[string][]ssmtypes.CommandInvocation{
		"cmd-id": {{Status: ssmtypes.CommandInvocationStatusFailed}},
	}}
	_, err := Poll(context.Background(), client, &Batch{CommandID: "cmd-id", Step: Step{Kind: RunRussula}})
	assert.Error(t, err)
}
