// Package phase sequences remote-command batches against a list of EC2
// instance IDs, ordering them by phase sentinels on the remote host rather
// than by any ordering guarantee SSM itself provides.
package phase

import (
	"context"
	"fmt"
	"time"

	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/cuemby/russula/pkg/log"
	"github.com/cuemby/russula/pkg/metrics"
)

// Kind names one phase sentinel.
type Kind int

const (
	UploadScenarioFile Kind = iota
	Configure
	BuildDriver
	BuildRussula
	RunRussula
	RunNetbench
	UploadNetbenchRawData
)

// Step identifies one phase, carrying an optional detail (a driver name,
// for BuildDriver) the way the original's per-variant payload does.
type Step struct {
	Kind   Kind
	Detail string
}

func (s Step) sentinel() string {
	switch s.Kind {
	case UploadScenarioFile:
		return "upload_scenario_file"
	case Configure:
		return "configure"
	case BuildDriver:
		return "build_driver"
	case BuildRussula:
		return "build_russula"
	case RunRussula:
		return "run_russula"
	case RunNetbench:
		return "run_netbench"
	case UploadNetbenchRawData:
		return "upload_netbench_raw_data"
	default:
		return "unknown"
	}
}

// WaitSet returns the sentinels this step's wrapped command waits on before
// starting, matching spec 4.6's fixed dependency table.
func (s Step) WaitSet() []Step {
	switch s.Kind {
	case BuildDriver, BuildRussula:
		return []Step{{Kind: UploadScenarioFile}, {Kind: Configure}}
	case RunRussula:
		return []Step{{Kind: BuildDriver}, {Kind: BuildRussula}}
	case UploadNetbenchRawData:
		return []Step{{Kind: RunRussula}}
	default:
		return nil
	}
}

// assembleCommand wraps commands with a sentinel-wait prefix and a
// start/finish-marker suffix, so batches dispatched in parallel still
// execute in phase order on the remote host.
func assembleCommand(step Step, waitSet []Step, commands []string) []string {
	var out []string
	for _, w := range waitSet {
		out = append(out, fmt.Sprintf("cd /home/ec2-user; until [ -f fin_%s___ ]; do sleep 5; done", w.sentinel()))
	}

	out = append(out, fmt.Sprintf("cd /home/ec2-user; touch start_%s___", step.sentinel()))
	if step.Detail != "" {
		out = append(out, fmt.Sprintf("cd /home/ec2-user; touch start_%s_%s___", step.sentinel(), step.Detail))
	}

	out = append(out, commands...)

	out = append(out, "cd /home/ec2-user", fmt.Sprintf("mv start_%s___ fin_%s___", step.sentinel(), step.sentinel()))
	if step.Detail != "" {
		out = append(out, fmt.Sprintf("cd /home/ec2-user; mv start_%s_%s___ fin_%s_%s___", step.sentinel(), step.Detail, step.sentinel(), step.Detail))
	}

	return out
}

// dispatchRetries is the bounded retry budget for submitting a remote
// command before giving up (spec 5: "5-retry remote-command dispatch
// budget").
const dispatchRetries = 5

// dispatchBackoff is a var (not const) so tests can shrink it.
var dispatchBackoff = 5 * time.Second

// SSMClient is the narrow surface of aws-sdk-go-v2/service/ssm.Client this
// package drives commands through.
type SSMClient interface {
	SendCommand(ctx context.Context, hostGroup, comment, logGroup string, instanceIDs []string, commands []string) (commandID string, err error)
	ListCommandInvocations(ctx context.Context, commandID string) ([]ssmtypes.CommandInvocation, error)
}

// Batch is one dispatched remote-command request, tracked against the step
// it implements.
type Batch struct {
	Step      Step
	HostGroup string
	CommandID string
}

// Dispatch wraps commands for step (applying its wait-set prefix and
// start/finish suffix) and submits them against instanceIDs, retrying up to
// dispatchRetries times on transport failure.
func Dispatch(ctx context.Context, client SSMClient, step Step, hostGroup, comment, logGroup string, instanceIDs []string, commands []string) (*Batch, error) {
	wrapped := assembleCommand(step, step.WaitSet(), commands)

	phaseLog := log.WithComponent("phase")
	var lastErr error
	for attempt := 0; attempt <= dispatchRetries; attempt++ {
		id, err := client.SendCommand(ctx, hostGroup, comment, logGroup, instanceIDs, wrapped)
		if err == nil {
			return &Batch{Step: step, HostGroup: hostGroup, CommandID: id}, nil
		}
		lastErr = err
		metrics.RemoteCommandRetries.WithLabelValues(step.sentinel()).Inc()
		phaseLog.Debug().Str("step", step.sentinel()).Int("attempt", attempt).Err(err).Msg("send_command failed, retrying")
		select {
		case <-time.After(dispatchBackoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("phase: dispatch %s exhausted %d retries: %w", step.sentinel(), dispatchRetries, lastErr)
}

// pollStatus classifies one remote-command invocation status into ready,
// pending, or a terminal error, matching poll_ssm_results exactly.
func pollStatus(status ssmtypes.CommandInvocationStatus) (ready bool, err error) {
	switch status {
	case ssmtypes.CommandInvocationStatusCancelled,
		ssmtypes.CommandInvocationStatusCancelling,
		ssmtypes.CommandInvocationStatusFailed,
		ssmtypes.CommandInvocationStatusTimedOut:
		return false, fmt.Errorf("phase: remote command reached terminal failure status %s", status)
	case ssmtypes.CommandInvocationStatusDelayed,
		ssmtypes.CommandInvocationStatusInProgress,
		ssmtypes.CommandInvocationStatusPending:
		return false, nil
	case ssmtypes.CommandInvocationStatusSuccess:
		return true, nil
	default:
		return false, fmt.Errorf("phase: unhandled remote command status %s", status)
	}
}

// Poll reports whether a single batch has reached a ready status. With no
// invocations reported at all, the batch is treated as ready (matching the
// original's "no command found" fallthrough).
func Poll(ctx context.Context, client SSMClient, b *Batch) (bool, error) {
	invocations, err := client.ListCommandInvocations(ctx, b.CommandID)
	if err != nil {
		return false, fmt.Errorf("phase: list invocations for %s: %w", b.CommandID, err)
	}
	if len(invocations) == 0 {
		return true, nil
	}
	for _, inv := range invocations {
		ready, err := pollStatus(inv.Status)
		if err != nil {
			return false, err
		}
		if !ready {
			return false, nil
		}
	}
	return true, nil
}
