package phase

import (
	"context"
	"fmt"

	ssmapi "github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// awsSSMClient adapts *ssm.Client to the SSMClient interface, matching
// ssm_utils::send_command/poll_ssm_results: AWS-RunShellScript documents,
// CloudWatch output enabled against the run's log group.
type awsSSMClient struct {
	client *ssmapi.Client
}

// NewAWSSSMClient wraps an aws-sdk-go-v2 SSM client for use by Dispatch/Poll.
func NewAWSSSMClient(client *ssmapi.Client) SSMClient {
	return &awsSSMClient{client: client}
}

func (a *awsSSMClient) SendCommand(ctx context.Context, hostGroup, comment, logGroup string, instanceIDs []string, commands []string) (string, error) {
	out, err := a.client.SendCommand(ctx, &ssmapi.SendCommandInput{
		Comment:        &comment,
		InstanceIds:    instanceIDs,
		DocumentName:   strPtr("AWS-RunShellScript"),
		DocumentVersion: strPtr("$LATEST"),
		Parameters:     map[string][]string{"commands": commands},
		CloudWatchOutputConfig: &ssmtypes.CloudWatchOutputConfig{
			CloudWatchLogGroupName: &logGroup,
			CloudWatchOutputEnabled: true,
		},
	})
	if err != nil {
		return "", fmt.Errorf("phase: ssm send_command %s: %w", hostGroup, err)
	}
	if out.Command == nil || out.Command.CommandId == nil {
		return "", fmt.Errorf("phase: ssm send_command %s: empty command id", hostGroup)
	}
	return *out.Command.CommandId, nil
}

func (a *awsSSMClient) ListCommandInvocations(ctx context.Context, commandID string) ([]ssmtypes.CommandInvocation, error) {
	out, err := a.client.ListCommandInvocations(ctx, &ssmapi.ListCommandInvocationsInput{
		CommandId: &commandID,
	})
	if err != nil {
		return nil, fmt.Errorf("phase: ssm list_command_invocations %s: %w", commandID, err)
	}
	return out.CommandInvocations, nil
}

func strPtr(s string) *string { return &s }
