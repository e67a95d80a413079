package orchestrator

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/cuemby/russula/pkg/log"
	"github.com/cuemby/russula/pkg/objectstore"
)

// runReport downloads every host's raw results, runs the s2n-netbench
// report-tree renderer, uploads the rendered report, and publishes the
// terminal status marker. Matches report.rs's generate_report sequence,
// shelling out to the same two external tools (aws cli, s2n-netbench) the
// original does rather than reimplementing either.
func runReport(ctx context.Context, clients Clients, plan Plan) (string, error) {
	reportLog := log.WithComponent("orchestrator").With().Str("run_id", plan.UniqueID).Logger()
	cfURL := plan.Run.CloudfrontURL(plan.UniqueID)

	tmpDir, err := os.MkdirTemp("", plan.UniqueID)
	if err != nil {
		return "", fmt.Errorf("create report temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	s3Path := plan.Run.S3Path(plan.UniqueID)
	if err := runCommand(ctx, "aws", "s3", "sync", s3Path, tmpDir); err != nil {
		return "", fmt.Errorf("download results: %w", err)
	}

	resultsPath := tmpDir + "/results"
	reportPath := tmpDir + "/report"
	if err := runCommand(ctx, "s2n-netbench", "report-tree", resultsPath, reportPath); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}

	if err := runCommand(ctx, "aws", "s3", "sync", tmpDir, s3Path); err != nil {
		return "", fmt.Errorf("upload report: %w", err)
	}

	layout := objectstore.Layout{PublicBucket: plan.Run.CDK.PublicBucket(), UniqueID: plan.UniqueID}
	if err := objectstore.PublishFinished(ctx, clients.ObjectStore, layout, cfURL, 0); err != nil {
		return "", fmt.Errorf("publish finished marker: %w", err)
	}

	reportURL := fmt.Sprintf("%s/report/index.html", cfURL)
	reportLog.Info().Str("url", reportURL).Msg("report finished")
	return reportURL, nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %v: %w: %s", name, args, err, out)
	}
	return nil
}
