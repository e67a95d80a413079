// Package objectstore lays out a run's artifacts in S3 and renders the
// per-run status dashboard, grounded on s3_utils.rs and
// orchestrator/dashboard.rs.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/cuemby/russula/pkg/log"
)

// Client is the narrow S3 surface this package drives: upload and download
// of whole objects, matching s3_utils::{upload_object,download_object}.
type Client interface {
	PutObject(ctx context.Context, bucket, key, contentType string, body []byte) error
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Layout centralizes the "<bucket>/<unique-id>/..." key conventions used
// across staging, collection, and reporting.
type Layout struct {
	PublicBucket  string
	PrivateBucket string
	UniqueID      string
}

func (l Layout) ScenarioKey(filename string) string {
	return fmt.Sprintf("%s/%s", l.UniqueID, filename)
}

func (l Layout) IndexKey() string {
	return fmt.Sprintf("%s/index.html", l.UniqueID)
}

// StepKey returns the per-instance status marker key, e.g.
// "<unique-id>/server-step-0", matching update_instance_running.
func (l Layout) StepKey(role string, step int) string {
	return fmt.Sprintf("%s/%s-step-%d", l.UniqueID, role, step)
}

func (l Layout) FinishedStepKey(step int) string {
	return fmt.Sprintf("%s/finished-step-%d", l.UniqueID, step)
}

func (l Layout) RawDataPrefix() string {
	return fmt.Sprintf("%s/results", l.UniqueID)
}

// UploadScenarioFile stages the benchmark scenario JSON under the run's
// public-bucket prefix, so remote hosts can download it during Configure.
func UploadScenarioFile(ctx context.Context, client Client, layout Layout, filename string, body []byte) error {
	if err := client.PutObject(ctx, layout.PublicBucket, layout.ScenarioKey(filename), "application/json", body); err != nil {
		return fmt.Errorf("objectstore: upload scenario file %s: %w", filename, err)
	}
	return nil
}

// PublishIndex renders index.html from a template (four textual
// substitutions: the run id and three URL prefixes for server/client/finished
// step markers) and uploads it, matching upload_index_html.
func PublishIndex(ctx context.Context, client Client, layout Layout, cloudfrontURL string, template []byte) error {
	rendered := RenderIndex(layout.UniqueID, cloudfrontURL, template)
	if err := client.PutObject(ctx, layout.PublicBucket, layout.IndexKey(), "text/html", rendered); err != nil {
		return fmt.Errorf("objectstore: publish index: %w", err)
	}
	log.WithComponent("objectstore").Info().Str("url", fmt.Sprintf("%s/index.html", cloudfrontURL)).Msg("status page published")
	return nil
}

// RenderIndex performs the four template substitutions the original's
// upload_index_html does: the run's unique id, and the server/client/finished
// step-marker URL prefixes.
func RenderIndex(uniqueID, cloudfrontURL string, template []byte) []byte {
	out := bytes.ReplaceAll(template, []byte("template_unique_id"), []byte(uniqueID))
	out = bytes.ReplaceAll(out, []byte("template_server_prefix"), []byte(cloudfrontURL+"/server-step-"))
	out = bytes.ReplaceAll(out, []byte("template_client_prefix"), []byte(cloudfrontURL+"/client-step-"))
	out = bytes.ReplaceAll(out, []byte("template_finished_prefix"), []byte(cloudfrontURL+"/finished-step-"))
	return out
}

// PublishStep uploads a short status marker recording that role's instances
// have reached a milestone, matching update_instance_running.
func PublishStep(ctx context.Context, client Client, layout Layout, role string, step int, body string) error {
	if err := client.PutObject(ctx, layout.PublicBucket, layout.StepKey(role, step), "text/plain", []byte(body)); err != nil {
		return fmt.Errorf("objectstore: publish %s step %d: %w", role, step, err)
	}
	return nil
}

// PublishFinished uploads the terminal marker linking to the rendered
// report, matching update_report_url.
func PublishFinished(ctx context.Context, client Client, layout Layout, cloudfrontURL string, step int) error {
	body := fmt.Sprintf(`<a href="%s/report/index.html">Final Report</a>`, cloudfrontURL)
	if err := client.PutObject(ctx, layout.PublicBucket, layout.FinishedStepKey(step), "text/html", []byte(body)); err != nil {
		return fmt.Errorf("objectstore: publish finished marker: %w", err)
	}
	return nil
}

// DownloadObject reads one object fully into memory, matching
// download_object_to_file's role for small status/report artifacts.
func DownloadObject(ctx context.Context, client Client, bucket, key string) ([]byte, error) {
	r, err := client.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("objectstore: get object %s/%s: %w", bucket, key, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("objectstore: read object %s/%s: %w", bucket, key, err)
	}
	return data, nil
}
