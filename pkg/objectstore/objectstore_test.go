package objectstore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	objects map[string][]byte
}

func newFakeClient() *fakeClient { return &fakeClient{objects: map[string][]byte{}} }

func (f *fakeClient) PutObject(ctx context.Context, bucket, key, contentType string, body []byte) error {
	f.objects[bucket+"/"+key] = body
	return nil
}

func (f *fakeClient) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.objects[bucket+"/"+key])), nil
}

func TestLayoutKeyConventions(t *testing.T) {
	l := Layout{PublicBucket: "pub", PrivateBucket: "priv", UniqueID: "run-1"}
	assert.Equal(t, "run-1/scenario.json", l.ScenarioKey("scenario.json"))
	assert.Equal(t, "run-1/index.html", l.IndexKey())
	assert.Equal(t, "run-1/server-step-0", l.StepKey("server", 0))
	assert.Equal(t, "run-1/finished-step-0", l.FinishedStepKey(0))
}

func TestRenderIndexSubstitutesAllFourTemplates(t *testing.T) {
	tmpl := []byte(`run template_unique_id server=template_server_prefix client=template_client_prefix done=template_finished_prefix`)
	out := RenderIndex("run-1", "https://cf.example.com/run-1", tmpl)
	s := string(out)
	assert.Contains(t, s, "run run-1")
	assert.Contains(t, s, "server=https://cf.example.com/run-1/server-step-")
	assert.Contains(t, s, "client=https://cf.example.com/run-1/client-step-")
	assert.Contains(t, s, "done=https://cf.example.com/run-1/finished-step-")
}

func TestUploadAndDownloadScenarioFile(t *testing.T) {
	client := newFakeClient()
	layout := Layout{PublicBucket: "pub", UniqueID: "run-1"}
	require.NoError(t, UploadScenarioFile(context.Background(), client, layout, "scenario.json", []byte(`{"a":1}`)))

	data, err := DownloadObject(context.Background(), client, "pub", layout.ScenarioKey("scenario.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
}

func TestPublishFinishedLinksToReport(t *testing.T) {
	client := newFakeClient()
	layout := Layout{PublicBucket: "pub", UniqueID: "run-1"}
	require.NoError(t, PublishFinished(context.Background(), client, layout, "https://cf.example.com/run-1", 0))

	data, err := DownloadObject(context.Background(), client, "pub", layout.FinishedStepKey(0))
	require.NoError(t, err)
	assert.Contains(t, string(data), "https://cf.example.com/run-1/report/index.html")
}
