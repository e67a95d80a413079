package phase

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/cuemby/russula/pkg/metrics"
)

// WaitComplete polls every batch until each reaches a ready status (or any
// reaches a terminal error), displaying a simple progress bar keyed on the
// count of ready batches, as spec 4.6 describes.
func WaitComplete(ctx context.Context, client SSMClient, hostGroup string, batches []*Batch, pollDelay time.Duration) error {
	total := int64(len(batches))
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(hostGroup),
		progressbar.OptionSetItsString("batch"),
		progressbar.OptionShowCount(),
	)

	for {
		completed := int64(0)
		for _, b := range batches {
			ready, err := Poll(ctx, client, b)
			if err != nil {
				return fmt.Errorf("phase: %s: %w", b.Step.sentinel(), err)
			}
			if ready {
				completed++
			}
		}

		_ = bar.Set64(completed)
		metrics.RemoteCommandBatchesReady.WithLabelValues(hostGroup).Set(float64(completed))

		if completed == total {
			_ = bar.Finish()
			return nil
		}

		select {
		case <-time.After(pollDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
