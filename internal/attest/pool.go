package attest

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/yegors/zendmap/internal/wfs"
	"github.com/yegors/zendmap/pkg/logger"
)

// ForEach calls fn for every index in [0, n) on at most workers goroutines (the CPU count
// when workers is not positive). fn owns slot i of whatever result slice it fills.
func ForEach(ctx context.Context, n, workers int, fn func(ctx context.Context, i int)) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fn(ctx, i)
			return nil
		})
	}
	g.Wait()
}

// Result is the outcome of fetching one feature's certificate.
type Result struct {
	Path      string
	FromCache bool
	Err       error
}

// FetchAll fetches the certificates of all features. Results are indexed like features;
// a failure only marks its own slot.
func (d *Downloader) FetchAll(ctx context.Context, features []wfs.Feature, workers int) []Result {
	results := make([]Result, len(features))
	ForEach(ctx, len(features), workers, func(ctx context.Context, i int) {
		path, cached, err := d.Fetch(ctx, features[i])
		results[i] = Result{Path: path, FromCache: cached, Err: err}
	})

	for i := range results {
		if results[i].Path == "" && results[i].Err == nil {
			results[i].Err = ctx.Err()
		}
	}

	cached, failed := 0, 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
		case r.FromCache:
			cached++
		}
	}
	d.logger.Info("Fetched certificates",
		logger.Int("total", len(features)),
		logger.Int("cached", cached),
		logger.Int("downloaded", len(features)-cached-failed),
		logger.Int("failed", failed))

	return results
}
