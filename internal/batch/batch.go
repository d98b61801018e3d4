// Package batch runs one operation over many inputs with bounded concurrency.
package batch

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"opengeo/internal/logging"
)

// Result records the outcome for one item.
type Result[T any] struct {
	Item T
	Err  error
}

// Run calls fn for every item with at most workers calls in flight and
// returns the results in input order. A failing item does not stop the
// others; items not yet started when ctx is cancelled report ctx.Err().
func Run[T any](ctx context.Context, items []T, workers int, fn func(context.Context, T) error) []Result[T] {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := logging.FromContext(ctx)

	results := make([]Result[T], len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, item := range items {
		results[i].Item = item
		if err := gctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			err := fn(gctx, item)
			results[i].Err = err
			if err != nil {
				logger.Warn("batch item failed", zap.Int("index", i), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Failed returns the results that carry an error.
func Failed[T any](results []Result[T]) []Result[T] {
	var failed []Result[T]
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
