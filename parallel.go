package agglo

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// parallelFor calls fn(start, end) over contiguous ranges covering [0, n),
// using up to numWorkers goroutines. Ranges don't overlap, so fn may write
// to index-addressed output without synchronization and the result is
// identical to the sequential run. With numWorkers <= 1 fn runs once on the
// calling goroutine.
func parallelFor(ctx context.Context, n, numWorkers int, fn func(start, end int) error) error {
	if n == 0 {
		return ctx.Err()
	}
	if numWorkers <= 1 || n == 1 {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(0, n)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)

	perWorker := (n + numWorkers - 1) / numWorkers
	for start := 0; start < n; start += perWorker {
		end := min(start+perWorker, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(start, end)
		})
	}
	return g.Wait()
}
