package measure

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"goenvelope/domain/curves"
)

// ComputePartials evaluates the partition partials concurrently, bounded by
// a weighted semaphore at GOMAXPROCS. Partitions are independent and share no
// state; results come back in partition order. The caller must have produced
// every partition from the same simulation draws.
func ComputePartials(ctx context.Context, parts []*curves.CurveSet, o Options) ([]*Partial, error) {
	results := make([]*Partial, len(parts))
	errs := make([]error, len(parts))

	sem := semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0)))
	var wg sync.WaitGroup

	for i, part := range parts {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled; drop the remaining partitions.
			errs[i] = err
			break
		}
		wg.Add(1)
		go func(part *curves.CurveSet, idx int) {
			defer wg.Done()
			defer sem.Release(1)
			results[idx], errs[idx] = ComputePartial(part, o)
		}(part, i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
