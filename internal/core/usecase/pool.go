package usecase

import (
	"context"
	"sync"
	"sync/atomic"
)

// RunPool executes work(ctx, i) for every index in [0, count) using a
// pull-based pool of bounded width. Workers share one cursor and claim the
// next index as soon as they finish the previous one, so a slow item never
// starves the rest of the queue. Concurrency is clamped to
// max(1, min(concurrency, count)). The returned slice holds the error for
// each index; a failing item never stops its siblings.
func RunPool(ctx context.Context, count, concurrency int, work func(ctx context.Context, index int) error) []error {
	if count <= 0 {
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > count {
		concurrency = count
	}

	errs := make([]error, count)
	var cursor atomic.Int64

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for w := 0; w < concurrency; w++ {
		go func() {
			defer wg.Done()
			for {
				index := int(cursor.Add(1)) - 1
				if index >= count {
					return
				}
				if err := ctx.Err(); err != nil {
					errs[index] = err
					continue
				}
				errs[index] = work(ctx, index)
			}
		}()
	}
	wg.Wait()

	return errs
}
