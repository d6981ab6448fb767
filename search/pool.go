package search

import (
	"context"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
)

func defaultPoolSize() int {
	return max(1, runtime.NumCPU())
}

// fanOut runs task(i) for every i in [0,n) on pool and waits for all of
// them. Tasks write their own result slots; fanOut adds no locking.
// A cancelled context stops submission and skips tasks not yet started.
func fanOut(ctx context.Context, pool *ants.Pool, n int, task func(i int)) error {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return err
		}
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			task(i)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return err
		}
	}
	wg.Wait()
	return ctx.Err()
}

// withPool runs fn with a pool that lives for the duration of the call.
func withPool(fn func(pool *ants.Pool) error) error {
	pool, err := ants.NewPool(defaultPoolSize())
	if err != nil {
		return err
	}
	defer pool.Release()
	return fn(pool)
}
