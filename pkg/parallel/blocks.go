package parallel

import (
	"context"
	"sync"
)

// Block is a half-open index range [Start, End).
type Block struct {
	Start int
	End   int
}

// Blocks splits [0, n) into fixed-size ranges. Block boundaries depend only
// on n and size, never on worker count, so reductions over the returned
// slice are reproducible across machines and GOMAXPROCS settings.
func Blocks(n, size int) []Block {
	if n <= 0 {
		return nil
	}
	if size <= 0 {
		size = n
	}
	blocks := make([]Block, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		blocks = append(blocks, Block{Start: start, End: end})
	}
	return blocks
}

// MapBlocks runs fn over every block of [0, n) on up to workers goroutines
// and returns the results in block order. The work is cancelled cooperatively:
// if ctx is done or any fn returns an error, remaining blocks are skipped and
// no partial results are returned.
func MapBlocks[T any](ctx context.Context, n, blockSize, workers int, fn func(ctx context.Context, b Block) (T, error)) ([]T, error) {
	blocks := Blocks(n, blockSize)
	if len(blocks) == 0 {
		return nil, ctx.Err()
	}

	pool, err := NewWorkerPool(workers)
	if err != nil {
		return nil, err
	}

	results := make([]T, len(blocks))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i, b := range blocks {
		if runCtx.Err() != nil {
			break
		}
		i, b := i, b
		wg.Add(1)
		if !pool.Submit(func() {
			defer wg.Done()
			if runCtx.Err() != nil {
				return
			}
			out, err := fn(runCtx, b)
			if err != nil {
				fail(err)
				return
			}
			results[i] = out
		}) {
			wg.Done()
		}
	}
	wg.Wait()
	pool.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
