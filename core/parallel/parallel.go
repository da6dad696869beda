// Package parallel provides a chunked worker helper for embarrassingly
// parallel loops over row ranges, such as scoring every window of a design
// matrix.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize splits [0, items) into contiguous chunks, one per worker, and
// runs fn(start, end) for each chunk on its own goroutine. fn must be safe to
// run concurrently for disjoint ranges.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	workers := runtime.NumCPU()
	if workers > items {
		workers = items
	}
	chunk := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunk {
		end := start + chunk
		if end > items {
			end = items
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn over the whole range on the calling
// goroutine when items is at or below threshold. Small inputs stay sequential
// because goroutine startup costs more than the loop itself.
func ParallelizeWithThreshold(items, threshold int, fn func(start, end int)) {
	if items <= threshold {
		if items > 0 {
			fn(0, items)
		}
		return
	}
	Parallelize(items, fn)
}
