// Package parallel splits row-oriented work across CPU cores.
package parallel

import (
	"runtime"
	"sync"
)

// DefaultThreshold is the row count below which loops stay sequential.
const DefaultThreshold = 256

// Parallelize divides items into one contiguous range per worker and runs fn
// on every range concurrently. It returns after every range has finished.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > items {
		numWorkers = items
	}
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunkSize {
		end := min(start+chunkSize, items)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeRows runs fn over [0, rows) and only fans out when rows exceeds
// threshold. A non-positive threshold selects DefaultThreshold.
func ParallelizeRows(rows, threshold int, fn func(start, end int)) {
	if rows <= 0 {
		return
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if rows <= threshold {
		fn(0, rows)
		return
	}
	Parallelize(rows, fn)
}
