package util

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Parallel splits [0, n) into at most workers contiguous ranges and
// runs f on each range in its own goroutine, the last range absorbing
// the remainder. f must only write to state owned by its range.
// workers <= 0 uses GOMAXPROCS; a single worker runs f(0, n) on the
// calling goroutine, which makes it the reference path.
func Parallel(workers, n int, f func(lo, hi int) error) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		return f(0, n)
	}

	var g errgroup.Group
	step := n / workers
	for w := 0; w < workers; w++ {
		lo, hi := w*step, (w+1)*step
		if w == workers-1 {
			hi = n
		}
		g.Go(func() error {
			return f(lo, hi)
		})
	}

	return g.Wait()
}
