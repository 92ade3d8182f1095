package util

import (
	"errors"
	"testing"
)

func TestParallelCoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 5, 64, 1001} {
		for _, workers := range []int{0, 1, 2, 7, 100} {
			seen := make([]int, n)
			err := Parallel(workers, n, func(lo, hi int) error {
				for i := lo; i < hi; i++ {
					seen[i]++
				}
				return nil
			})
			if err != nil {
				t.Fatal(err)
			}
			for i, c := range seen {
				if c != 1 {
					t.Fatalf("n=%d workers=%d: index %d visited %d times", n, workers, i, c)
				}
			}
		}
	}
}

func TestParallelError(t *testing.T) {
	boom := errors.New("boom")
	err := Parallel(4, 100, func(lo, hi int) error {
		if lo == 0 {
			return boom
		}
		return nil
	})
	if err != boom {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}
