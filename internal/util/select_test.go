package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errFrame = errors.New("short frame")

func TestSel(t *testing.T) {
	// the result of f comes back untouched
	if err := Sel(context.Background(), func() error { return errFrame }); err != errFrame {
		t.Errorf("expected %v, got %v", errFrame, err)
	}

	// a cancelled context releases the caller while f is blocked
	block := make(chan struct{})
	defer close(block)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sel(ctx, func() error { <-block; return nil }); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	// and so does a deadline
	ctx, cancel = context.WithTimeout(context.Background(), time.Second/10)
	defer cancel()
	start := time.Now()
	if err := Sel(ctx, func() error { <-block; return nil }); err != context.DeadlineExceeded {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
	t.Logf("released after %v", time.Since(start))
}
