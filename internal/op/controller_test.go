package op

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestControllerCancelIsMonotonic(t *testing.T) {
	c := NewController()
	if c.IsCancelled() {
		t.Fatal("new controller should not be cancelled")
	}
	c.Cancel()
	if !c.IsCancelled() {
		t.Fatal("Cancel did not set the flag")
	}
	// There is no un-cancel; a second Cancel is a no-op.
	c.Cancel()
	if !c.IsCancelled() {
		t.Fatal("cancellation must never revert")
	}
}

func TestControllerProgressClampedAndMonotonic(t *testing.T) {
	testCases := []struct {
		set      float64
		expected float64
	}{
		{0.5, 0.5},
		{0.3, 0.5},  // never moves backwards
		{-1, 0.5},   // clamped low
		{1.5, 1.0},  // clamped high
		{0.99, 1.0}, // saturated
	}

	c := NewController()
	for _, tc := range testCases {
		c.SetProgress(tc.set)
		if got := c.Progress(); got != tc.expected {
			t.Errorf("SetProgress(%v): expected %v, got %v", tc.set, tc.expected, got)
		}
	}
}

func TestControllerState(t *testing.T) {
	c := NewController()
	if c.State() != "Preparing" {
		t.Errorf("initial state: expected Preparing, got %q", c.State())
	}
	c.SetState("Copying a.txt")
	if c.State() != "Copying a.txt" {
		t.Errorf("state not updated, got %q", c.State())
	}
}

func TestCheckReturnsErrCancelled(t *testing.T) {
	c := NewController()
	if err := c.Check(context.Background()); err != nil {
		t.Fatalf("Check on fresh controller: %v", err)
	}
	c.Cancel()
	if err := c.Check(context.Background()); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestCheckObservesContextCancel(t *testing.T) {
	c := NewController()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Check(ctx); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled after context cancel, got %v", err)
	}
	if !c.IsCancelled() {
		t.Fatal("context cancel should mark the controller cancelled")
	}
}

func TestCheckBlocksWhilePaused(t *testing.T) {
	c := NewController()
	c.Pause()

	done := make(chan error, 1)
	go func() {
		done <- c.Check(context.Background())
	}()

	select {
	case err := <-done:
		t.Fatalf("Check returned %v while paused", err)
	case <-time.After(250 * time.Millisecond):
	}

	c.Unpause()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Check after unpause: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Check did not return after unpause")
	}
}

func TestCheckCancelWhilePaused(t *testing.T) {
	c := NewController()
	c.Pause()

	done := make(chan error, 1)
	go func() {
		done <- c.Check(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)
	c.Cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrCancelled) {
			t.Fatalf("expected ErrCancelled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("paused Check did not observe cancellation")
	}
}
