package switches

import (
	"context"
	"testing"
	"time"
)

func TestNotifierRaiseWakesWaiter(t *testing.T) {
	n := NewNotifier()
	n.Raise()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := n.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestNotifierCoalesces(t *testing.T) {
	n := NewNotifier()
	n.Raise()
	n.Raise()
	n.Raise()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := n.Wait(ctx); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	// The slot was cleared by the first wake; a second wait must block.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel2()
	if err := n.Wait(ctx2); err == nil {
		t.Fatal("second Wait should block: raises must coalesce")
	}
}

func TestNotifierWaitHonoursContext(t *testing.T) {
	n := NewNotifier()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.Wait(ctx); err == nil {
		t.Fatal("Wait should return on cancelled context")
	}
}
