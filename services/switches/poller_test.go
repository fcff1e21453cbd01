package switches

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"servoswitch-go/drivers/hw"
)

func newTestPoller(src Source, n int) (*Poller, *Store, *Notifier) {
	store := NewStore(n)
	notify := NewNotifier()
	p := NewPoller(src, store, notify, nil, clock.New(), 0)
	return p, store, notify
}

func raised(n *Notifier) bool {
	select {
	case <-n.C():
		return true
	default:
		return false
	}
}

func TestPollerCycleAppliesAndNotifies(t *testing.T) {
	mem := hw.NewMem()
	mem.SetPin(26, true)
	src := NewPinSource(pinLayout(), mem, clock.New(), 0)
	p, store, notify := newTestPoller(src, 3)

	if err := p.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if v, _ := store.Get(0); !v {
		t.Error("store not updated from scan")
	}
	if !raised(notify) {
		t.Error("change should raise the notifier")
	}
}

func TestPollerNoChangeNoNotification(t *testing.T) {
	mem := hw.NewMem()
	src := NewPinSource(pinLayout(), mem, clock.New(), 0)
	p, _, notify := newTestPoller(src, 3)

	// First cycle establishes baseline: all false, store already all false.
	if err := p.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if raised(notify) {
		t.Error("unchanged scan must not raise the notifier")
	}
}

func TestPollerCoalescesMultipleChanges(t *testing.T) {
	mem := hw.NewMem()
	mem.SetPin(26, true)
	mem.SetPin(27, true)
	src := NewPinSource(pinLayout(), mem, clock.New(), 0)
	p, store, notify := newTestPoller(src, 3)

	if err := p.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	// Two switches changed in one cycle: both stored, one notification.
	if v, _ := store.Get(0); !v {
		t.Error("switch 0 not stored")
	}
	if v, _ := store.Get(1); !v {
		t.Error("switch 1 not stored")
	}
	if !raised(notify) {
		t.Fatal("expected one notification")
	}
	if raised(notify) {
		t.Error("changes within one cycle must coalesce into one notification")
	}
}

func TestPollerFailedPinRetainsState(t *testing.T) {
	mem := hw.NewMem()
	mem.SetPin(27, true)
	src := NewPinSource(pinLayout(), mem, clock.New(), 0)
	p, store, _ := newTestPoller(src, 3)

	if err := p.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	// Pin 27 (switch 1) starts failing; others keep updating.
	mem.FailPin(27, errors.New("read error"))
	mem.SetPin(26, true)
	if err := p.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	if v, _ := store.Get(1); !v {
		t.Error("failed switch must retain its previous state")
	}
	if v, _ := store.Get(0); !v {
		t.Error("healthy switches must keep updating")
	}
}

func TestPollerRunStopsOnFatalDriver(t *testing.T) {
	mem := hw.NewMem()
	mem.SetDown(true)
	src := NewPinSource(pinLayout(), mem, clock.New(), 0)
	p, _, _ := newTestPoller(src, 3)

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Run should return the systemic scan error")
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not terminate on fatal driver error")
	}
}

func TestPollerRunStopsOnCancel(t *testing.T) {
	mem := hw.NewMem()
	src := NewPinSource(pinLayout(), mem, clock.New(), 0)
	store := NewStore(3)
	p := NewPoller(src, store, NewNotifier(), nil, clock.New(), time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
