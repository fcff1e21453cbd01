package heartbeat

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"servoswitch-go/bus"
	"servoswitch-go/types"
)

func step(c *clock.Mock, d time.Duration) {
	time.Sleep(10 * time.Millisecond)
	c.Add(d)
}

func waitCount(t *testing.T, n *atomic.Int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for n.Load() < want {
		if time.Now().After(deadline) {
			t.Fatalf("LED toggles = %d, want %d", n.Load(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestBeatsAtInterval(t *testing.T) {
	mock := clock.NewMock()
	var toggles atomic.Int32

	s := New(nil, mock, time.Second)
	s.LED = func(on bool) error { toggles.Add(1); return nil }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	step(mock, time.Second)
	step(mock, time.Second)
	waitCount(t, &toggles, 2)
}

func TestIntervalFollowsConfig(t *testing.T) {
	mock := clock.NewMock()
	b := bus.NewBus(8)
	var toggles atomic.Int32

	conn := b.NewConnection("heartbeat")
	s := New(conn, mock, time.Second)
	s.LED = func(on bool) error { toggles.Add(1); return nil }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	time.Sleep(10 * time.Millisecond)

	pub := b.NewConnection("config")
	pub.Publish(pub.NewMessage(bus.T("config", "heartbeat"),
		types.HeartbeatConfig{Interval: types.Duration(10 * time.Second)}, true))
	time.Sleep(10 * time.Millisecond)

	// A second at the old cadence no longer ticks.
	step(mock, time.Second)
	time.Sleep(20 * time.Millisecond)
	if got := toggles.Load(); got != 0 {
		t.Fatalf("LED toggled %d times before the new interval elapsed", got)
	}

	step(mock, 10*time.Second)
	waitCount(t, &toggles, 1)
}
