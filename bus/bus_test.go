// bus/bus_test.go
package bus

import (
	"testing"
	"time"
)

func expectOne(t *testing.T, sub *Subscription, want any) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		if got.Payload != want {
			t.Errorf("expected payload %v, got %v", want, got.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for %v", want)
	}
}

func expectNone(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		t.Errorf("expected no message, got %v", got.Payload)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBasicPubSub(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("switches", "0", "value"))
	conn.Publish(conn.NewMessage(T("switches", "0", "value"), "hello", false))

	expectOne(t, sub, "hello")
}

func TestRetainedMessage(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(T("config", "servos"), "persist", true))

	sub := conn.Subscribe(T("config", "servos"))
	expectOne(t, sub, "persist")
}

func TestRetainedCleared(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(T("config", "servos"), "persist", true))
	conn.Publish(conn.NewMessage(T("config", "servos"), nil, true))

	sub := conn.Subscribe(T("config", "servos"))
	expectNone(t, sub)
}

func TestWildcardSingleLevel(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	s1 := c.Subscribe(T("switches", Wildcard, "value"))
	s2 := c.Subscribe(T("switches", Wildcard, Wildcard))
	s3 := c.Subscribe(T("switches", "1", Wildcard))
	sNo := c.Subscribe(T("switches", Wildcard, "set"))

	c.Publish(c.NewMessage(T("switches", "1", "value"), "m1", false))

	expectOne(t, s1, "m1")
	expectOne(t, s2, "m1")
	expectOne(t, s3, "m1")
	expectNone(t, sNo)

	c.Publish(c.NewMessage(T("switches", "7", "other"), "m2", false))

	expectOne(t, s2, "m2")
	expectNone(t, s1)
	expectNone(t, s3)
}

func TestWildcardReceivesRetained(t *testing.T) {
	b := NewBus(8)
	c := b.NewConnection("test")

	c.Publish(c.NewMessage(T("switches", "3", "value"), true, true))

	sub := c.Subscribe(T("switches", Wildcard, "value"))
	expectOne(t, sub, true)
}

func TestQueueFullDropsOldest(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")

	sub := c.Subscribe(T("a"))
	for i := 0; i < 4; i++ {
		c.Publish(c.NewMessage(T("a"), i, false))
	}

	// Oldest messages were dropped; the two newest remain.
	expectOne(t, sub, 2)
	expectOne(t, sub, 3)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")

	sub := c.Subscribe(T("a", "b"))
	sub.Unsubscribe()
	b.Publish(b.NewMessage(T("a", "b"), "x", false))

	if _, ok := <-sub.ch; ok {
		t.Error("expected closed channel after unsubscribe")
	}
}

func TestDisconnectClosesAll(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")

	s1 := c.Subscribe(T("a"))
	s2 := c.Subscribe(T("b"))
	c.Disconnect()

	if _, ok := <-s1.ch; ok {
		t.Error("s1 still open after disconnect")
	}
	if _, ok := <-s2.ch; ok {
		t.Error("s2 still open after disconnect")
	}
}
