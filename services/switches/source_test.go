package switches

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"servoswitch-go/bus"
	"servoswitch-go/drivers/hw"
	"servoswitch-go/types"
)

func pinLayout() []types.SwitchPin {
	return []types.SwitchPin{
		{Index: 0, Pin: 26},
		{Index: 1, Pin: 27},
		{Index: 2, Pin: 28},
	}
}

func TestPinSourceScansAllPins(t *testing.T) {
	mem := hw.NewMem()
	mem.SetPin(26, true)
	mem.SetPin(28, true)

	src := NewPinSource(pinLayout(), mem, clock.New(), 0)
	got, err := src.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []Reading{{0, true}, {1, false}, {2, true}}
	if len(got) != len(want) {
		t.Fatalf("readings = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("reading[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPinSourceIsolatesPinFailure(t *testing.T) {
	mem := hw.NewMem()
	mem.SetPin(26, true)
	mem.FailPin(27, errors.New("bounce"))
	mem.SetPin(28, true)

	src := NewPinSource(pinLayout(), mem, clock.New(), 0)
	got, err := src.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("readings = %v, want pins 26 and 28 only", got)
	}
	for _, r := range got {
		if r.Index == 1 {
			t.Error("failed pin must not produce a reading")
		}
	}
}

func TestPinSourceDriverDownIsFatal(t *testing.T) {
	mem := hw.NewMem()
	mem.SetDown(true)

	src := NewPinSource(pinLayout(), mem, clock.New(), 0)
	if _, err := src.Scan(context.Background()); err == nil {
		t.Fatal("Scan should surface a systemic driver failure")
	}
}

func TestPinSourceDebounceRejectsBounce(t *testing.T) {
	mem := hw.NewMem()
	mem.SetPin(26, true)

	bouncing := &flipReader{Mem: mem, pin: 27}
	src := NewPinSource(pinLayout(), bouncing, clock.New(), time.Millisecond)

	got, err := src.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	for _, r := range got {
		if r.Index == 1 {
			t.Error("bouncing pin must not produce a reading")
		}
	}
}

// flipReader inverts the level of one pin on every read.
type flipReader struct {
	*hw.Mem
	pin  int
	last bool
}

func (f *flipReader) ReadPin(pin int) (bool, error) {
	if pin == f.pin {
		f.last = !f.last
		return f.last, nil
	}
	return f.Mem.ReadPin(pin)
}

func TestNetSourceAppliesVirtualSets(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("test")

	src := NewNetSource(b.NewConnection("net"), 3, 2)

	// Nothing set yet: nothing to report, prior state retained.
	got, err := src.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("readings before any set = %v, want none", got)
	}

	conn.Publish(conn.NewMessage(TopicVirtualSet(4), types.SwitchSet{On: true}, false))

	got, err = src.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 1 || got[0] != (Reading{Index: 4, Value: true}) {
		t.Fatalf("readings = %v, want [{4 true}]", got)
	}

	// Out-of-window indices are ignored.
	conn.Publish(conn.NewMessage(TopicVirtualSet(9), types.SwitchSet{On: true}, false))
	got, _ = src.Scan(context.Background())
	if len(got) != 1 {
		t.Fatalf("readings = %v, want window [3,5) only", got)
	}
}

func TestMultiSourceMergesIndexSpaces(t *testing.T) {
	mem := hw.NewMem()
	mem.SetPin(26, true)

	b := bus.NewBus(8)
	net := NewNetSource(b.NewConnection("net"), 1, 1)
	conn := b.NewConnection("test")
	conn.Publish(conn.NewMessage(TopicVirtualSet(1), types.SwitchSet{On: true}, false))

	src := MultiSource{
		NewPinSource([]types.SwitchPin{{Index: 0, Pin: 26}}, mem, clock.New(), 0),
		net,
	}
	got, err := src.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 2 || got[0].Index != 0 || got[1].Index != 1 {
		t.Fatalf("readings = %v, want indices 0 and 1", got)
	}
}
