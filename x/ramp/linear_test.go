package ramp

import (
	"testing"
	"time"
)

func TestRunTenEqualSteps(t *testing.T) {
	var got []uint16
	ticks := 0
	Run(1000, 2000, time.Second, 10,
		func(d time.Duration) bool {
			if d != 100*time.Millisecond {
				t.Fatalf("step duration = %v, want 100ms", d)
			}
			ticks++
			return true
		},
		func(duty uint16) { got = append(got, duty) },
	)
	if ticks != 10 {
		t.Fatalf("ticks = %d, want 10", ticks)
	}
	want := []uint16{1100, 1200, 1300, 1400, 1500, 1600, 1700, 1800, 1900, 2000}
	if len(got) != len(want) {
		t.Fatalf("writes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("write[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestRunDownward(t *testing.T) {
	var last uint16
	Run(2000, 1000, time.Second, 4,
		func(time.Duration) bool { return true },
		func(duty uint16) { last = duty },
	)
	if last != 1000 {
		t.Errorf("final duty = %d, want 1000", last)
	}
}

func TestRunCancelledStopsWrites(t *testing.T) {
	var got []uint16
	n := 0
	Run(0, 1000, time.Second, 10,
		func(time.Duration) bool {
			n++
			return n <= 3
		},
		func(duty uint16) { got = append(got, duty) },
	)
	if len(got) != 3 {
		t.Fatalf("writes after cancel = %v, want 3 writes", got)
	}
}

func TestRunSnapsWithoutSteps(t *testing.T) {
	var got []uint16
	Run(500, 1500, 0, 10,
		func(time.Duration) bool { t.Fatal("tick called for snap"); return false },
		func(duty uint16) { got = append(got, duty) },
	)
	if len(got) != 1 || got[0] != 1500 {
		t.Fatalf("snap writes = %v, want [1500]", got)
	}
}
