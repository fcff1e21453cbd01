package ramp

import (
	"time"

	"servoswitch-go/x/mathx"
)

// Step commits a new duty value.
type Step func(duty uint16)

// Tick waits for d and reports whether to continue (false => cancelled).
type Tick func(d time.Duration) bool

// Run drives a synchronous (caller-driven) linear ramp from cur to target.
// Call it from a goroutine and provide Tick to handle timing & cancellation.
// One Step per tick; the final step lands exactly on target.
// steps<=0 or duration<=0 snaps to target.
func Run(cur, target uint16, duration time.Duration, steps int, tick Tick, set Step) {
	if steps <= 0 || duration <= 0 {
		set(target)
		return
	}
	stepDur := duration / time.Duration(steps)
	if stepDur <= 0 {
		stepDur = time.Millisecond
	}
	for i := 1; i <= steps; i++ {
		if !tick(stepDur) {
			return
		}
		set(mathx.Lerp(cur, target, float64(i)/float64(steps)))
	}
}
