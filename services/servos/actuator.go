// Package servos converts logical switch demands into bounded duty values
// and moves each servo there with timed linear steps.
package servos

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"servoswitch-go/bus"
	"servoswitch-go/drivers/hw"
	"servoswitch-go/types"
	"servoswitch-go/x/mathx"
	"servoswitch-go/x/ramp"
	"servoswitch-go/x/timex"
)

const (
	// DefaultStepPeriod is the motion scheduling granularity.
	DefaultStepPeriod = 20 * time.Millisecond
	// settleDelay is how long a finished motion rests before the pulse is
	// dropped when IdleOff is set.
	settleDelay = 200 * time.Millisecond
)

// Actuator owns one servo output channel. At most one motion runs per
// actuator; starting a new one supersedes the motion in flight, which stops
// at its next step and never writes again.
type Actuator struct {
	spec       types.ServoSpec
	drv        hw.DutyWriter
	conn       *bus.Connection // optional telemetry; may be nil
	clk        clock.Clock
	stepPeriod time.Duration

	mu      sync.Mutex
	current uint16 // last commanded duty
	on      bool   // logical state once at rest
	atRest  bool
	motion  *motion
}

type motion struct {
	to     uint16
	on     bool
	cancel chan struct{}
	done   chan struct{}
}

func New(spec types.ServoSpec, drv hw.DutyWriter, conn *bus.Connection, clk clock.Clock, stepPeriod time.Duration) *Actuator {
	if stepPeriod <= 0 {
		stepPeriod = DefaultStepPeriod
	}
	return &Actuator{spec: spec, drv: drv, conn: conn, clk: clk, stepPeriod: stepPeriod}
}

func (a *Actuator) ID() string { return a.spec.ID }

// Current returns the last commanded duty value.
func (a *Actuator) Current() uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Target returns the duty the actuator is heading for: the in-flight
// motion's destination, or the held duty when at rest.
func (a *Actuator) Target() uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.motion != nil {
		return a.motion.to
	}
	return a.current
}

// Moving reports whether a motion is in flight.
func (a *Actuator) Moving() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.motion != nil
}

func (a *Actuator) bound(on bool) uint16 {
	if on {
		return a.spec.OnDuty
	}
	return a.spec.OffDuty
}

// SetImmediate maps a normalized demand linearly across the calibration
// bounds and writes the result in one step. With constrain the duty is
// clamped inside the bounds, whichever order they are calibrated in.
func (a *Actuator) SetImmediate(demand float64, constrain bool) error {
	duty := mathx.Lerp(a.spec.OffDuty, a.spec.OnDuty, demand)
	if constrain {
		duty = mathx.Clamp(duty, a.spec.OffDuty, a.spec.OnDuty)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.drv.WriteDuty(a.spec.Channel, duty); err != nil {
		return err
	}
	a.current = duty
	a.on = demand >= 0.5
	a.atRest = true
	return nil
}

// Move starts a linear motion toward the calibrated bound for the target
// state and returns immediately. A motion already heading there is left
// alone; any other in-flight motion is superseded, and the fresh
// interpolation starts from the duty the servo actually holds so the
// travel stays continuous.
func (a *Actuator) Move(target bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	to := a.bound(target)
	if a.motion != nil {
		if a.motion.to == to {
			return // already on its way
		}
		close(a.motion.cancel)
		a.motion = nil
	} else if a.atRest && a.current == to {
		return // nothing to do
	}

	m := &motion{
		to:     to,
		on:     target,
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}
	a.motion = m
	a.atRest = false

	from := a.current
	steps := int(a.spec.Transit.D() / a.stepPeriod)
	go a.run(m, from, steps)
}

func (a *Actuator) run(m *motion, from uint16, steps int) {
	defer close(m.done)

	ramp.Run(from, m.to, a.spec.Transit.D(), steps, a.tick(m), func(duty uint16) {
		a.commit(m, duty)
	})
	a.finish(m)
}

// tick sleeps one step period or reports cancellation.
func (a *Actuator) tick(m *motion) ramp.Tick {
	return func(d time.Duration) bool {
		t := a.clk.Timer(d)
		select {
		case <-m.cancel:
			t.Stop()
			return false
		case <-t.C:
			return true
		}
	}
}

// commit performs one step's driver write unless the motion has been
// superseded. The cancellation check and the write share the actuator
// mutex with Move, so no superseded write can land after the winning call
// has started from the current duty.
func (a *Actuator) commit(m *motion, duty uint16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	select {
	case <-m.cancel:
		return
	default:
	}
	if err := a.drv.WriteDuty(a.spec.Channel, duty); err != nil {
		log.Error().Str("servo", a.spec.ID).Err(err).Msg("duty write failed")
		return
	}
	a.current = duty
}

func (a *Actuator) finish(m *motion) {
	a.mu.Lock()
	select {
	case <-m.cancel:
		a.mu.Unlock()
		return
	default:
	}
	a.motion = nil
	a.on = m.on
	a.atRest = true
	duty := a.current
	a.mu.Unlock()

	a.publish(duty, m.on)

	if a.spec.IdleOff {
		a.idleOff(m)
	}
}

// idleOff waits out the settle period and then drops the pulse so the
// servo stops humming. The commanded duty keeps the calibrated bound; a
// motion superseding during the settle aborts the drop.
func (a *Actuator) idleOff(m *motion) {
	t := a.clk.Timer(settleDelay)
	select {
	case <-m.cancel:
		t.Stop()
		return
	case <-t.C:
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.motion != nil {
		return
	}
	if err := a.drv.WriteDuty(a.spec.Channel, 0); err != nil {
		log.Error().Str("servo", a.spec.ID).Err(err).Msg("pulse off failed")
	}
}

func (a *Actuator) publish(duty uint16, on bool) {
	if a.conn == nil {
		return
	}
	a.conn.Publish(a.conn.NewMessage(
		bus.T("servos", a.spec.ID, "value"),
		types.ServoValue{Duty: duty, On: on, TS: timex.NowMs()},
		true,
	))
}
