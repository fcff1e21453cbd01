// Package system wires switches to servos: it builds the store, sources
// and actuators from configuration, establishes a known physical position
// at startup, then runs the poll scheduler and dispatches servo moves on
// every change notification.
package system

import (
	"context"
	"fmt"
	"strconv"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"servoswitch-go/bus"
	"servoswitch-go/drivers/hw"
	"servoswitch-go/errcode"
	"servoswitch-go/services/config"
	"servoswitch-go/services/servos"
	"servoswitch-go/services/switches"
	"servoswitch-go/types"
)

type System struct {
	store    *switches.Store
	notify   *switches.Notifier
	poller   *switches.Poller
	src      switches.Source
	acts     map[string]*servos.Actuator
	bindings []types.Binding

	// last is the coordinator's view of the store at its previous wake;
	// only the run loop goroutine touches it.
	last []bool
}

// Build constructs the whole system from configuration. The bus is optional
// (pass nil for a bare hardware rig); without it there are no virtual
// switches and no telemetry.
func Build(cfg config.Config, drv hw.Driver, b *bus.Bus, clk clock.Clock) (*System, error) {
	n := cfg.SwitchCount()
	if n == 0 {
		return nil, fmt.Errorf("system: no switches configured")
	}

	store := switches.NewStore(n)
	notify := switches.NewNotifier()

	var src switches.MultiSource
	if len(cfg.Switches) > 0 {
		src = append(src, switches.NewPinSource(cfg.Switches, drv, clk, cfg.Debounce.D()))
	}
	var pollConn *bus.Connection
	if b != nil {
		pollConn = b.NewConnection("poller")
		if cfg.VirtualSwitches > 0 {
			src = append(src, switches.NewNetSource(b.NewConnection("netsource"), len(cfg.Switches), cfg.VirtualSwitches))
		}
	} else if cfg.VirtualSwitches > 0 {
		return nil, fmt.Errorf("system: virtual switches need a bus")
	}

	bound := make(map[string]bool, len(cfg.Bindings))
	for _, bd := range cfg.Bindings {
		if bd.Switch < 0 || bd.Switch >= n {
			return nil, &errcode.E{C: errcode.OutOfRange, Op: "system", Msg: "binding switch " + strconv.Itoa(bd.Switch)}
		}
		if bound[bd.Servo] {
			return nil, &errcode.E{C: errcode.InvalidParams, Op: "system", Msg: "servo " + bd.Servo + " bound twice"}
		}
		bound[bd.Servo] = true
	}

	acts := make(map[string]*servos.Actuator, len(cfg.Servos))
	for _, spec := range cfg.Servos {
		var conn *bus.Connection
		if b != nil {
			conn = b.NewConnection("servo-" + spec.ID)
		}
		acts[spec.ID] = servos.New(spec, drv, conn, clk, cfg.StepPeriod.D())
	}
	for _, bd := range cfg.Bindings {
		if acts[bd.Servo] == nil {
			return nil, &errcode.E{C: errcode.InvalidParams, Op: "system", Msg: "binding references unknown servo " + bd.Servo}
		}
	}

	s := &System{
		store:    store,
		notify:   notify,
		poller:   switches.NewPoller(src, store, notify, pollConn, clk, cfg.PollInterval.D()),
		src:      src,
		acts:     acts,
		bindings: cfg.Bindings,
		last:     make([]bool, n),
	}
	return s, nil
}

// Actuator returns the actuator for a servo id, or nil.
func (s *System) Actuator(id string) *servos.Actuator { return s.acts[id] }

// Store exposes the switch store for read-only consumers like the console.
func (s *System) Store() *switches.Store { return s.store }

// Startup performs one synchronous scan and sets every bound servo straight
// to the position its switch demands. The position left over from the
// previous power cycle is unknown, so this establishes a defined state
// before motion logic starts.
func (s *System) Startup(ctx context.Context) error {
	readings, err := s.src.Scan(ctx)
	if err != nil {
		return err
	}
	for _, r := range readings {
		if _, err := s.store.Set(r.Index, r.Value); err != nil {
			log.Warn().Int("index", r.Index).Err(err).Msg("dropping startup reading")
		}
	}
	s.last = s.store.Snapshot()

	for _, bd := range s.bindings {
		target := s.last[bd.Switch] != bd.Invert
		demand := 0.0
		if target {
			demand = 1.0
		}
		act := s.acts[bd.Servo]
		if err := act.SetImmediate(demand, true); err != nil {
			return err
		}
		log.Info().
			Str("servo", bd.Servo).
			Int("switch", bd.Switch).
			Bool("on", target).
			Uint16("duty", act.Current()).
			Msg("initial position")
	}
	return nil
}

// Run starts the poll scheduler and loops on the change notification,
// dispatching a motion for every binding whose switch changed since the
// previous wake. Motions run concurrently; the loop never waits for one.
// Run returns on context cancellation or on a fatal scheduler error.
func (s *System) Run(ctx context.Context) error {
	pollErr := make(chan error, 1)
	go func() { pollErr <- s.poller.Run(ctx) }()

	log.Info().Int("switches", s.store.Len()).Int("servos", len(s.acts)).Msg("system running")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-pollErr:
			// No further input is possible; the process should restart.
			return fmt.Errorf("system: poll scheduler stopped: %w", err)
		case <-s.notify.C():
			s.dispatch()
		}
	}
}

// dispatch compares the store against the last observed snapshot and moves
// every servo whose switch flipped. The snapshot is taken once, after the
// notification, so a wake always acts on a complete poll batch.
func (s *System) dispatch() {
	snap := s.store.Snapshot()
	for _, bd := range s.bindings {
		if snap[bd.Switch] == s.last[bd.Switch] {
			continue
		}
		target := snap[bd.Switch] != bd.Invert
		log.Debug().Str("servo", bd.Servo).Int("switch", bd.Switch).Bool("on", target).Msg("dispatch move")
		s.acts[bd.Servo].Move(target)
	}
	s.last = snap
}
