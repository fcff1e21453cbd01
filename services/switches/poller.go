package switches

import (
	"context"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"servoswitch-go/bus"
	"servoswitch-go/types"
	"servoswitch-go/x/timex"
)

// DefaultPollInterval is fast enough that a hand-thrown switch feels
// immediate without busy reading the pins.
const DefaultPollInterval = 200 * time.Millisecond

// Poller samples the input source at a fixed interval, applies the results
// to the store, and raises the change notifier when anything changed. All
// store updates from one cycle land before the notification, so a woken
// consumer always observes a complete batch.
type Poller struct {
	src      Source
	store    *Store
	notify   *Notifier
	conn     *bus.Connection // optional telemetry; may be nil
	clk      clock.Clock
	interval time.Duration
}

func NewPoller(src Source, store *Store, notify *Notifier, conn *bus.Connection, clk clock.Clock, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{src: src, store: store, notify: notify, conn: conn, clk: clk, interval: interval}
}

// Run loops until ctx is cancelled or the source fails systemically.
// A systemic failure is fatal for the whole system: no further input is
// possible, so the error is returned for the coordinator to act on.
func (p *Poller) Run(ctx context.Context) error {
	for {
		if err := p.cycle(ctx); err != nil {
			log.Error().Err(err).Msg("switch scan failed, stopping scheduler")
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.clk.After(p.interval):
		}
	}
}

func (p *Poller) cycle(ctx context.Context) error {
	readings, err := p.src.Scan(ctx)
	if err != nil {
		return err
	}
	anyChanged := false
	for _, r := range readings {
		changed, err := p.store.Set(r.Index, r.Value)
		if err != nil {
			// A stray index must not abort the cycle for other inputs.
			log.Warn().Int("index", r.Index).Err(err).Msg("dropping reading")
			continue
		}
		if changed {
			anyChanged = true
			p.publishValue(r)
		}
	}
	if anyChanged {
		p.notify.Raise()
	}
	return nil
}

func (p *Poller) publishValue(r Reading) {
	if p.conn == nil {
		return
	}
	p.conn.Publish(p.conn.NewMessage(
		bus.T("switches", strconv.Itoa(r.Index), "value"),
		types.SwitchValue{On: r.Value, TS: timex.NowMs()},
		true,
	))
}
