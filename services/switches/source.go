package switches

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"servoswitch-go/drivers/hw"
	"servoswitch-go/errcode"
	"servoswitch-go/types"
)

// Reading is one sampled switch value.
type Reading struct {
	Index int
	Value bool
}

// Source produces switch states. A scan visits every configured input and
// returns the values it could sample; inputs that failed or bounced are
// simply absent, which retains their previous stored state. A returned
// error is systemic (the driver is gone) and fatal to the scheduler.
type Source interface {
	Scan(ctx context.Context) ([]Reading, error)
}

// -----------------------------------------------------------------------------
// Hardware pins
// -----------------------------------------------------------------------------

// PinSource samples physical switch pins with a read-settle-reread debounce:
// a sample only counts when two reads one settle interval apart agree.
type PinSource struct {
	pins   []types.SwitchPin
	drv    hw.PinReader
	clk    clock.Clock
	settle time.Duration
}

func NewPinSource(pins []types.SwitchPin, drv hw.PinReader, clk clock.Clock, settle time.Duration) *PinSource {
	return &PinSource{pins: pins, drv: drv, clk: clk, settle: settle}
}

func (p *PinSource) Scan(ctx context.Context) ([]Reading, error) {
	out := make([]Reading, 0, len(p.pins))
	for _, sp := range p.pins {
		v1, err := p.drv.ReadPin(sp.Pin)
		if err != nil {
			if errcode.Is(err, errcode.DriverFatal) {
				return nil, err
			}
			log.Debug().Int("pin", sp.Pin).Err(err).Msg("switch read failed, retaining state")
			continue
		}
		if p.settle > 0 {
			p.clk.Sleep(p.settle)
			v2, err := p.drv.ReadPin(sp.Pin)
			if err != nil {
				if errcode.Is(err, errcode.DriverFatal) {
					return nil, err
				}
				log.Debug().Int("pin", sp.Pin).Err(err).Msg("switch reread failed, retaining state")
				continue
			}
			if v1 != v2 {
				// Mid-bounce; the next cycle will catch the stable value.
				continue
			}
		}
		out = append(out, Reading{Index: sp.Index, Value: v1})
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Network-fed virtual switches
// -----------------------------------------------------------------------------

// NetSource serves virtual switches set over the bus. Whatever transport
// terminates the network request publishes switches/virtual/<i>/set; the
// source caches the latest value per index and hands it out on scan.
type NetSource struct {
	base, count int
	sub         *subCache
}

// NewNetSource creates a source covering count switches starting at index
// base, fed from conn.
func NewNetSource(conn Subscriber, base, count int) *NetSource {
	return &NetSource{base: base, count: count, sub: newSubCache(conn, base, count)}
}

func (n *NetSource) Scan(ctx context.Context) ([]Reading, error) {
	n.sub.drain()
	vals := n.sub.snapshot()
	out := make([]Reading, 0, len(vals))
	for i, v := range vals {
		if v == nil {
			continue // never set; retain store state
		}
		out = append(out, Reading{Index: n.base + i, Value: *v})
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Composite
// -----------------------------------------------------------------------------

// MultiSource lays several sources over one index space, hardware pins and
// virtual switches side by side.
type MultiSource []Source

func (m MultiSource) Scan(ctx context.Context) ([]Reading, error) {
	var out []Reading
	for _, src := range m {
		r, err := src.Scan(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, r...)
	}
	return out, nil
}
