// Package heartbeat emits a periodic liveness signal. The interval follows
// the retained config/heartbeat section, and an optional LED callback gives
// the rig a visible pulse.
package heartbeat

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"servoswitch-go/bus"
	"servoswitch-go/types"
)

var topicConfigHeartbeat = bus.T("config", "heartbeat")

type Service struct {
	conn     *bus.Connection
	clk      clock.Clock
	interval time.Duration

	// LED is called with the beat phase on every tick. Nil is fine.
	LED func(on bool) error
}

func New(conn *bus.Connection, clk clock.Clock, interval time.Duration) *Service {
	if interval <= 0 {
		interval = time.Second
	}
	return &Service{conn: conn, clk: clk, interval: interval}
}

// Start runs the beat loop until the context is cancelled.
func (s *Service) Start(ctx context.Context) {
	go s.loop(ctx)
}

func (s *Service) loop(ctx context.Context) {
	var cfgCh <-chan *bus.Message
	if s.conn != nil {
		sub := s.conn.Subscribe(topicConfigHeartbeat)
		defer s.conn.Unsubscribe(sub)
		cfgCh = sub.Channel()
	}

	tick := s.clk.Ticker(s.interval)
	defer tick.Stop()

	on := false
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("heartbeat stopping")
			if s.LED != nil {
				s.LED(false)
			}
			return
		case <-tick.C:
			on = !on
			if s.LED != nil {
				if err := s.LED(on); err != nil {
					log.Warn().Err(err).Msg("heartbeat LED write failed")
				}
			}
			if on {
				log.Debug().Msg("heartbeat")
			}
		case msg := <-cfgCh:
			cfg, ok := msg.Payload.(types.HeartbeatConfig)
			if !ok || cfg.Interval <= 0 {
				log.Warn().Str("topic", msg.Topic.String()).Msg("ignoring bad heartbeat config")
				continue
			}
			s.interval = cfg.Interval.D()
			tick.Reset(s.interval)
			log.Info().Dur("interval", s.interval).Msg("heartbeat interval updated")
		}
	}
}
