package config

import (
	"context"

	"servoswitch-go/bus"
)

const configPrefix = "config"

// Service publishes the loaded configuration as retained bus sections, so
// late subscribers (heartbeat, consoles, future tooling) pick them up
// without touching the filesystem.
type Service struct {
	cfg Config
}

func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

func (s *Service) publishSections(conn *bus.Connection) {
	sections := map[string]any{
		"heartbeat": s.cfg.Heartbeat,
		"servos":    s.cfg.Servos,
		"bindings":  s.cfg.Bindings,
	}
	for k, v := range sections {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
}

// Start launches the config publisher in a goroutine.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	go s.publishSections(conn)
}
