//go:build rp2040

// Firmware entry point for a Pico-based rig: three panel switches on
// GP26..GP28 against ground, four servo outputs on GP2..GP5, onboard LED
// as the heartbeat. Runs the built-in default configuration.
package main

import (
	"context"
	"machine"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"servoswitch-go/bus"
	"servoswitch-go/drivers/rp2"
	"servoswitch-go/services/config"
	"servoswitch-go/services/heartbeat"
	"servoswitch-go/services/system"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	log.Info().Msg("boot")

	cfg := config.Default()

	pins := make([]int, 0, len(cfg.Switches))
	for _, sw := range cfg.Switches {
		pins = append(pins, sw.Pin)
	}
	drv, err := rp2.New(rp2.Config{
		SwitchPins: pins,
		ActiveLow:  true,
		Servos: []rp2.ServoOut{
			{Channel: 0, PWM: machine.PWM1, Pin: machine.GP2},
			{Channel: 1, PWM: machine.PWM1, Pin: machine.GP3},
			{Channel: 2, PWM: machine.PWM2, Pin: machine.GP4},
			{Channel: 3, PWM: machine.PWM2, Pin: machine.GP5},
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("hardware setup")
		blinkForever()
	}

	ctx := context.Background()
	b := bus.NewBus(8)
	clk := clock.New()

	sys, err := system.Build(cfg, drv, b, clk)
	if err != nil {
		log.Error().Err(err).Msg("building system")
		blinkForever()
	}

	config.NewService(cfg).Start(ctx, b.NewConnection("config"))

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	hb := heartbeat.New(b.NewConnection("heartbeat"), clk, cfg.Heartbeat.Interval.D())
	hb.LED = func(on bool) error {
		led.Set(on)
		return nil
	}
	hb.Start(ctx)

	if err := sys.Startup(ctx); err != nil {
		log.Error().Err(err).Msg("startup positioning")
		blinkForever()
	}

	if err := sys.Run(ctx); err != nil {
		log.Error().Err(err).Msg("system stopped")
	}
	blinkForever()
}

// blinkForever signals an unrecoverable fault; the board needs a power
// cycle anyway, so just make it visible.
func blinkForever() {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(100 * time.Millisecond)
	}
}
