//go:build linux

// servoswitchd runs the switch-to-servo system on a Linux board: switch
// inputs on the GPIO character device, servo outputs on a PCA9685 over
// I2C. With -sim everything runs against an in-memory driver and the
// console becomes the only input.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"servoswitch-go/bus"
	"servoswitch-go/drivers/gpiod"
	"servoswitch-go/drivers/hw"
	"servoswitch-go/drivers/pca9685"
	"servoswitch-go/services/config"
	"servoswitch-go/services/console"
	"servoswitch-go/services/heartbeat"
	"servoswitch-go/services/system"
)

func main() {
	var (
		cfgPath     = flag.String("config", "", "config file (YAML); empty uses the built-in default")
		sim         = flag.Bool("sim", false, "run against an in-memory driver instead of hardware")
		withConsole = flag.Bool("console", false, "read control commands from stdin")
		chip        = flag.String("chip", "/dev/gpiochip0", "GPIO character device for switch inputs")
		i2cBus      = flag.String("i2c", "", "I2C bus for the PCA9685 (empty picks the first)")
		ledPin      = flag.Int("led", -1, "heartbeat LED GPIO line (-1 disables)")
		debug       = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *cfgPath).Msg("loading config")
		}
	}

	drv, cleanup, err := openDriver(cfg, *sim, *chip, *i2cBus)
	if err != nil {
		log.Fatal().Err(err).Msg("opening hardware")
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := bus.NewBus(16)
	clk := clock.New()

	sys, err := system.Build(cfg, drv, b, clk)
	if err != nil {
		log.Fatal().Err(err).Msg("building system")
	}

	config.NewService(cfg).Start(ctx, b.NewConnection("config"))

	hb := heartbeat.New(b.NewConnection("heartbeat"), clk, cfg.Heartbeat.Interval.D())
	if !*sim && *ledPin >= 0 {
		led, err := gpiod.OpenLED(*chip, *ledPin)
		if err != nil {
			log.Fatal().Err(err).Int("pin", *ledPin).Msg("opening heartbeat LED")
		}
		defer led.Close()
		hb.LED = led.Set
	}
	hb.Start(ctx)

	if err := sys.Startup(ctx); err != nil {
		log.Fatal().Err(err).Msg("startup positioning")
	}

	if *withConsole || *sim {
		con := console.New(b.NewConnection("console"), sys.Store(), os.Stdout)
		go func() {
			if err := con.Run(ctx, os.Stdin); err != nil && err != context.Canceled {
				log.Warn().Err(err).Msg("console stopped")
			}
		}()
	}

	err = sys.Run(ctx)
	stop()
	if err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("system stopped")
		os.Exit(1)
	}
	log.Info().Msg("shutdown")
}

func openDriver(cfg config.Config, sim bool, chip, i2cBus string) (hw.Driver, func(), error) {
	if sim {
		log.Info().Msg("simulation mode, in-memory driver")
		return hw.NewMem(), func() {}, nil
	}

	reader, err := gpiod.Open(gpiod.Config{
		Chip:      chip,
		ActiveLow: true,
		PullUp:    true,
		Consumer:  "servoswitchd",
	})
	if err != nil {
		return nil, nil, err
	}
	writer, err := pca9685.Open(pca9685.Config{Bus: i2cBus})
	if err != nil {
		reader.Close()
		return nil, nil, err
	}

	cleanup := func() {
		// Stop pulsing before releasing the controller.
		for _, s := range cfg.Servos {
			_ = writer.WriteDuty(s.Channel, 0)
		}
		writer.Close()
		reader.Close()
	}
	return hw.Split{PinReader: reader, DutyWriter: writer}, cleanup, nil
}
