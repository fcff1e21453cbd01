//go:build linux

// boardtest exercises a freshly wired rig without starting the system:
// it sweeps every configured servo off -> on -> off and prints switch
// levels between sweeps, so miswired channels and pins show up at once.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"servoswitch-go/drivers/gpiod"
	"servoswitch-go/drivers/pca9685"
	"servoswitch-go/services/config"
)

const (
	dwell     = 2 * time.Second
	stepDelay = 20 * time.Millisecond
	sweepStep = 10 // microseconds per step
)

func main() {
	var (
		cfgPath = flag.String("config", "", "config file (YAML); empty uses the built-in default")
		chip    = flag.String("chip", "/dev/gpiochip0", "GPIO character device")
		i2cBus  = flag.String("i2c", "", "I2C bus for the PCA9685")
		cycles  = flag.Int("cycles", 0, "sweep cycles to run, 0 = forever")
	)
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "boardtest: config:", err)
			os.Exit(1)
		}
	}

	reader, err := gpiod.Open(gpiod.Config{Chip: *chip, ActiveLow: true, PullUp: true, Consumer: "boardtest"})
	if err != nil {
		fmt.Fprintln(os.Stderr, "boardtest:", err)
		os.Exit(1)
	}
	defer reader.Close()

	writer, err := pca9685.Open(pca9685.Config{Bus: *i2cBus})
	if err != nil {
		fmt.Fprintln(os.Stderr, "boardtest:", err)
		os.Exit(1)
	}
	defer func() {
		for _, s := range cfg.Servos {
			_ = writer.WriteDuty(s.Channel, 0)
		}
		writer.Close()
	}()

	fmt.Printf("boardtest: %d servos, %d switches\n", len(cfg.Servos), len(cfg.Switches))

	for cycle := 1; *cycles == 0 || cycle <= *cycles; cycle++ {
		fmt.Println("---- cycle", cycle, "----")
		printSwitches(reader, cfg)

		for _, s := range cfg.Servos {
			fmt.Printf("servo %s (ch %d): %d -> %d\n", s.ID, s.Channel, s.OffDuty, s.OnDuty)
			sweep(writer, s.Channel, s.OffDuty, s.OnDuty)
			time.Sleep(dwell)
			fmt.Printf("servo %s (ch %d): %d -> %d\n", s.ID, s.Channel, s.OnDuty, s.OffDuty)
			sweep(writer, s.Channel, s.OnDuty, s.OffDuty)
			time.Sleep(dwell)
		}

		printSwitches(reader, cfg)
	}
}

func sweep(w *pca9685.Writer, channel int, from, to uint16) {
	step := int(sweepStep)
	if to < from {
		step = -step
	}
	for d := int(from); (step > 0 && d < int(to)) || (step < 0 && d > int(to)); d += step {
		if err := w.WriteDuty(channel, uint16(d)); err != nil {
			fmt.Println("  write:", err)
			return
		}
		time.Sleep(stepDelay)
	}
	if err := w.WriteDuty(channel, to); err != nil {
		fmt.Println("  write:", err)
	}
}

func printSwitches(r *gpiod.Reader, cfg config.Config) {
	for _, sw := range cfg.Switches {
		v, err := r.ReadPin(sw.Pin)
		if err != nil {
			fmt.Printf("switch %d (pin %d): read error: %v\n", sw.Index, sw.Pin, err)
			continue
		}
		fmt.Printf("switch %d (pin %d): %v\n", sw.Index, sw.Pin, v)
	}
}
