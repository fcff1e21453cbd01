//go:build linux

// Package pca9685 drives servo channels through a PCA9685 16-channel PWM
// controller on I2C. The controller runs at the standard 50Hz servo frame;
// duty values (pulse microseconds) are converted to its 12-bit ticks.
package pca9685

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/pca9685"
	"periph.io/x/host/v3"

	"servoswitch-go/drivers/hw"
	"servoswitch-go/x/mathx"
)

const (
	frameMicros = 20_000 // 50Hz servo frame
	ticksPerFrame = 4096
)

type Config struct {
	Bus  string // i2creg bus name, "" for the first available
	Addr uint16 // 0 defaults to 0x40
}

type Writer struct {
	mu  sync.Mutex
	bus i2c.BusCloser
	dev *pca9685.Dev
}

func Open(cfg Config) (*Writer, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("pca9685: host init: %w", err)
	}
	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("pca9685: open i2c: %w", err)
	}
	addr := cfg.Addr
	if addr == 0 {
		addr = 0x40
	}
	dev, err := pca9685.NewI2C(bus, addr)
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("pca9685: probe 0x%02x: %w", addr, err)
	}
	if err := dev.SetPwmFreq(50 * physic.Hertz); err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("pca9685: set 50Hz: %w", err)
	}
	return &Writer{bus: bus, dev: dev}, nil
}

// WriteDuty converts the pulse width to controller ticks and commands the
// channel. Duty 0 stops the pulse entirely.
func (w *Writer) WriteDuty(channel int, duty uint16) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	ticks := mathx.RoundDiv(uint32(duty)*ticksPerFrame, frameMicros)
	if ticks >= ticksPerFrame {
		ticks = ticksPerFrame - 1
	}
	if err := w.dev.SetPwm(channel, 0, gpio.Duty(ticks)); err != nil {
		return &pwmError{channel: channel, err: err}
	}
	return nil
}

func (w *Writer) Close() error {
	return w.bus.Close()
}

var _ hw.DutyWriter = (*Writer)(nil)

type pwmError struct {
	channel int
	err     error
}

func (e *pwmError) Error() string {
	return fmt.Sprintf("pca9685: channel %d: %v", e.channel, e.err)
}

func (e *pwmError) Unwrap() error { return e.err }
