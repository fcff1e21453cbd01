//go:build linux

// Package gpiod reads switch pins through the Linux GPIO character device.
package gpiod

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"servoswitch-go/drivers/hw"
)

const defaultChip = "/dev/gpiochip0"

type Config struct {
	Chip string // e.g. /dev/gpiochip0
	// ActiveLow treats a low level as "on", matching switches wired to
	// ground with the internal pull-up (maker-board convention).
	ActiveLow bool
	PullUp    bool
	Consumer  string
}

// Reader requests pin lines lazily and caches them for the process lifetime.
type Reader struct {
	cfg  Config
	chip *gpiocdev.Chip

	mu    sync.Mutex
	lines map[int]*gpiocdev.Line
}

func Open(cfg Config) (*Reader, error) {
	if cfg.Chip == "" {
		cfg.Chip = defaultChip
	}
	if cfg.Consumer == "" {
		cfg.Consumer = "servoswitch"
	}
	chip, err := gpiocdev.NewChip(cfg.Chip)
	if err != nil {
		return nil, fmt.Errorf("gpiod: open %s: %w", cfg.Chip, err)
	}
	return &Reader{cfg: cfg, chip: chip, lines: map[int]*gpiocdev.Line{}}, nil
}

func (r *Reader) line(pin int) (*gpiocdev.Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.lines[pin]; ok {
		return l, nil
	}
	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithConsumer(r.cfg.Consumer),
	}
	if r.cfg.PullUp {
		opts = append(opts, gpiocdev.WithPullUp)
	}
	if r.cfg.ActiveLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	l, err := r.chip.RequestLine(pin, opts...)
	if err != nil {
		return nil, fmt.Errorf("gpiod: request line %d: %w", pin, err)
	}
	r.lines[pin] = l
	return l, nil
}

func (r *Reader) ReadPin(pin int) (bool, error) {
	l, err := r.line(pin)
	if err != nil {
		return false, err
	}
	v, err := l.Value()
	if err != nil {
		// A dead line read means the chip went away underneath us.
		return false, hw.ErrUnavailable
	}
	return v != 0, nil
}

func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for pin, l := range r.lines {
		_ = l.Close()
		delete(r.lines, pin)
	}
	return r.chip.Close()
}

var _ hw.PinReader = (*Reader)(nil)

// LED drives one output line, used by the heartbeat service.
type LED struct {
	line *gpiocdev.Line
}

func OpenLED(chipPath string, pin int) (*LED, error) {
	if chipPath == "" {
		chipPath = defaultChip
	}
	chip, err := gpiocdev.NewChip(chipPath)
	if err != nil {
		return nil, fmt.Errorf("gpiod: open %s: %w", chipPath, err)
	}
	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("servoswitch-led"))
	if err != nil {
		_ = chip.Close()
		return nil, fmt.Errorf("gpiod: request led line %d: %w", pin, err)
	}
	_ = chip.Close()
	return &LED{line: line}, nil
}

func (l *LED) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	return l.line.SetValue(v)
}

func (l *LED) Close() error {
	_ = l.line.SetValue(0)
	return l.line.Close()
}
