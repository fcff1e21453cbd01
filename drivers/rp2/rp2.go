//go:build rp2040

// Package rp2 is the on-board driver for RP2040 targets: switch pins read
// through the machine package, servo channels driven by hardware PWM
// slices via the tinygo servo driver.
package rp2

import (
	"machine"

	"tinygo.org/x/drivers/servo"

	"servoswitch-go/drivers/hw"
	"servoswitch-go/errcode"
)

// ServoOut assigns a logical output channel to a PWM slice and pin.
type ServoOut struct {
	Channel int
	PWM     servo.PWM // e.g. machine.PWM1
	Pin     machine.Pin
}

type Config struct {
	// SwitchPins lists the GPIO numbers used as switch inputs.
	SwitchPins []int
	Servos     []ServoOut
	// ActiveLow treats a low level as "on" (pull-up wiring).
	ActiveLow bool
}

type Driver struct {
	pins      map[int]machine.Pin
	servos    map[int]servo.Servo
	activeLow bool
}

func New(cfg Config) (*Driver, error) {
	d := &Driver{
		pins:      make(map[int]machine.Pin, len(cfg.SwitchPins)),
		servos:    make(map[int]servo.Servo, len(cfg.Servos)),
		activeLow: cfg.ActiveLow,
	}
	for _, n := range cfg.SwitchPins {
		p := machine.Pin(n)
		p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
		d.pins[n] = p
	}
	for _, so := range cfg.Servos {
		s, err := servo.New(so.PWM, so.Pin)
		if err != nil {
			return nil, &errcode.E{C: errcode.InvalidParams, Op: "rp2", Msg: "servo pwm setup", Err: err}
		}
		d.servos[so.Channel] = s
	}
	return d, nil
}

func (d *Driver) ReadPin(pin int) (bool, error) {
	p, ok := d.pins[pin]
	if !ok {
		return false, errcode.OutOfRange
	}
	lvl := p.Get()
	if d.activeLow {
		return !lvl, nil
	}
	return lvl, nil
}

func (d *Driver) WriteDuty(channel int, duty uint16) error {
	s, ok := d.servos[channel]
	if !ok {
		return errcode.OutOfRange
	}
	return s.SetMicroseconds(int16(duty))
}

var _ hw.Driver = (*Driver)(nil)
