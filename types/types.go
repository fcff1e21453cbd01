package types

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration unmarshals YAML values like "200ms" or "1.5s". The zero value
// means unset; loaders substitute their defaults for it.
type Duration time.Duration

func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalYAML() (any, error) { return time.Duration(d).String(), nil }

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(v)
	return nil
}

// ---- Servo specification ----

// Duty values are pulse widths in microseconds within the 50Hz servo frame.
// Calibration bounds may be given in either order; OffDuty is the pulse for
// the logical "off" position and OnDuty for "on".
type ServoSpec struct {
	ID      string   `yaml:"id"`
	Channel int      `yaml:"channel"`
	OffDuty uint16   `yaml:"off_duty"`
	OnDuty  uint16   `yaml:"on_duty"`
	Transit Duration `yaml:"transit"`
	// IdleOff drops the output pulse to zero once a motion has settled,
	// to stop servo hum. The commanded duty keeps the calibrated bound.
	IdleOff bool `yaml:"idle_off,omitempty"`
}

// ---- Switch input bindings ----

// SwitchPin maps a physical GPIO pin to a virtual switch index.
type SwitchPin struct {
	Index int `yaml:"index"`
	Pin   int `yaml:"pin"`
}

// Binding pairs a virtual switch with a servo. Several bindings may share
// one switch; a servo may appear in at most one binding.
type Binding struct {
	Switch int    `yaml:"switch"`
	Servo  string `yaml:"servo"`
	Invert bool   `yaml:"invert,omitempty"`
}

// ---- Network input transport ----

// NetCredentials establish connectivity for the network switch source.
// The transport itself is undecided; only the record shape is fixed.
type NetCredentials struct {
	SSID    string `yaml:"ssid"`
	PSK     string `yaml:"psk"`
	Country string `yaml:"country"` // two-letter regulatory domain
}

// ---- Bus payloads ----

// SwitchValue is published retained under switches/<i>/value.
type SwitchValue struct {
	On bool  `json:"on"`
	TS int64 `json:"ts_ms"`
}

// SwitchSet is the control payload for switches/virtual/<i>/set.
type SwitchSet struct {
	On bool `json:"on"`
}

// ServoValue is published retained under servos/<id>/value.
type ServoValue struct {
	Duty uint16 `json:"duty"`
	On   bool   `json:"on"`
	TS   int64  `json:"ts_ms"`
}

// HeartbeatConfig adjusts the heartbeat service via config/heartbeat.
type HeartbeatConfig struct {
	Interval Duration `yaml:"interval" json:"interval"`
}
