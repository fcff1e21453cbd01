// Package config loads the switch/servo wiring description and publishes it
// over the bus as retained sections for services that tune themselves at
// runtime.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"servoswitch-go/types"
	"servoswitch-go/x/strx"
)

type Config struct {
	PollInterval types.Duration `yaml:"poll_interval"`
	StepPeriod   types.Duration `yaml:"step_period"`
	Debounce     types.Duration `yaml:"debounce"`

	// Switches are hardware pin inputs; VirtualSwitches appends that many
	// network-fed switches after them in the same index space.
	Switches        []types.SwitchPin `yaml:"switches"`
	VirtualSwitches int               `yaml:"virtual_switches"`

	Servos   []types.ServoSpec `yaml:"servos"`
	Bindings []types.Binding   `yaml:"bindings"`

	Network   *types.NetCredentials `yaml:"network,omitempty"`
	Heartbeat types.HeartbeatConfig `yaml:"heartbeat"`
}

// SwitchCount is the total virtual switch index space.
func (c *Config) SwitchCount() int {
	return len(c.Switches) + c.VirtualSwitches
}

// Load reads and validates a config file.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse validates raw YAML into a Config, filling defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = types.Duration(200 * time.Millisecond)
	}
	if cfg.StepPeriod <= 0 {
		cfg.StepPeriod = types.Duration(20 * time.Millisecond)
	}
	if cfg.Debounce < 0 {
		cfg.Debounce = 0
	} else if cfg.Debounce == 0 {
		cfg.Debounce = types.Duration(5 * time.Millisecond)
	}
	if cfg.Heartbeat.Interval <= 0 {
		cfg.Heartbeat.Interval = types.Duration(time.Second)
	}

	seen := map[int]bool{}
	for i, sw := range cfg.Switches {
		if sw.Index != i {
			return Config{}, fmt.Errorf("switches[%d]: index %d out of order (hardware pins fill indices 0..n-1)", i, sw.Index)
		}
		if seen[sw.Pin] {
			return Config{}, fmt.Errorf("switches[%d]: pin %d assigned twice", i, sw.Pin)
		}
		seen[sw.Pin] = true
	}
	if cfg.VirtualSwitches < 0 {
		return Config{}, fmt.Errorf("virtual_switches must not be negative")
	}

	ids := map[string]bool{}
	for i := range cfg.Servos {
		s := &cfg.Servos[i]
		s.ID = strx.Coalesce(s.ID, "servo-"+strconv.Itoa(s.Channel))
		if ids[s.ID] {
			return Config{}, fmt.Errorf("servos[%d]: duplicate id %q", i, s.ID)
		}
		ids[s.ID] = true
		if s.Transit <= 0 {
			s.Transit = types.Duration(time.Second)
		}
	}

	bound := map[string]bool{}
	n := cfg.SwitchCount()
	for i, b := range cfg.Bindings {
		if b.Switch < 0 || b.Switch >= n {
			return Config{}, fmt.Errorf("bindings[%d]: switch %d out of range (have %d)", i, b.Switch, n)
		}
		if !ids[b.Servo] {
			return Config{}, fmt.Errorf("bindings[%d]: unknown servo %q", i, b.Servo)
		}
		if bound[b.Servo] {
			return Config{}, fmt.Errorf("bindings[%d]: servo %q bound twice", i, b.Servo)
		}
		bound[b.Servo] = true
	}

	return cfg, nil
}

// Default returns the embedded default configuration.
func Default() Config {
	cfg, err := Parse([]byte(defaultYAML))
	if err != nil {
		panic("config: bad embedded default: " + err.Error())
	}
	return cfg
}
