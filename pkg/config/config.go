// Package config reads the TOML file describing the CAN controllers on a
// host.
//
//	[[controller]]
//	name = "CAN1"
//	interface = "can0"
//	reference_clock_hz = 16000000
//
//	  [controller.timing]
//	  bittime_autoguess = true
//	  bitrate = 500000
//	  oscillator_tolerance_ppm = 25000
//	  propagation_delay_ns = 220
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/karlding/canbittiming/pkg/bittiming"
)

// ReferenceClockEnv supplies reference_clock_hz for controllers that leave
// it out.
const ReferenceClockEnv = "CANBITTIMING_REFERENCE_CLOCK_HZ"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// ControllerConfig contains the configuration for a single CAN controller
type ControllerConfig struct {
	Name             string `toml:"name"`
	Interface        string `toml:"interface"`
	ReferenceClockHz uint32 `toml:"reference_clock_hz"`

	Timing bittiming.Config `toml:"timing"`
}

// Config contains the representation of a TOML file describing the
// controllers
type Config struct {
	Controller []ControllerConfig `toml:"controller"`
}

// Load decodes path, applies the environment defaults and validates the
// result.
func Load(path string) (*Config, error) {
	var conf Config
	md, err := toml.DecodeFile(path, &conf)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: %s: unknown keys %s", ErrInvalid, path, strings.Join(keys, ", "))
	}

	if err := conf.applyDefaults(); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &conf, nil
}

func (c *Config) applyDefaults() error {
	v, ok := os.LookupEnv(ReferenceClockEnv)
	if !ok || v == "" {
		return nil
	}
	clock, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return fmt.Errorf("%w: %s=%q: %v", ErrInvalid, ReferenceClockEnv, v, err)
	}

	for i := range c.Controller {
		if c.Controller[i].ReferenceClockHz == 0 {
			c.Controller[i].ReferenceClockHz = uint32(clock)
		}
	}
	return nil
}

// Validate checks names and clocks, and the solver inputs of every
// controller that asks for automatic timing.
func (c *Config) Validate() error {
	if len(c.Controller) == 0 {
		return fmt.Errorf("%w: no controllers", ErrInvalid)
	}

	seen := make(map[string]bool, len(c.Controller))
	for i, ctl := range c.Controller {
		if ctl.Name == "" {
			return fmt.Errorf("%w: controller %d has no name", ErrInvalid, i)
		}
		if seen[ctl.Name] {
			return fmt.Errorf("%w: duplicate controller %q", ErrInvalid, ctl.Name)
		}
		seen[ctl.Name] = true

		if ctl.ReferenceClockHz == 0 {
			return fmt.Errorf("%w: %s: reference_clock_hz not set and %s empty", ErrInvalid, ctl.Name, ReferenceClockEnv)
		}
		if ctl.Timing.AutoGuess {
			if err := ctl.Timing.Request().Validate(); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrInvalid, ctl.Name, err)
			}
		}
	}
	return nil
}

// Encode writes the configuration as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
