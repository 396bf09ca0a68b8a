package bittiming

// Config is the bit timing part of a controller configuration.
//
// With AutoGuess set, Calculate fills Prescaler, TSeg1, TSeg2 and SJW from
// Bitrate, OscillatorTolerancePPM and PropagationDelayNs. Without it the four
// register fields are used as given.
type Config struct {
	// Bitrate in bits per second. Only used with AutoGuess.
	Bitrate uint32 `toml:"bitrate"`
	// OscillatorTolerancePPM is the tolerance budget against the least
	// accurate peer: 3% here and 1% there is 40000. Only used with AutoGuess.
	OscillatorTolerancePPM uint32 `toml:"oscillator_tolerance_ppm"`
	// PropagationDelayNs is the estimated one-way delay; 220 is a fair
	// starting point. Only used with AutoGuess.
	PropagationDelayNs uint16 `toml:"propagation_delay_ns"`

	Prescaler uint16 `toml:"prescaler"`
	TSeg1     uint8  `toml:"tseg1"`
	TSeg2     uint8  `toml:"tseg2"`
	SJW       uint8  `toml:"sjw"`

	AutoGuess bool `toml:"bittime_autoguess"`
}

// Request returns the solver input described by the config.
func (c Config) Request() Request {
	return Request{
		Bitrate:                c.Bitrate,
		PropagationDelayNs:     c.PropagationDelayNs,
		OscillatorTolerancePPM: c.OscillatorTolerancePPM,
	}
}

// Timing returns the register values currently held by the config.
func (c Config) Timing() Solution {
	return Solution{
		Prescaler: c.Prescaler,
		TSeg1:     c.TSeg1,
		TSeg2:     c.TSeg2,
		SJW:       c.SJW,
	}
}

// Calculate solves the bit timing for a controller clocked at clockHz and
// stores it in the register fields. On error the config is left untouched.
//
// Manual timing (AutoGuess false) is not checked against the register
// limits.
func (c *Config) Calculate(clockHz uint32) error {
	if !c.AutoGuess {
		return nil
	}

	s, err := Solve(c.Request(), clockHz)
	if err != nil {
		return err
	}

	c.Prescaler = s.Prescaler
	c.TSeg1 = s.TSeg1
	c.TSeg2 = s.TSeg2
	c.SJW = s.SJW
	return nil
}
