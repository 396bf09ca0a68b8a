package bittiming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateAutoGuess(t *testing.T) {
	cfg := Config{
		Bitrate:                500000,
		OscillatorTolerancePPM: 25000,
		PropagationDelayNs:     220,
		AutoGuess:              true,
	}

	require.NoError(t, cfg.Calculate(16000000))
	assert.Equal(t, uint16(8), cfg.Prescaler)
	assert.Equal(t, uint8(2), cfg.TSeg1)
	assert.Equal(t, uint8(1), cfg.TSeg2)
	assert.Equal(t, uint8(1), cfg.SJW)
}

func TestCalculateManual(t *testing.T) {
	cfg := Config{
		Bitrate:                500000,
		OscillatorTolerancePPM: 25000,
		PropagationDelayNs:     220,
		Prescaler:              4,
		TSeg1:                  5,
		TSeg2:                  2,
		SJW:                    2,
	}

	require.NoError(t, cfg.Calculate(16000000))
	assert.Equal(t, Solution{Prescaler: 4, TSeg1: 5, TSeg2: 2, SJW: 2}, cfg.Timing())
}

func TestCalculateManualSkipsValidation(t *testing.T) {
	// Out of range register values and a bitrate the solver would reject
	// pass through untouched.
	cfg := Config{Prescaler: 4000, TSeg1: 40, TSeg2: 9, SJW: 7}

	assert.NotPanics(t, func() {
		assert.NoError(t, cfg.Calculate(16000000))
	})
	assert.Equal(t, Solution{Prescaler: 4000, TSeg1: 40, TSeg2: 9, SJW: 7}, cfg.Timing())
}

func TestCalculateNoSolutionLeavesConfig(t *testing.T) {
	cfg := Config{
		Bitrate:                8000000,
		OscillatorTolerancePPM: 1000,
		PropagationDelayNs:     220,
		Prescaler:              4,
		TSeg1:                  5,
		TSeg2:                  2,
		SJW:                    2,
		AutoGuess:              true,
	}

	err := cfg.Calculate(16000000)
	assert.ErrorIs(t, err, ErrNoSolutionFound)
	assert.Equal(t, Solution{Prescaler: 4, TSeg1: 5, TSeg2: 2, SJW: 2}, cfg.Timing())
}

func TestCalculateInvalidPanics(t *testing.T) {
	cfg := Config{Bitrate: 500000, AutoGuess: true}

	assert.Panics(t, func() { cfg.Calculate(16000000) })
}
