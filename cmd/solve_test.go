package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karlding/canbittiming/pkg/bittiming"
	"github.com/karlding/canbittiming/pkg/config"
)

var bus500k = busOptions{clockHz: 16000000, bitrate: 500000, propDelay: 220, tolerance: 25000}

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestRunSolve(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runSolve(&out, solveOptions{bus: bus500k}))

	assert.Equal(t,
		"solution: prescaler=8 tseg1=2 tseg2=1 sjw=1 (4 tq of 500 ns, 500000 bit/s, sample point 75.0%)\n",
		out.String())
}

func TestRunSolveErrors(t *testing.T) {
	tests := []struct {
		name string
		bus  busOptions
		err  error
	}{
		{"bitrate too low", busOptions{clockHz: 16000000, bitrate: 10, propDelay: 220, tolerance: 25000}, bittiming.ErrInvalidConfiguration},
		{"no tolerance", busOptions{clockHz: 16000000, bitrate: 500000, propDelay: 220}, bittiming.ErrInvalidConfiguration},
		{"bitrate too high", busOptions{clockHz: 16000000, bitrate: 8000000, propDelay: 220, tolerance: 1000}, bittiming.ErrNoSolutionFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			assert.ErrorIs(t, runSolve(&out, solveOptions{bus: tt.bus}), tt.err)
			assert.Empty(t, out.String())
		})
	}
}

func TestRunSolveRequiresClock(t *testing.T) {
	bus := bus500k
	bus.clockHz = 0

	assert.Error(t, runSolve(&bytes.Buffer{}, solveOptions{bus: bus}))
}

func TestRunSolveAll(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runSolve(&out, solveOptions{bus: bus500k, all: true}))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "SCORE")

	best := strings.Fields(lines[1])
	assert.Equal(t, []string{"4", "8", "500", "0", "1", "1", "1", "1", "1", "500"}, best)
	second := strings.Fields(lines[2])
	assert.Equal(t, []string{"8", "4", "250", "0", "1", "3", "3", "3", "2", "500"}, second)
}

const solveConfig = `
[[controller]]
name = "CAN1"
interface = "can0"
reference_clock_hz = 16000000

  [controller.timing]
  bittime_autoguess = true
  bitrate = 500000
  oscillator_tolerance_ppm = 25000
  propagation_delay_ns = 220

[[controller]]
name = "CAN2"
interface = "can1"
reference_clock_hz = 16000000

  [controller.timing]
  prescaler = 4
  tseg1 = 5
  tseg2 = 2
  sjw = 2
`

func TestRunSolveConfig(t *testing.T) {
	input := writeFile(t, "in.toml", solveConfig)
	output := filepath.Join(t.TempDir(), "out.toml")

	var out bytes.Buffer
	require.NoError(t, runSolve(&out, solveOptions{configFile: input, outputFile: output}))
	assert.Contains(t, out.String(), "CAN1: prescaler=8 tseg1=2 tseg2=1 sjw=1")
	assert.Contains(t, out.String(), "CAN2 (manual): prescaler=4 tseg1=5 tseg2=2 sjw=2")

	solved, err := config.Load(output)
	require.NoError(t, err)
	assert.Equal(t, bittiming.Solution{Prescaler: 8, TSeg1: 2, TSeg2: 1, SJW: 1}, solved.Controller[0].Timing.Timing())
	assert.Equal(t, bittiming.Solution{Prescaler: 4, TSeg1: 5, TSeg2: 2, SJW: 2}, solved.Controller[1].Timing.Timing())
}

func TestRunSolveConfigNoSolution(t *testing.T) {
	input := writeFile(t, "in.toml", strings.Replace(solveConfig, "bitrate = 500000", "bitrate = 8000000", 1))
	output := filepath.Join(t.TempDir(), "out.toml")

	var out bytes.Buffer
	err := runSolve(&out, solveOptions{configFile: input, outputFile: output})
	assert.ErrorIs(t, err, bittiming.ErrNoSolutionFound)
	assert.Contains(t, out.String(), "CAN2 (manual)")
	assert.NoFileExists(t, output)
}
