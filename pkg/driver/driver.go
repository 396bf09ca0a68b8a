// Package driver holds one value per CAN controller unit and applies its bit
// timing through a TimingProgrammer.
package driver

import (
	"errors"
	"fmt"
	"log"

	"github.com/karlding/canbittiming/pkg/bittiming"
)

//go:generate mockgen -destination "mock_programmer_test.go" -package $GOPACKAGE -write_package_comment=false github.com/karlding/canbittiming/pkg/driver TimingProgrammer

// State of a Driver.
type State int

const (
	StateStop State = iota
	StateReady
)

func (s State) String() string {
	switch s {
	case StateStop:
		return "stop"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrNotStopped is returned by Start on a driver that is already running.
var ErrNotStopped = errors.New("driver: not stopped")

// TimingProgrammer writes bit timing into the controller behind iface.
type TimingProgrammer interface {
	ProgramTiming(iface string, clockHz uint32, timing bittiming.Solution) error
}

// Driver is a single controller unit.
type Driver struct {
	Name      string
	Interface string
	// ReferenceClockHz is the controller input clock.
	ReferenceClockHz uint32

	programmer TimingProgrammer
	state      State
	config     bittiming.Config
}

// New returns a stopped driver for the controller behind iface.
func New(name, iface string, clockHz uint32, programmer TimingProgrammer) *Driver {
	return &Driver{
		Name:             name,
		Interface:        iface,
		ReferenceClockHz: clockHz,
		programmer:       programmer,
	}
}

// Start calculates the bit timing described by cfg, programs the controller
// and then writes the timing back into cfg. When either step fails the
// driver stays stopped and cfg is left as it was.
func (d *Driver) Start(cfg *bittiming.Config) error {
	if d.state != StateStop {
		return fmt.Errorf("%s: %w", d.Name, ErrNotStopped)
	}

	next := *cfg
	if err := next.Calculate(d.ReferenceClockHz); err != nil {
		return fmt.Errorf("%s: %w", d.Name, err)
	}
	if !next.AutoGuess {
		log.Printf("%s: using manual bit timing (%v) without range checks", d.Name, next.Timing())
	}

	if err := d.programmer.ProgramTiming(d.Interface, d.ReferenceClockHz, next.Timing()); err != nil {
		return fmt.Errorf("%s: programming %s: %w", d.Name, d.Interface, err)
	}

	*cfg = next
	d.config = next
	d.state = StateReady
	return nil
}

// Stop marks the driver stopped. The controller keeps its last timing.
func (d *Driver) Stop() {
	d.state = StateStop
}

// State reports whether the driver is running.
func (d *Driver) State() State {
	return d.state
}

// Config returns the configuration the driver was started with.
func (d *Driver) Config() bittiming.Config {
	return d.config
}
