//go:build !linux

package socketcan

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/karlding/canbittiming/pkg/bittiming"
)

// ProgramTiming is only available on Linux.
func (p Programmer) ProgramTiming(iface string, clockHz uint32, timing bittiming.Solution) error {
	return fmt.Errorf("socketcan: %s: %w on %s", iface, errors.ErrUnsupported, runtime.GOOS)
}
