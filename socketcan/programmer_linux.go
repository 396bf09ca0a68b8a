package socketcan

import (
	"fmt"
	"net"

	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/karlding/canbittiming/pkg/bittiming"
)

// ProgramTiming writes timing into iface. clockHz must match the clock the
// kernel driver reports for the controller, since the kernel converts the
// quantum length back into a prescaler with its own clock.
func (p Programmer) ProgramTiming(iface string, clockHz uint32, timing bittiming.Solution) error {
	link, err := net.InterfaceByName(iface)
	if err != nil {
		return err
	}

	conn, err := netlink.Dial(unix.NETLINK_ROUTE, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	return p.program(conn, iface, int32(link.Index), NewBitTiming(clockHz, timing))
}

func (p Programmer) program(conn *netlink.Conn, iface string, ifindex int32, bt BitTiming) error {
	msg, err := setBitTimingMessage(ifindex, bt)
	if err != nil {
		return err
	}
	if _, err := conn.Execute(msg); err != nil {
		return fmt.Errorf("setting bit timing on %s: %w", iface, err)
	}

	if p.BringUp {
		if _, err := conn.Execute(setLinkUpMessage(ifindex)); err != nil {
			return fmt.Errorf("bringing up %s: %w", iface, err)
		}
	}
	return nil
}
