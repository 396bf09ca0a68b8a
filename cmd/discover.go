package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"time"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"golang.org/x/net/ipv4"

	"github.com/karlding/canbittiming/pkg/bittiming"
	"github.com/karlding/canbittiming/pkg/tritium"
)

type discoverOptions struct {
	bus     busOptions
	iface   string
	timeout time.Duration
}

var discoverOpts discoverOptions

func init() {
	rootCmd.AddCommand(discoverCommand)

	addBusFlags(discoverCommand.Flags(), &discoverOpts.bus, false)
	discoverCommand.MarkFlagRequired("clock")
	discoverCommand.Flags().StringVarP(&discoverOpts.iface, "interface", "i", "", "Network interface to join the bridge multicast group on")
	discoverCommand.Flags().DurationVarP(&discoverOpts.timeout, "timeout", "t", 5*time.Second, "How long to wait for a heartbeat")
}

var discoverCommand = &cobra.Command{
	Use:   "discover",
	Short: "Solve bit timing for the bus a Tritium bridge is on",
	Long: `Wait for a Tritium CAN-Ethernet bridge heartbeat, read the bus bitrate it
advertises and compute the timing a local controller needs to join that bus.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDiscover(cmd.OutOrStdout(), discoverOpts)
	},
}

func runDiscover(w io.Writer, opts discoverOptions) error {
	if opts.bus.clockHz == 0 {
		return errors.New("--clock must be positive")
	}

	var ifi *net.Interface
	if opts.iface != "" {
		var err error
		if ifi, err = net.InterfaceByName(opts.iface); err != nil {
			return err
		}
	}

	// The Tritium CAN-Ethernet bridge always broadcasts on port 4876
	c, err := net.ListenPacket("udp4", fmt.Sprintf("0.0.0.0:%d", tritium.Port))
	if err != nil {
		return err
	}
	group := &net.UDPAddr{IP: tritium.MulticastGroup}
	p := ipv4.NewPacketConn(c)
	atexit.Register(func() {
		p.LeaveGroup(ifi, group)
		c.Close()
	})

	if err := p.JoinGroup(ifi, group); err != nil {
		return err
	}
	if err := p.SetReadDeadline(time.Now().Add(opts.timeout)); err != nil {
		return err
	}

	hb, err := waitHeartbeat(p)
	if err != nil {
		return fmt.Errorf("waiting for heartbeat: %w", err)
	}
	fmt.Fprintf(w, "bridge %s bus %d: %d bit/s\n", hb.MAC, hb.BusNumber, hb.Bitrate())

	opts.bus.bitrate = hb.Bitrate()
	req := opts.bus.request()
	if err := req.Validate(); err != nil {
		return err
	}
	s, err := bittiming.Solve(req, opts.bus.clockHz)
	if err != nil {
		return err
	}
	printSolution(w, "solution", opts.bus.clockHz, s)
	return nil
}

type packetReader interface {
	ReadFrom(b []byte) (int, *ipv4.ControlMessage, net.Addr, error)
}

// waitHeartbeat reads datagrams until one is a bridge heartbeat, skipping
// bridged frames and anything that does not decode.
func waitHeartbeat(r packetReader) (tritium.Heartbeat, error) {
	b := make([]byte, 1500)
	for {
		n, _, src, err := r.ReadFrom(b)
		if err != nil {
			return tritium.Heartbeat{}, err
		}

		var pkt tritium.Packet
		if err := tritium.ByteArrayToTritiumMessage(b[:n], &pkt); err != nil {
			log.Printf("ignoring datagram from %v: %v", src, err)
			continue
		}
		if hb, err := pkt.Heartbeat(); err == nil {
			return hb, nil
		}
	}
}
