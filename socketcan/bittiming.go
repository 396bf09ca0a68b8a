// Package socketcan programs bit timing into Linux SocketCAN interfaces over
// rtnetlink, the same request `ip link set can0 type can tq ...` sends.
package socketcan

import (
	"github.com/mdlayher/netlink/nlenc"

	"github.com/karlding/canbittiming/pkg/bittiming"
)

// sizeofBitTiming is the size of struct can_bittiming.
const sizeofBitTiming = 32

// BitTiming mirrors the kernel's struct can_bittiming.
//
// Taken from the Linux kernel source:
//
//	include/uapi/linux/can/netlink.h
//
//	struct can_bittiming {
//	  __u32 bitrate;      /* Bit-rate in bits/second */
//	  __u32 sample_point; /* Sample point in one-tenth of a percent */
//	  __u32 tq;           /* Time quanta (TQ) in nanoseconds */
//	  __u32 prop_seg;     /* Propagation segment in TQs */
//	  __u32 phase_seg1;   /* Phase buffer segment 1 in TQs */
//	  __u32 phase_seg2;   /* Phase buffer segment 2 in TQs */
//	  __u32 sjw;          /* Synchronisation jump width in TQs */
//	  __u32 brp;          /* Bit-rate prescaler */
//	};
//
// With Bitrate zero and TQ set, the kernel derives the prescaler from TQ and
// its own controller clock and keeps the segments as given.
type BitTiming struct {
	Bitrate     uint32
	SamplePoint uint32
	TQ          uint32
	PropSeg     uint32
	PhaseSeg1   uint32
	PhaseSeg2   uint32
	SJW         uint32
	BRP         uint32
}

// NewBitTiming converts register values for a controller clocked at clockHz.
//
// The kernel wants TSEG1 as propagation and phase 1 separately, only their
// sum matters to the controller. TSEG1 is split evenly with the remainder in
// phase 1, and phase 1 is kept at least SJW long.
func NewBitTiming(clockHz uint32, s bittiming.Solution) BitTiming {
	tseg1 := uint32(s.TSeg1)
	sjw := uint32(s.SJW)

	phase1 := tseg1 - tseg1/2
	if phase1 < sjw {
		phase1 = min(sjw, tseg1)
	}

	return BitTiming{
		TQ:        s.QuantumDurationNs(clockHz),
		PropSeg:   tseg1 - phase1,
		PhaseSeg1: phase1,
		PhaseSeg2: uint32(s.TSeg2),
		SJW:       sjw,
	}
}

func (b BitTiming) marshal() []byte {
	buf := make([]byte, sizeofBitTiming)
	for i, v := range [...]uint32{
		b.Bitrate, b.SamplePoint, b.TQ, b.PropSeg,
		b.PhaseSeg1, b.PhaseSeg2, b.SJW, b.BRP,
	} {
		nlenc.PutUint32(buf[i*4:(i+1)*4], v)
	}
	return buf
}

// Programmer applies bit timing to SocketCAN interfaces. It satisfies
// driver.TimingProgrammer.
type Programmer struct {
	// BringUp sets the link up after the timing has been written. The
	// kernel refuses timing changes on a running interface, so it has to
	// be down before ProgramTiming is called.
	BringUp bool
}
