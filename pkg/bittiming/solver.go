// Package bittiming picks CAN bit timing register values (prescaler, TSEG1,
// TSEG2 and SJW) for a requested bitrate.
//
// A bit is divided into time quanta (tq). The first quantum is the
// synchronization segment; the rest is split into a propagation segment,
// phase 1 and phase 2, and the bus is sampled between phase 1 and phase 2.
// To follow clock drift the controller may lengthen phase 1 or shorten
// phase 2 by up to SJW quanta per bit. SJW cannot exceed phase 2: a larger
// jump would change a bit that has already been sampled.
package bittiming

import (
	"errors"
	"fmt"
	"log"
)

// Register limits.
const (
	MinBitrate      = 1000
	MinQuantaPerBit = 4
	MaxQuantaPerBit = 25
	MinPrescaler    = 1
	MaxPrescaler    = 1024
	MaxJumpWidth    = 4
	MaxPhase2       = 4
	// TSEG1 (propagation + phase 1) must be below this many quanta.
	TSeg1Limit = 16
)

const nsPerSecond = 1_000_000_000

// resyncBits is the number of bits the jump width has to cover between two
// recessive to dominant edges.
const resyncBits = 10

var (
	// ErrInvalidConfiguration is a caller error: bitrate below MinBitrate,
	// zero propagation delay or zero oscillator tolerance.
	ErrInvalidConfiguration = errors.New("bittiming: invalid configuration")

	// ErrNoSolutionFound is returned when no bit length in
	// [MinQuantaPerBit, MaxQuantaPerBit] satisfies the constraints.
	ErrNoSolutionFound = errors.New("bittiming: no solution found")
)

// Request describes the bus the controller has to join.
type Request struct {
	// Bitrate in bits per second.
	Bitrate uint32
	// PropagationDelayNs is the worst case one-way signal delay. It is
	// rounded up to whole quanta.
	PropagationDelayNs uint16
	// OscillatorTolerancePPM is the combined frequency tolerance between this
	// node and the least accurate peer. Two nodes at 1.25% each give 25000.
	OscillatorTolerancePPM uint32
}

// Validate reports whether the request meets the solver preconditions.
func (r Request) Validate() error {
	switch {
	case r.Bitrate < MinBitrate:
		return fmt.Errorf("%w: bitrate %d below minimum %d", ErrInvalidConfiguration, r.Bitrate, MinBitrate)
	case r.PropagationDelayNs == 0:
		return fmt.Errorf("%w: propagation delay must be positive", ErrInvalidConfiguration)
	case r.OscillatorTolerancePPM == 0:
		return fmt.Errorf("%w: oscillator tolerance must be positive", ErrInvalidConfiguration)
	}
	return nil
}

func (r Request) periodNs() int64 {
	return nsPerSecond / int64(r.Bitrate)
}

// toleranceNs converts the frequency tolerance into nanoseconds per bit:
// T0 - T0/(1 + ppm/1e6), scaled so the division happens last.
func (r Request) toleranceNs() int64 {
	b := int64(r.Bitrate)
	return nsPerSecond/b - (nsPerSecond*1_000_000/b)/(1_000_000+int64(r.OscillatorTolerancePPM))
}

// Candidate is one evaluated (quanta per bit, prescaler) pair.
type Candidate struct {
	QuantaPerBit      uint8
	Prescaler         uint16
	QuantumDurationNs uint32
	// MismatchNs is the per-bit error caused by the integer prescaler.
	MismatchNs  uint32
	ToleranceNs uint32

	PropagationQuanta uint16
	Phase1Quanta      int16
	Phase2Quanta      int16

	SJW               uint8
	RequiredJumpWidth uint8
}

// Score is the value the solver maximizes: the spare jump width scaled by
// the quantum length. The +1 keeps candidates with SJW equal to the
// required width comparable by quantum length.
func (c Candidate) Score() int64 {
	return (int64(c.SJW) - int64(c.RequiredJumpWidth) + 1) * int64(c.QuantumDurationNs)
}

// Solution returns the register values for the candidate.
func (c Candidate) Solution() Solution {
	return Solution{
		Prescaler: c.Prescaler,
		TSeg1:     uint8(int16(c.PropagationQuanta) + c.Phase1Quanta),
		TSeg2:     uint8(c.Phase2Quanta),
		SJW:       c.SJW,
	}
}

// Evaluate computes the candidate for the given bit length and prescaler
// and reports whether it satisfies every register and tolerance
// constraint.
func Evaluate(req Request, clockHz uint32, quantaPerBit uint8, prescaler uint32) (Candidate, bool) {
	if prescaler < MinPrescaler || prescaler > MaxPrescaler || clockHz == 0 {
		return Candidate{}, false
	}

	tq := int64(prescaler) * nsPerSecond / int64(clockHz)
	if tq == 0 {
		return Candidate{}, false
	}

	mismatch := absDiff(tq*int64(quantaPerBit), req.periodNs())
	tolerance := req.toleranceNs()
	// The error accumulates over the bits between resynchronization edges.
	required := ceilDiv(resyncBits*(mismatch+tolerance), tq)

	prop := ceilDiv(int64(req.PropagationDelayNs), tq)
	if prop <= 0 {
		return Candidate{}, false
	}
	remaining := int64(quantaPerBit) - 1 - prop
	phase1 := (remaining + 1) / 2
	phase2 := remaining / 2

	if phase2 <= 0 ||
		phase2 > MaxPhase2 ||
		prop+phase1 >= TSeg1Limit ||
		required > MaxJumpWidth ||
		required > phase2 {
		return Candidate{}, false
	}

	return Candidate{
		QuantaPerBit:      quantaPerBit,
		Prescaler:         uint16(prescaler),
		QuantumDurationNs: uint32(tq),
		MismatchNs:        uint32(mismatch),
		ToleranceNs:       uint32(tolerance),
		PropagationQuanta: uint16(prop),
		Phase1Quanta:      int16(phase1),
		Phase2Quanta:      int16(phase2),
		SJW:               uint8(min(phase2, MaxJumpWidth)),
		RequiredJumpWidth: uint8(required),
	}, true
}

// Candidates returns every accepted candidate in search order: ascending
// quanta per bit, and for each the truncated prescaler before the rounded
// up one.
func Candidates(req Request, clockHz uint32) []Candidate {
	if req.Bitrate == 0 {
		return nil
	}
	var accepted []Candidate
	for q := uint8(MinQuantaPerBit); q <= MaxQuantaPerBit; q++ {
		base := uint64(clockHz) / (uint64(req.Bitrate) * uint64(q))
		for i := uint64(0); i <= 1; i++ {
			p := base + i
			if p > MaxPrescaler {
				continue
			}
			if c, ok := Evaluate(req, clockHz, q, uint32(p)); ok {
				accepted = append(accepted, c)
			}
		}
	}
	return accepted
}

// Best returns the highest scoring candidate. Ties keep the earlier one.
func Best(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score() > best.Score() {
			best = c
		}
	}
	return best, true
}

// Solve searches for the most drift tolerant timing for req on a
// controller clocked at clockHz.
//
// An invalid request or a zero clock is a programming error and panics.
// Callers holding user input should run Request.Validate first.
func Solve(req Request, clockHz uint32) (Solution, error) {
	if err := req.Validate(); err != nil {
		log.Panic(err)
	}
	if clockHz == 0 {
		log.Panicf("%v: reference clock is 0 Hz", ErrInvalidConfiguration)
	}

	best, ok := Best(Candidates(req, clockHz))
	if !ok {
		return Solution{}, fmt.Errorf("%w: %d bit/s from a %d Hz clock with %d ns delay and %d ppm tolerance",
			ErrNoSolutionFound, req.Bitrate, clockHz, req.PropagationDelayNs, req.OscillatorTolerancePPM)
	}
	return best.Solution(), nil
}

// Solution holds the register values for one controller.
type Solution struct {
	Prescaler uint16
	// TSeg1 is propagation plus phase 1, in quanta.
	TSeg1 uint8
	// TSeg2 is phase 2, in quanta.
	TSeg2 uint8
	SJW   uint8
}

// QuantaPerBit includes the synchronization quantum.
func (s Solution) QuantaPerBit() uint32 {
	return 1 + uint32(s.TSeg1) + uint32(s.TSeg2)
}

// QuantumDurationNs is the length of one quantum when clocked at clockHz.
func (s Solution) QuantumDurationNs(clockHz uint32) uint32 {
	return uint32(uint64(s.Prescaler) * nsPerSecond / uint64(clockHz))
}

// Bitrate is the bitrate actually produced from clockHz.
func (s Solution) Bitrate(clockHz uint32) uint32 {
	cycles := uint64(s.Prescaler) * uint64(s.QuantaPerBit())
	if cycles == 0 {
		return 0
	}
	return uint32(uint64(clockHz) / cycles)
}

// SamplePointPermille is the sample point position within the bit, in
// tenths of a percent.
func (s Solution) SamplePointPermille() uint32 {
	return (1 + uint32(s.TSeg1)) * 1000 / s.QuantaPerBit()
}

func (s Solution) String() string {
	return fmt.Sprintf("prescaler=%d tseg1=%d tseg2=%d sjw=%d", s.Prescaler, s.TSeg1, s.TSeg2, s.SJW)
}
