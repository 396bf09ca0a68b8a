// Package tritium decodes datagrams from the Tritium CAN-Ethernet bridge.
package tritium

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
)

// magicNumber is the magic number denoting the Tritium UDP packet protocol
// version
const magicNumber = uint64(0x5472697469756)

const (
	// Port the bridge broadcasts and listens on
	Port = 4876

	// UDPPacketLength is (64 + 8 + 8 + 32 + 56 + 8 + 56 + 8) bits
	UDPPacketLength = 30
	// TCPPacketLength is the UDP layout without the bus and client
	// identifiers
	TCPPacketLength = 14
)

// MulticastGroup is the group address the bridge broadcasts to
var MulticastGroup = net.IPv4(239, 255, 60, 60)

var (
	// ErrShortPacket is returned for buffers smaller than the layout
	ErrShortPacket = errors.New("tritium: short packet")
	// ErrBadMagic is returned when the bus identifier does not carry the
	// Tritium magic number
	ErrBadMagic = errors.New("tritium: packet did not contain magic number")
	// ErrNotHeartbeat is returned when decoding a heartbeat from a bridged
	// CAN frame
	ErrNotHeartbeat = errors.New("tritium: not a heartbeat")
)

// Packet represents a UDP packet received from the Tritium
// CAN-Ethernet bridge
type Packet struct {
	// Magic number
	VersionIdentifier uint64
	BusNumber         uint8

	ClientIdentifier uint64

	// CAN arbitration ID
	CanID uint32

	// Flags is a 8-bit field
	// (FlagHeartbeat << 7) | (FlagSettings << 6) | (FlagRtr << 1) | (FlagExtendedID << 0)
	FlagHeartbeat  bool
	FlagSettings   bool
	FlagRtr        bool
	FlagExtendedID bool

	Length uint8
	Data   uint64
}

func decodeFrame(array []byte, tritiumPacket *Packet) {
	// Flags:
	//
	//  * Heartbeat: the datagram is from the bridge itself, rather than a
	//    bridged CAN packet.
	//  * Settings: the datagram contains a setting for the bridge itself
	//  * RTR: the frame is sent as an RTR packet on the physical CAN network.
	//  * Extended ID: the frame uses an extended CAN identifier.
	//
	// Data is padded with 0s to 8 bytes.
	tritiumPacket.CanID = binary.BigEndian.Uint32(array[0:4])

	flags := array[4]
	tritiumPacket.FlagHeartbeat = (flags>>7)&uint8(1) == 1
	tritiumPacket.FlagSettings = (flags>>6)&uint8(1) == 1
	tritiumPacket.FlagRtr = (flags>>1)&uint8(1) == 1
	tritiumPacket.FlagExtendedID = (flags>>0)&uint8(1) == 1

	tritiumPacket.Length = array[5]
	tritiumPacket.Data = binary.BigEndian.Uint64(array[6:14])
}

// ByteArrayTCPToTritiumMessage decodes a frame received over a TCP
// connection to the bridge
func ByteArrayTCPToTritiumMessage(array []byte, tritiumPacket *Packet) error {
	// TCP Packet Layout
	//
	// +-----------------------------+
	// | CAN ID (32 bits)            | 0 - 3
	// +-----------------------------+
	// | Flags (8 bits)              | 4
	// +-----------------------------+
	// | Length (8 bits)             | 5
	// +-----------------------------+
	// | Data (64 bits)              | 6 - 13
	// +-----------------------------+
	if len(array) < TCPPacketLength {
		return fmt.Errorf("%w: %d bytes", ErrShortPacket, len(array))
	}
	decodeFrame(array, tritiumPacket)
	return nil
}

// ByteArrayToTritiumMessage decodes a UDP datagram from the bridge
func ByteArrayToTritiumMessage(array []byte, tritiumPacket *Packet) error {
	// UDP Packet layout:
	//
	// +-----------------------------+
	// | Padding (8 bits)            | 0
	// +-----------------------------+
	// | Bus Identifier (56 bits)    | 1 - 7
	// +-----------------------------+
	// | Padding (8 bits)            | 8
	// +-----------------------------+
	// | Client Identifier (56 bits) | 9 - 15
	// +-----------------------------+
	// | TCP layout                  | 16 - 29
	// +-----------------------------+
	//
	// The bus identifier is the 52 bit magic number followed by the 4 bit
	// bus number. The client identifier is the MAC address of the sender.
	if len(array) < UDPPacketLength {
		return fmt.Errorf("%w: %d bytes", ErrShortPacket, len(array))
	}

	busIdentifier := binary.BigEndian.Uint64(array[0:8])
	tritiumPacket.VersionIdentifier = busIdentifier >> 4
	tritiumPacket.BusNumber = uint8(busIdentifier & (0x0F))

	if tritiumPacket.VersionIdentifier != magicNumber {
		return fmt.Errorf("%w: 0x%x", ErrBadMagic, tritiumPacket.VersionIdentifier)
	}

	tritiumPacket.ClientIdentifier = binary.BigEndian.Uint64(array[8:16])

	decodeFrame(array[16:], tritiumPacket)
	return nil
}

// PacketToNetworkByteArray encodes a Packet into the UDP layout. buff must
// hold at least UDPPacketLength bytes.
func PacketToNetworkByteArray(tritiumPacket *Packet, buff []byte) {
	binary.BigEndian.PutUint64(buff[0:8], (uint64(tritiumPacket.BusNumber))|(tritiumPacket.VersionIdentifier<<4))

	binary.BigEndian.PutUint64(buff[8:16], tritiumPacket.ClientIdentifier)

	binary.BigEndian.PutUint32(buff[16:20], tritiumPacket.CanID)

	flags := uint8(0)
	if tritiumPacket.FlagHeartbeat {
		flags |= (1 << 7)
	}
	if tritiumPacket.FlagSettings {
		flags |= (1 << 6)
	}
	if tritiumPacket.FlagRtr {
		flags |= (1 << 1)
	}
	if tritiumPacket.FlagExtendedID {
		flags |= (1 << 0)
	}
	buff[20] = flags

	buff[21] = tritiumPacket.Length

	binary.BigEndian.PutUint64(buff[22:], tritiumPacket.Data)
}

// Heartbeat is the status a bridge broadcasts about the bus it is on
type Heartbeat struct {
	BusNumber uint8
	// BitrateKbps is the bus bitrate in kbit/s
	BitrateKbps uint16
	MAC         net.HardwareAddr
}

// Bitrate returns the bus bitrate in bit/s
func (h Heartbeat) Bitrate() uint32 {
	return uint32(h.BitrateKbps) * 1000
}

// Heartbeat decodes the heartbeat carried by the packet.
func (p *Packet) Heartbeat() (Heartbeat, error) {
	// Heartbeat Data Layout
	//
	// +-----------------------------+
	// | Bitrate, kbit/s (16 bits)   | 0 - 1
	// +-----------------------------+
	// | Bridge MAC (48 bits)        | 2 - 7
	// +-----------------------------+
	if !p.FlagHeartbeat {
		return Heartbeat{}, ErrNotHeartbeat
	}

	var data [8]byte
	binary.BigEndian.PutUint64(data[:], p.Data)

	return Heartbeat{
		BusNumber:   p.BusNumber,
		BitrateKbps: binary.BigEndian.Uint16(data[0:2]),
		MAC:         net.HardwareAddr(append([]byte(nil), data[2:8]...)),
	}, nil
}
