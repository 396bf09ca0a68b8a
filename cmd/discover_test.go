package cmd

import (
	"errors"
	"net"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/ipv4"

	"github.com/karlding/canbittiming/pkg/tritium"
)

type fakeReader struct {
	datagrams [][]byte
}

func (r *fakeReader) ReadFrom(b []byte) (int, *ipv4.ControlMessage, net.Addr, error) {
	if len(r.datagrams) == 0 {
		return 0, nil, nil, os.ErrDeadlineExceeded
	}
	n := copy(b, r.datagrams[0])
	r.datagrams = r.datagrams[1:]
	return n, nil, &net.UDPAddr{IP: net.IPv4(10, 0, 0, 2), Port: tritium.Port}, nil
}

func datagram(p tritium.Packet) []byte {
	buff := make([]byte, tritium.UDPPacketLength)
	tritium.PacketToNetworkByteArray(&p, buff)
	return buff
}

const tritiumMagic = 0x5472697469756

func TestWaitHeartbeat(t *testing.T) {
	r := &fakeReader{datagrams: [][]byte{
		[]byte("garbage"),
		datagram(tritium.Packet{VersionIdentifier: tritiumMagic, CanID: 0x401, Length: 8}),
		datagram(tritium.Packet{
			VersionIdentifier: tritiumMagic,
			BusNumber:         1,
			FlagHeartbeat:     true,
			Length:            8,
			Data:              0x007d00142d000102,
		}),
	}}

	hb, err := waitHeartbeat(r)
	require.NoError(t, err)
	assert.Equal(t, uint32(125000), hb.Bitrate())
	assert.Equal(t, uint8(1), hb.BusNumber)
	assert.Empty(t, r.datagrams)
}

func TestWaitHeartbeatTimeout(t *testing.T) {
	r := &fakeReader{datagrams: [][]byte{
		datagram(tritium.Packet{VersionIdentifier: tritiumMagic, CanID: 0x401}),
	}}

	_, err := waitHeartbeat(r)
	assert.True(t, errors.Is(err, os.ErrDeadlineExceeded))
}
