package socketcan

import (
	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sys/unix"
)

// include/uapi/linux/if_link.h
const (
	iflaInfoKind = 1 // IFLA_INFO_KIND
	iflaInfoData = 2 // IFLA_INFO_DATA
)

// include/uapi/linux/can/netlink.h
const iflaCANBitTiming = 1 // IFLA_CAN_BITTIMING

// ifInfoMsg is the struct ifinfomsg that starts every RTM_NEWLINK payload.
//
//	struct ifinfomsg {
//	  unsigned char  ifi_family;
//	  unsigned char  __ifi_pad;
//	  unsigned short ifi_type;
//	  int            ifi_index;
//	  unsigned       ifi_flags;
//	  unsigned       ifi_change;
//	};
type ifInfoMsg struct {
	Index  int32
	Flags  uint32
	Change uint32
}

func (m ifInfoMsg) marshal() []byte {
	b := make([]byte, unix.SizeofIfInfomsg)
	b[0] = unix.AF_UNSPEC
	nlenc.PutInt32(b[4:8], m.Index)
	nlenc.PutUint32(b[8:12], m.Flags)
	nlenc.PutUint32(b[12:16], m.Change)
	return b
}

func newLinkMessage(m ifInfoMsg, attrs []byte) netlink.Message {
	return netlink.Message{
		Header: netlink.Header{
			Type:  unix.RTM_NEWLINK,
			Flags: netlink.Request | netlink.Acknowledge,
		},
		Data: append(m.marshal(), attrs...),
	}
}

// setBitTimingMessage is the request `ip link set <dev> type can tq ...`
// sends: IFLA_LINKINFO { IFLA_INFO_KIND "can", IFLA_INFO_DATA {
// IFLA_CAN_BITTIMING } }.
func setBitTimingMessage(ifindex int32, bt BitTiming) (netlink.Message, error) {
	ae := netlink.NewAttributeEncoder()
	ae.Nested(unix.IFLA_LINKINFO, func(nae *netlink.AttributeEncoder) error {
		nae.String(iflaInfoKind, "can")
		nae.Nested(iflaInfoData, func(dae *netlink.AttributeEncoder) error {
			dae.Bytes(iflaCANBitTiming, bt.marshal())
			return nil
		})
		return nil
	})

	attrs, err := ae.Encode()
	if err != nil {
		return netlink.Message{}, err
	}
	return newLinkMessage(ifInfoMsg{Index: ifindex}, attrs), nil
}

func setLinkUpMessage(ifindex int32) netlink.Message {
	return newLinkMessage(ifInfoMsg{Index: ifindex, Flags: unix.IFF_UP, Change: unix.IFF_UP}, nil)
}
