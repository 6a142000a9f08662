// Copyright 2017 by Thorsten von Eicken, see LICENSE file

package frame

// Offsets of the MAC header fields, relative to the start of the MPDU, i.e., not counting the PHY
// length byte that precedes it in a PSDU buffer.
const (
	OffFrameControl = 0
	OffSeqNum       = 2
	OffDestPANID    = 3
	OffDestAddr     = 5
)

const (
	MaxPSDULen = 127 // aMaxPHYPacketSize
	FCSLen     = 2   // frame check sequence appended to every MPDU

	lenMask = 0x7f // top bit of the PHY length byte is reserved
)

// Frame control field bits, as a little-endian uint16.
const (
	FCFFrameTypeMask    = 0x0007
	FCFAckRequest       = 1 << 5
	FCFDestAddrModeMask = 0x0c00

	fcfDestAddrModeShift = 10
)

// FrameType is the 3-bit frame type from the frame control field.
type FrameType byte

const (
	TypeBeacon  FrameType = 0
	TypeData    FrameType = 1
	TypeAck     FrameType = 2
	TypeCommand FrameType = 3
)

var frameTypeNames = map[FrameType]string{
	TypeBeacon: "beacon", TypeData: "data", TypeAck: "ack", TypeCommand: "command",
}

func (t FrameType) String() string {
	if n, ok := frameTypeNames[t]; ok {
		return n
	}
	return "reserved"
}

// AddrMode is a 2-bit addressing mode from the frame control field.
type AddrMode byte

const (
	AddrModeNone     AddrMode = 0 // no address present
	AddrModeReserved AddrMode = 1
	AddrModeShort    AddrMode = 2 // 16-bit short address
	AddrModeExtended AddrMode = 3 // 64-bit extended address
)

func (m AddrMode) String() string {
	switch m {
	case AddrModeNone:
		return "none"
	case AddrModeShort:
		return "short"
	case AddrModeExtended:
		return "extended"
	}
	return "reserved"
}

// AddrLen returns the number of address bytes in a frame using this mode.
func (m AddrMode) AddrLen() int {
	switch m {
	case AddrModeShort:
		return 2
	case AddrModeExtended:
		return 8
	}
	return 0
}
