// Copyright 2017 by Thorsten von Eicken, see LICENSE file

// Package frame provides a read-only view onto a received IEEE 802.15.4 PSDU and an encoder for
// the subset of the MAC header that the receive filter looks at.
//
// A PSDU as delivered by the radio starts with the PHY length byte, followed by the MPDU (the MAC
// frame proper), which ends in a 2-byte FCS. All field offsets in this package are relative to the
// start of the MPDU. Parse checks once that the buffer holds everything the destination fields
// need; the accessors on View can then be used without further checking.
//
// Only the frame control field, the sequence number, the destination PAN ID and the destination
// address are decoded. The destination PAN ID is always read from its fixed offset, independent
// of the addressing mode.
package frame

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	"github.com/tve/ieee802154"
)

var (
	// ErrTruncated is returned when a PSDU is too short to contain the fields implied by its
	// frame control field.
	ErrTruncated = errors.New("frame: truncated")
	// ErrTooLong is returned by Encode when the resulting PSDU would exceed MaxPSDULen.
	ErrTooLong = errors.New("frame: too long")
)

// View is a validated view onto a received PSDU. The zero value is not usable, use Parse.
type View struct {
	mpdu []byte // MAC frame, without the length byte, clipped to the declared length
	fcf  uint16
}

// Parse validates a PSDU whose first byte is the PHY length byte and returns a view onto it.
// The MAC frame is taken to be the shorter of what the length byte declares and what the buffer
// holds. It must contain the frame control field, the sequence number, the destination PAN ID,
// and as many destination address bytes as the destination addressing mode calls for.
func Parse(psdu []byte) (View, error) {
	if len(psdu) < 1 {
		return View{}, errors.Wrap(ErrTruncated, "empty psdu")
	}
	n := int(psdu[0] & lenMask)
	if n > len(psdu)-1 {
		n = len(psdu) - 1
	}
	mpdu := psdu[1 : 1+n]
	if len(mpdu) < OffSeqNum {
		return View{}, errors.Wrapf(ErrTruncated, "%d bytes, no frame control field", len(mpdu))
	}
	v := View{mpdu: mpdu, fcf: binary.LittleEndian.Uint16(mpdu[OffFrameControl:])}
	if need := OffDestAddr + v.DestAddrMode().AddrLen(); len(mpdu) < need {
		return View{}, errors.Wrapf(ErrTruncated, "%d bytes, %s destination needs %d",
			len(mpdu), v.DestAddrMode(), need)
	}
	return v, nil
}

// MPDU returns the MAC frame, excluding the length byte.
func (v View) MPDU() []byte { return v.mpdu }

// Len returns the length of the MAC frame in bytes.
func (v View) Len() int { return len(v.mpdu) }

// FrameControl returns the raw frame control field.
func (v View) FrameControl() uint16 { return v.fcf }

// FrameType returns the frame type bits of the frame control field.
func (v View) FrameType() FrameType { return FrameType(v.fcf & FCFFrameTypeMask) }

// AckRequest reports whether the sender asks for an acknowledgement.
func (v View) AckRequest() bool { return v.fcf&FCFAckRequest != 0 }

// DestAddrMode returns the destination addressing mode.
func (v View) DestAddrMode() AddrMode {
	return AddrMode((v.fcf & FCFDestAddrModeMask) >> fcfDestAddrModeShift)
}

// SeqNum returns the data sequence number.
func (v View) SeqNum() byte { return v.mpdu[OffSeqNum] }

// DestPANID returns the destination PAN ID.
func (v View) DestPANID() (p ieee802154.PANID) {
	copy(p[:], v.mpdu[OffDestPANID:])
	return
}

// DestShortAddr returns the destination short address. It is only meaningful if the destination
// addressing mode is AddrModeShort.
func (v View) DestShortAddr() (a ieee802154.ShortAddr) {
	copy(a[:], v.mpdu[OffDestAddr:])
	return
}

// DestExtAddr returns the destination extended address, or the zero address if the destination
// addressing mode is not AddrModeExtended.
func (v View) DestExtAddr() (a ieee802154.ExtAddr) {
	if v.DestAddrMode() == AddrModeExtended {
		copy(a[:], v.mpdu[OffDestAddr:])
	}
	return
}

func (v View) String() string {
	dst := "-"
	switch v.DestAddrMode() {
	case AddrModeShort:
		dst = v.DestShortAddr().String()
	case AddrModeExtended:
		dst = v.DestExtAddr().String()
	}
	return fmt.Sprintf("%s #%d pan=%s dst=%s %db", v.FrameType(), v.SeqNum(), v.DestPANID(),
		dst, v.Len())
}

// Header describes the MAC header fields produced by Encode. No source address is encoded.
type Header struct {
	Type         FrameType
	AckRequest   bool
	DestAddrMode AddrMode
	SeqNum       byte
	DestPANID    ieee802154.PANID
	DestShort    ieee802154.ShortAddr // used with AddrModeShort
	DestExt      ieee802154.ExtAddr   // used with AddrModeExtended
}

// Encode builds a PSDU: length byte, MAC header, payload and a zeroed FCS placeholder. With
// AddrModeNone or AddrModeReserved the destination PAN ID is still written so the result can be
// fed to the receive filter.
func Encode(h Header, payload []byte) ([]byte, error) {
	addrLen := h.DestAddrMode.AddrLen()
	n := OffDestAddr + addrLen + len(payload) + FCSLen
	if n > MaxPSDULen {
		return nil, errors.Wrapf(ErrTooLong, "%d bytes, max %d", n, MaxPSDULen)
	}

	fcf := uint16(h.Type) & FCFFrameTypeMask
	fcf |= uint16(h.DestAddrMode&3) << fcfDestAddrModeShift
	if h.AckRequest {
		fcf |= FCFAckRequest
	}

	psdu := make([]byte, 1+n)
	psdu[0] = byte(n)
	mpdu := psdu[1:]
	binary.LittleEndian.PutUint16(mpdu[OffFrameControl:], fcf)
	mpdu[OffSeqNum] = h.SeqNum
	copy(mpdu[OffDestPANID:], h.DestPANID[:])
	switch h.DestAddrMode {
	case AddrModeShort:
		copy(mpdu[OffDestAddr:], h.DestShort[:])
	case AddrModeExtended:
		copy(mpdu[OffDestAddr:], h.DestExt[:])
	}
	copy(mpdu[OffDestAddr+addrLen:], payload)
	return psdu, nil
}
