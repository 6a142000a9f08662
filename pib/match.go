// Copyright 2017 by Thorsten von Eicken, see LICENSE file

package pib

import (
	"github.com/tve/ieee802154"
	"github.com/tve/ieee802154/frame"
)

// DestAddrMatches decides whether a received frame is addressed to this node. The psdu starts
// with the PHY length byte.
//
// The destination PAN ID must be this node's PAN ID or the broadcast PAN ID, otherwise the
// destination address is not looked at. A short destination address must be this node's short
// address or the broadcast short address. An extended destination address must be exactly this
// node's extended address, there is no broadcast fallback. Any other destination addressing mode
// never matches.
//
// A frame too short for the fields its addressing mode implies is rejected before anything is
// compared: the result is false with an error wrapping frame.ErrTruncated. A plain mismatch is
// not an error.
func (p *PIB) DestAddrMatches(psdu []byte) (bool, error) {
	v, err := frame.Parse(psdu)
	if err != nil {
		return false, err
	}
	return p.ViewMatches(v), nil
}

// ViewMatches is DestAddrMatches for a frame that has already been parsed.
func (p *PIB) ViewMatches(v frame.View) bool {
	if pan := v.DestPANID(); pan != p.panID && pan != ieee802154.BroadcastPANID {
		return false
	}

	switch v.DestAddrMode() {
	case frame.AddrModeShort:
		dst := v.DestShortAddr()
		return dst == p.shortAddr || dst == ieee802154.BroadcastShortAddr
	case frame.AddrModeExtended:
		return v.DestExtAddr() == p.extAddr
	default:
		return false
	}
}
