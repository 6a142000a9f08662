// Copyright 2017 by Thorsten von Eicken, see LICENSE file

package frame

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tve/ieee802154"
)

var encodings = map[string]struct {
	hdr     Header
	payload []byte
	psdu    []byte
}{
	"short": {
		Header{Type: TypeData, DestAddrMode: AddrModeShort, SeqNum: 7,
			DestPANID: ieee802154.PANID{0x34, 0x12}, DestShort: ieee802154.ShortAddr{0x78, 0x56}},
		[]byte{0xaa},
		[]byte{10, 0x01, 0x08, 7, 0x34, 0x12, 0x78, 0x56, 0xaa, 0, 0},
	},
	"extended ack": {
		Header{Type: TypeCommand, AckRequest: true, DestAddrMode: AddrModeExtended, SeqNum: 1,
			DestPANID: ieee802154.BroadcastPANID,
			DestExt:   ieee802154.ExtAddr{1, 2, 3, 4, 5, 6, 7, 8}},
		nil,
		[]byte{15, 0x23, 0x0c, 1, 0xff, 0xff, 1, 2, 3, 4, 5, 6, 7, 8, 0, 0},
	},
	"no address": {
		Header{Type: TypeBeacon, DestAddrMode: AddrModeNone, SeqNum: 0xfe,
			DestPANID: ieee802154.PANID{0xcd, 0xab}},
		[]byte{1, 2},
		[]byte{9, 0x00, 0x00, 0xfe, 0xcd, 0xab, 1, 2, 0, 0},
	},
}

func TestEncode(t *testing.T) {
	for n, tc := range encodings {
		got, err := Encode(tc.hdr, tc.payload)
		require.NoError(t, err, n)
		assert.Equal(t, tc.psdu, got, "encoding %s", n)
	}
}

func TestParse(t *testing.T) {
	for n, tc := range encodings {
		v, err := Parse(tc.psdu)
		require.NoError(t, err, n)
		assert.Equal(t, tc.hdr.Type, v.FrameType(), n)
		assert.Equal(t, tc.hdr.AckRequest, v.AckRequest(), n)
		assert.Equal(t, tc.hdr.DestAddrMode, v.DestAddrMode(), n)
		assert.Equal(t, tc.hdr.SeqNum, v.SeqNum(), n)
		assert.Equal(t, tc.hdr.DestPANID, v.DestPANID(), n)
		assert.Equal(t, int(tc.psdu[0]), v.Len(), n)
		assert.Equal(t, tc.psdu[1:], v.MPDU(), n)
		switch tc.hdr.DestAddrMode {
		case AddrModeShort:
			assert.Equal(t, tc.hdr.DestShort, v.DestShortAddr(), n)
		case AddrModeExtended:
			assert.Equal(t, tc.hdr.DestExt, v.DestExtAddr(), n)
		default:
			assert.Equal(t, ieee802154.ExtAddr{}, v.DestExtAddr(), n)
		}
	}
}

var truncated = map[string][]byte{
	"nil":                nil,
	"length only":        {0},
	"one fcf byte":       {1, 0x01},
	"no pan id":          {3, 0x01, 0x08, 7},
	"half short addr":    {6, 0x01, 0x08, 7, 0x34, 0x12, 0x78},
	"half ext addr":      {9, 0x01, 0x0c, 7, 0x34, 0x12, 1, 2, 3, 4},
	"length byte lies":   {2, 0x01, 0x08, 7, 0x34, 0x12, 0x78, 0x56},
	"buffer shorter":     {20, 0x01, 0x0c, 7, 0x34, 0x12, 1, 2, 3},
	"none without panid": {4, 0x01, 0x00, 7, 0x34},
}

func TestParseTruncated(t *testing.T) {
	for n, psdu := range truncated {
		_, err := Parse(psdu)
		require.Error(t, err, n)
		assert.True(t, errors.Is(err, ErrTruncated), "%s: %v", n, err)
	}
}

func TestParseClipsToLengthByte(t *testing.T) {
	// Trailing garbage after the declared frame is ignored.
	psdu := []byte{7, 0x01, 0x08, 7, 0x34, 0x12, 0x78, 0x56, 0xee, 0xee}
	v, err := Parse(psdu)
	require.NoError(t, err)
	assert.Equal(t, 7, v.Len())
	assert.Equal(t, ieee802154.ShortAddr{0x78, 0x56}, v.DestShortAddr())

	// The reserved top bit of the length byte is ignored.
	psdu[0] |= 0x80
	v, err = Parse(psdu)
	require.NoError(t, err)
	assert.Equal(t, 7, v.Len())
}

func TestEncodeTooLong(t *testing.T) {
	_, err := Encode(Header{DestAddrMode: AddrModeExtended}, make([]byte, MaxPSDULen))
	assert.True(t, errors.Is(err, ErrTooLong))

	psdu, err := Encode(Header{DestAddrMode: AddrModeShort}, make([]byte, MaxPSDULen-9))
	require.NoError(t, err)
	assert.Len(t, psdu, MaxPSDULen+1)
}

func TestString(t *testing.T) {
	v, err := Parse(encodings["short"].psdu)
	require.NoError(t, err)
	assert.Equal(t, "data #7 pan=0x1234 dst=0x5678 10b", v.String())
	assert.Equal(t, "reserved", AddrModeReserved.String())
	assert.Equal(t, "reserved", FrameType(5).String())
}
