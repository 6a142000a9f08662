// Copyright 2017 by Thorsten von Eicken, see LICENSE file

package ieee802154

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Identifiers are stored in transmission byte order, i.e., least significant byte first, which
// is how they appear in a frame. The String and Uint conversions use the conventional
// most-significant-first notation, so PANID{0x34, 0x12} prints as 0x1234.

const (
	PANIDSize     = 2 // bytes in a PAN identifier
	ShortAddrSize = 2 // bytes in a short address
	ExtAddrSize   = 8 // bytes in an extended (EUI-64) address
)

// PANID is a 2-byte PAN identifier.
type PANID [PANIDSize]byte

// ShortAddr is a 2-byte short MAC address.
type ShortAddr [ShortAddrSize]byte

// ExtAddr is an 8-byte extended MAC address.
type ExtAddr [ExtAddrSize]byte

var (
	// BroadcastPANID is accepted by every node regardless of its own PAN ID.
	BroadcastPANID = PANID{0xff, 0xff}
	// BroadcastShortAddr is accepted by every node regardless of its own short address.
	// There is no broadcast form of an extended address.
	BroadcastShortAddr = ShortAddr{0xff, 0xff}
)

// PANIDFromUint16 returns the PAN ID with numeric value v.
func PANIDFromUint16(v uint16) (p PANID) {
	binary.LittleEndian.PutUint16(p[:], v)
	return
}

// Uint16 returns the numeric value of the PAN ID.
func (p PANID) Uint16() uint16 { return binary.LittleEndian.Uint16(p[:]) }

func (p PANID) String() string { return fmt.Sprintf("0x%04x", p.Uint16()) }

// MarshalText implements encoding.TextMarshaler.
func (p PANID) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PANID) UnmarshalText(text []byte) error {
	v, err := parse16(string(text))
	if err != nil {
		return errors.Wrap(err, "ieee802154: invalid PAN ID")
	}
	*p = PANIDFromUint16(v)
	return nil
}

// ShortAddrFromUint16 returns the short address with numeric value v.
func ShortAddrFromUint16(v uint16) (a ShortAddr) {
	binary.LittleEndian.PutUint16(a[:], v)
	return
}

// Uint16 returns the numeric value of the short address.
func (a ShortAddr) Uint16() uint16 { return binary.LittleEndian.Uint16(a[:]) }

func (a ShortAddr) String() string { return fmt.Sprintf("0x%04x", a.Uint16()) }

// MarshalText implements encoding.TextMarshaler.
func (a ShortAddr) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *ShortAddr) UnmarshalText(text []byte) error {
	v, err := parse16(string(text))
	if err != nil {
		return errors.Wrap(err, "ieee802154: invalid short address")
	}
	*a = ShortAddrFromUint16(v)
	return nil
}

// ExtAddrFromUint64 returns the extended address with numeric value v.
func ExtAddrFromUint64(v uint64) (a ExtAddr) {
	binary.LittleEndian.PutUint64(a[:], v)
	return
}

// Uint64 returns the numeric value of the extended address.
func (a ExtAddr) Uint64() uint64 { return binary.LittleEndian.Uint64(a[:]) }

// String formats the address as 16 hex digits, most significant byte first.
func (a ExtAddr) String() string { return fmt.Sprintf("%016x", a.Uint64()) }

// MarshalText implements encoding.TextMarshaler.
func (a ExtAddr) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. It accepts 16 hex digits, optionally
// separated by colons or dashes and optionally prefixed with 0x.
func (a *ExtAddr) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(strings.ToLower(string(text)), "0x")
	s = strings.NewReplacer(":", "", "-", "").Replace(s)
	if len(s) != 2*ExtAddrSize {
		return errors.Errorf("ieee802154: invalid extended address %q: need %d hex digits",
			text, 2*ExtAddrSize)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return errors.Wrapf(err, "ieee802154: invalid extended address %q", text)
	}
	*a = ExtAddrFromUint64(binary.BigEndian.Uint64(b))
	return nil
}

// parse16 parses a 16-bit identifier written as 0x-prefixed hex or decimal.
func parse16(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	return uint16(v), err
}
