// Copyright 2017 by Thorsten von Eicken, see LICENSE file

// Package pib implements the PAN Information Base of an IEEE 802.15.4 radio driver: the store of
// the node's addressing and radio configuration attributes, and the predicate that decides whether
// a received frame is addressed to this node.
//
// A PIB is owned by the radio driver instance that uses it. Its methods are not concurrency safe:
// all accesses, including DestAddrMatches, are expected to happen on the driver's receive path or
// be serialized by the caller (see package rxfilter).
//
// The PIB stores the promiscuous flag but DestAddrMatches does not look at it. Whether to bypass
// address filtering in promiscuous mode is the caller's decision.
package pib

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/tve/ieee802154"
)

// MaxChannel is the highest channel number that fits the 5-bit channel attribute.
const MaxChannel = 31

// Default attribute values applied by New and Init.
const (
	DefaultChannel     = 11
	DefaultTxPower     = 0 // dBm
	DefaultAutoAck     = true
	DefaultPromiscuous = false
)

var (
	// DefaultPANID is the PAN ID of a node that has not joined a PAN.
	DefaultPANID = ieee802154.PANID{0xff, 0xff}
	// DefaultShortAddr (0xfffe) means that the node has no short address and uses its
	// extended address.
	DefaultShortAddr = ieee802154.ShortAddr{0xfe, 0xff}
)

// ErrChannelRange is returned when setting a channel that does not fit in 5 bits.
var ErrChannelRange = errors.New("pib: channel out of range")

// PIB holds the attributes of one radio.
type PIB struct {
	txPower     int8                 // transmit power in dBm
	panID       ieee802154.PANID     // PAN this node belongs to
	shortAddr   ieee802154.ShortAddr // short address of this node
	extAddr     ieee802154.ExtAddr   // extended address of this node
	promiscuous bool                 // radio is in promiscuous mode
	autoAck     bool                 // auto ACK procedure is enabled
	channel     uint8                // channel on which the node receives, 0..31
}

// New returns a PIB initialized to the default attribute values.
func New() *PIB {
	p := &PIB{}
	p.Init()
	return p
}

// Init resets all attributes to their defaults. Unlike some radio drivers this also resets the
// transmit power, to 0dBm.
func (p *PIB) Init() {
	p.txPower = DefaultTxPower
	p.panID = DefaultPANID
	p.shortAddr = DefaultShortAddr
	p.extAddr = ieee802154.ExtAddr{}
	p.promiscuous = DefaultPromiscuous
	p.autoAck = DefaultAutoAck
	p.channel = DefaultChannel
}

// Promiscuous returns whether the radio is in promiscuous mode.
func (p *PIB) Promiscuous() bool { return p.promiscuous }

// SetPromiscuous enables or disables promiscuous mode.
func (p *PIB) SetPromiscuous(enabled bool) { p.promiscuous = enabled }

// AutoAck returns whether received frames are acknowledged automatically.
func (p *PIB) AutoAck() bool { return p.autoAck }

// SetAutoAck enables or disables automatic acknowledgements.
func (p *PIB) SetAutoAck(enabled bool) { p.autoAck = enabled }

// Channel returns the channel on which the node receives.
func (p *PIB) Channel() uint8 { return p.channel }

// SetChannel changes the receive channel. Channels above MaxChannel are rejected with
// ErrChannelRange and leave the current channel in place.
func (p *PIB) SetChannel(channel uint8) error {
	if channel > MaxChannel {
		return errors.Wrapf(ErrChannelRange, "%d > %d", channel, MaxChannel)
	}
	p.channel = channel
	return nil
}

// TxPower returns the transmit power in dBm.
func (p *PIB) TxPower() int8 { return p.txPower }

// SetTxPower sets the transmit power in dBm.
func (p *PIB) SetTxPower(dbm int8) { p.txPower = dbm }

// PANID returns the PAN ID of this node.
func (p *PIB) PANID() ieee802154.PANID { return p.panID }

// SetPANID sets the PAN ID of this node.
func (p *PIB) SetPANID(id ieee802154.PANID) { p.panID = id }

// ShortAddr returns the short address of this node.
func (p *PIB) ShortAddr() ieee802154.ShortAddr { return p.shortAddr }

// SetShortAddr sets the short address of this node.
func (p *PIB) SetShortAddr(addr ieee802154.ShortAddr) { p.shortAddr = addr }

// ExtAddr returns the extended address of this node.
func (p *PIB) ExtAddr() ieee802154.ExtAddr { return p.extAddr }

// SetExtAddr sets the extended address of this node.
func (p *PIB) SetExtAddr(addr ieee802154.ExtAddr) { p.extAddr = addr }

// Attributes is a copy of all PIB attributes, used to report and load configuration.
type Attributes struct {
	TxPower     int8                 `json:"tx_power" yaml:"tx_power"`
	PANID       ieee802154.PANID     `json:"pan_id" yaml:"pan_id"`
	ShortAddr   ieee802154.ShortAddr `json:"short_address" yaml:"short_address"`
	ExtAddr     ieee802154.ExtAddr   `json:"extended_address" yaml:"extended_address"`
	Promiscuous bool                 `json:"promiscuous" yaml:"promiscuous"`
	AutoAck     bool                 `json:"auto_ack" yaml:"auto_ack"`
	Channel     uint8                `json:"channel" yaml:"channel"`
}

// Defaults returns the attribute values of a freshly initialized PIB.
func Defaults() Attributes { return New().Snapshot() }

// Snapshot returns a copy of the current attributes.
func (p *PIB) Snapshot() Attributes {
	return Attributes{
		TxPower:     p.txPower,
		PANID:       p.panID,
		ShortAddr:   p.shortAddr,
		ExtAddr:     p.extAddr,
		Promiscuous: p.promiscuous,
		AutoAck:     p.autoAck,
		Channel:     p.channel,
	}
}

// Load overwrites all attributes with a. The channel is checked first so a rejected Load
// changes nothing.
func (p *PIB) Load(a Attributes) error {
	if err := p.SetChannel(a.Channel); err != nil {
		return err
	}
	p.txPower = a.TxPower
	p.panID = a.PANID
	p.shortAddr = a.ShortAddr
	p.extAddr = a.ExtAddr
	p.promiscuous = a.Promiscuous
	p.autoAck = a.AutoAck
	return nil
}

func (a Attributes) String() string {
	return fmt.Sprintf("pan=%s short=%s ext=%s ch=%d power=%ddBm promisc=%t autoack=%t",
		a.PANID, a.ShortAddr, a.ExtAddr, a.Channel, a.TxPower, a.Promiscuous, a.AutoAck)
}
