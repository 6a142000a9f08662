// Copyright (c) 2017 by Thorsten von Eicken, see LICENSE file for details

package main

import (
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tve/ieee802154/frame"
	"github.com/tve/ieee802154/pib"
	"github.com/tve/ieee802154/rxfilter"
)

// RawRxPacket is the structure a radio gateway publishes to <prefix>/rx for each received frame.
type RawRxPacket struct {
	PSDU []byte    `json:"psdu"` // frame as received, starting with the PHY length byte
	Rssi int       `json:"rssi"` // RSSI in dBm for packet, 0 if unknown
	Lqi  int       `json:"lqi"`  // link quality indicator, 0 if unknown
	At   time.Time `json:"at"`   // time of recv interrupt
}

// AcceptedPacket is published to <prefix>/accepted for each frame that passed the filter.
type AcceptedPacket struct {
	RawRxPacket
	Decision rxfilter.Decision `json:"decision"`
	SeqNum   byte              `json:"seq"`
}

// gateway connects the filter to MQTT topics under a prefix.
type gateway struct {
	prefix string
	filter *rxfilter.Filter
	pub    publisher
}

func (g *gateway) rxTopic() string       { return g.prefix + "/rx" }
func (g *gateway) acceptedTopic() string { return g.prefix + "/accepted" }
func (g *gateway) setTopic() string      { return g.prefix + "/pib/set" }
func (g *gateway) stateTopic() string    { return g.prefix + "/pib/state" }

// handleRx runs a received frame through the filter and republishes it if accepted.
func (g *gateway) handleRx(payload []byte) {
	var pkt RawRxPacket
	if err := json.Unmarshal(payload, &pkt); err != nil {
		badMessageCounter("rx").Inc()
		log.WithError(err).WithField("topic", g.rxTopic()).Error("gateway: cannot decode rx packet")
		return
	}

	d, err := g.filter.Accept(pkt.PSDU)
	if err != nil {
		log.WithError(err).WithField("psdu", pkt.PSDU).Warning("gateway: invalid frame")
		return
	}
	if !d.Accepted() {
		log.WithField("decision", d).Debug("gateway: frame dropped")
		return
	}

	out := AcceptedPacket{RawRxPacket: pkt, Decision: d}
	if v, err := frame.Parse(pkt.PSDU); err == nil {
		out.SeqNum = v.SeqNum()
		log.WithFields(log.Fields{"decision": d, "frame": v}).Debug("gateway: frame accepted")
	}
	if err := g.pub.Publish(g.acceptedTopic(), false, out); err != nil {
		log.WithError(err).Error("gateway: publish accepted frame error")
	}
}

// handleSet applies a PIB command and publishes the resulting state.
func (g *gateway) handleSet(payload []byte) {
	var cmd rxfilter.Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		badMessageCounter("set").Inc()
		log.WithError(err).WithField("topic", g.setTopic()).Error("gateway: cannot decode pib command")
		return
	}
	a, err := g.filter.Apply(cmd)
	if err != nil {
		log.WithError(err).Warning("gateway: pib command rejected")
	} else {
		log.WithField("pib", a).Info("gateway: pib updated")
	}
	g.publishState(a)
}

// publishState publishes the PIB attributes, retained so late subscribers see them.
func (g *gateway) publishState(a pib.Attributes) {
	if err := g.pub.Publish(g.stateTopic(), true, a); err != nil {
		log.WithError(err).Error("gateway: publish pib state error")
	}
}
