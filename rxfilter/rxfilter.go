// Copyright 2017 by Thorsten von Eicken, see LICENSE file

// Package rxfilter is the layer between a radio's receive path and its PIB. It serializes access
// to the PIB so configuration changes arriving from other goroutines cannot race with frame
// evaluation, and it implements the promiscuous bypass: in promiscuous mode every frame is
// accepted without consulting the destination-match predicate.
//
// Configuration changes arrive as Commands, which are applied as a whole or not at all.
package rxfilter

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/tve/ieee802154"
	"github.com/tve/ieee802154/pib"
)

// LogPrintf is a function used by the filter to print logging info.
type LogPrintf func(format string, v ...interface{})

// Opts contains options used when creating a Filter.
type Opts struct {
	Logger LogPrintf // function to use for logging, nil disables logging
}

// Decision is the outcome of running a received frame through the filter.
type Decision int

const (
	DecisionNoMatch     Decision = iota // frame is for someone else
	DecisionMatch                       // frame is addressed to this node
	DecisionPromiscuous                 // accepted without looking, promiscuous mode
	DecisionInvalid                     // frame too short to evaluate
)

var decisionNames = []string{"no_match", "match", "promiscuous", "invalid"}

func (d Decision) String() string {
	if d < 0 || int(d) >= len(decisionNames) {
		return "unknown"
	}
	return decisionNames[d]
}

// MarshalText implements encoding.TextMarshaler.
func (d Decision) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Accepted reports whether the frame should be handed on for further processing.
func (d Decision) Accepted() bool { return d == DecisionMatch || d == DecisionPromiscuous }

// Filter owns a PIB and guards it with a mutex.
type Filter struct {
	mu  sync.Mutex
	pib *pib.PIB
	log LogPrintf
}

// New returns a Filter using p. The caller must not touch p directly afterwards, use Do.
func New(p *pib.PIB, opts Opts) *Filter {
	f := &Filter{pib: p, log: func(format string, v ...interface{}) {}}
	if opts.Logger != nil {
		f.log = func(format string, v ...interface{}) {
			opts.Logger("rxfilter: "+format, v...)
		}
	}
	return f
}

// Accept decides whether a received PSDU, starting with the PHY length byte, is for this node.
// A malformed frame yields DecisionInvalid and the error describing it, except in promiscuous
// mode where frames are not looked at.
func (f *Filter) Accept(psdu []byte) (Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, err := f.decide(psdu)
	decisionCounter(d).Inc()
	return d, err
}

func (f *Filter) decide(psdu []byte) (Decision, error) {
	if f.pib.Promiscuous() {
		return DecisionPromiscuous, nil
	}
	ok, err := f.pib.DestAddrMatches(psdu)
	switch {
	case err != nil:
		f.log("dropping malformed frame %#x: %s", psdu, err)
		return DecisionInvalid, err
	case ok:
		return DecisionMatch, nil
	}
	return DecisionNoMatch, nil
}

// Command is a PIB configuration change. Nil fields are left alone. If Reset is set the PIB is
// first returned to its defaults and the other fields are applied on top.
type Command struct {
	Reset       bool                  `json:"reset,omitempty"`
	PANID       *ieee802154.PANID     `json:"pan_id,omitempty"`
	ShortAddr   *ieee802154.ShortAddr `json:"short_address,omitempty"`
	ExtAddr     *ieee802154.ExtAddr   `json:"extended_address,omitempty"`
	Channel     *uint8                `json:"channel,omitempty"`
	TxPower     *int8                 `json:"tx_power,omitempty"`
	Promiscuous *bool                 `json:"promiscuous,omitempty"`
	AutoAck     *bool                 `json:"auto_ack,omitempty"`
}

// Apply applies a configuration command. If any field is invalid nothing changes.
func (f *Filter) Apply(cmd Command) (pib.Attributes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a := f.pib.Snapshot()
	if cmd.Reset {
		a = pib.Defaults()
	}
	if cmd.PANID != nil {
		a.PANID = *cmd.PANID
	}
	if cmd.ShortAddr != nil {
		a.ShortAddr = *cmd.ShortAddr
	}
	if cmd.ExtAddr != nil {
		a.ExtAddr = *cmd.ExtAddr
	}
	if cmd.Channel != nil {
		a.Channel = *cmd.Channel
	}
	if cmd.TxPower != nil {
		a.TxPower = *cmd.TxPower
	}
	if cmd.Promiscuous != nil {
		a.Promiscuous = *cmd.Promiscuous
	}
	if cmd.AutoAck != nil {
		a.AutoAck = *cmd.AutoAck
	}

	if err := f.pib.Load(a); err != nil {
		commandCounter(false).Inc()
		return f.pib.Snapshot(), errors.Wrap(err, "rxfilter: command rejected")
	}
	commandCounter(true).Inc()
	f.log("PIB now %s", a)
	return a, nil
}

// Attributes returns a snapshot of the PIB.
func (f *Filter) Attributes() pib.Attributes {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pib.Snapshot()
}

// Do calls fn with the PIB while holding the filter's lock, for accesses not covered by Apply.
// fn must not retain p.
func (f *Filter) Do(fn func(p *pib.PIB)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f.pib)
}
