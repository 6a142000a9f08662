// Copyright 2017 by Thorsten von Eicken, see LICENSE file

package rxfilter

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tve/ieee802154"
	"github.com/tve/ieee802154/frame"
	"github.com/tve/ieee802154/pib"
)

var (
	ourPAN   = ieee802154.PANID{0x34, 0x12}
	ourShort = ieee802154.ShortAddr{0x78, 0x56}
)

func newFilter(t *testing.T) (*Filter, *[]string) {
	logs := []string{}
	p := pib.New()
	p.SetPANID(ourPAN)
	p.SetShortAddr(ourShort)
	f := New(p, Opts{Logger: func(format string, v ...interface{}) {
		logs = append(logs, fmt.Sprintf(format, v...))
	}})
	return f, &logs
}

func psduTo(t *testing.T, dst ieee802154.ShortAddr) []byte {
	psdu, err := frame.Encode(frame.Header{Type: frame.TypeData, DestAddrMode: frame.AddrModeShort,
		DestPANID: ourPAN, DestShort: dst}, []byte{1, 2, 3})
	require.NoError(t, err)
	return psdu
}

func TestAccept(t *testing.T) {
	f, _ := newFilter(t)

	d, err := f.Accept(psduTo(t, ourShort))
	require.NoError(t, err)
	assert.Equal(t, DecisionMatch, d)
	assert.True(t, d.Accepted())

	d, err = f.Accept(psduTo(t, ieee802154.ShortAddr{0x99, 0x99}))
	require.NoError(t, err)
	assert.Equal(t, DecisionNoMatch, d)
	assert.False(t, d.Accepted())
}

func TestAcceptInvalid(t *testing.T) {
	f, logs := newFilter(t)
	before := testutil.ToFloat64(decisionCounter(DecisionInvalid))

	d, err := f.Accept([]byte{3, 0x01, 0x08, 0})
	assert.Equal(t, DecisionInvalid, d)
	assert.False(t, d.Accepted())
	assert.True(t, errors.Is(err, frame.ErrTruncated))
	require.Len(t, *logs, 1)
	assert.Contains(t, (*logs)[0], "rxfilter: dropping malformed frame")
	assert.Equal(t, before+1, testutil.ToFloat64(decisionCounter(DecisionInvalid)))
}

func TestPromiscuousBypass(t *testing.T) {
	f, _ := newFilter(t)
	other := psduTo(t, ieee802154.ShortAddr{0x99, 0x99})

	on := true
	_, err := f.Apply(Command{Promiscuous: &on})
	require.NoError(t, err)

	d, err := f.Accept(other)
	require.NoError(t, err)
	assert.Equal(t, DecisionPromiscuous, d)
	assert.True(t, d.Accepted())

	// Even malformed frames are passed on in promiscuous mode.
	d, err = f.Accept([]byte{1, 0})
	require.NoError(t, err)
	assert.Equal(t, DecisionPromiscuous, d)

	off := false
	_, err = f.Apply(Command{Promiscuous: &off})
	require.NoError(t, err)
	d, err = f.Accept(other)
	require.NoError(t, err)
	assert.Equal(t, DecisionNoMatch, d)
}

func TestApply(t *testing.T) {
	f, _ := newFilter(t)

	ch := uint8(20)
	power := int8(-8)
	short := ieee802154.ShortAddr{0x01, 0x00}
	a, err := f.Apply(Command{Channel: &ch, TxPower: &power, ShortAddr: &short})
	require.NoError(t, err)
	assert.Equal(t, uint8(20), a.Channel)
	assert.Equal(t, int8(-8), a.TxPower)
	assert.Equal(t, short, a.ShortAddr)
	assert.Equal(t, ourPAN, a.PANID, "untouched field changed")
	assert.Equal(t, a, f.Attributes())

	d, err := f.Accept(psduTo(t, short))
	require.NoError(t, err)
	assert.Equal(t, DecisionMatch, d)
}

func TestApplyRejectsAtomically(t *testing.T) {
	f, _ := newFilter(t)
	before := f.Attributes()
	rejected := testutil.ToFloat64(commandCounter(false))

	ch := uint8(32)
	pan := ieee802154.PANID{1, 1}
	a, err := f.Apply(Command{Channel: &ch, PANID: &pan})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pib.ErrChannelRange))
	assert.Equal(t, before, a)
	assert.Equal(t, before, f.Attributes())
	assert.Equal(t, rejected+1, testutil.ToFloat64(commandCounter(false)))
}

func TestApplyReset(t *testing.T) {
	f, _ := newFilter(t)

	ch := uint8(26)
	a, err := f.Apply(Command{Reset: true, Channel: &ch})
	require.NoError(t, err)
	want := pib.Defaults()
	want.Channel = 26
	assert.Equal(t, want, a)
}

func TestCommandJSON(t *testing.T) {
	var cmd Command
	require.NoError(t, json.Unmarshal([]byte(
		`{"pan_id":"0xabcd","extended_address":"00:11:22:33:44:55:66:77","channel":15,"auto_ack":false}`),
		&cmd))
	require.NotNil(t, cmd.PANID)
	assert.Equal(t, ieee802154.PANID{0xcd, 0xab}, *cmd.PANID)
	require.NotNil(t, cmd.ExtAddr)
	assert.Equal(t, ieee802154.ExtAddrFromUint64(0x0011223344556677), *cmd.ExtAddr)
	require.NotNil(t, cmd.Channel)
	assert.Equal(t, uint8(15), *cmd.Channel)
	require.NotNil(t, cmd.AutoAck)
	assert.False(t, *cmd.AutoAck)
	assert.Nil(t, cmd.ShortAddr)
	assert.Nil(t, cmd.Promiscuous)
	assert.False(t, cmd.Reset)
}

func TestDecisionString(t *testing.T) {
	for d, s := range map[Decision]string{
		DecisionNoMatch: "no_match", DecisionMatch: "match",
		DecisionPromiscuous: "promiscuous", DecisionInvalid: "invalid", Decision(9): "unknown",
	} {
		assert.Equal(t, s, d.String())
	}
}

func TestConcurrentAccess(t *testing.T) {
	f := New(pib.New(), Opts{})
	match := psduTo(t, ourShort)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			ch := uint8(i % 32)
			f.Apply(Command{Channel: &ch, PANID: &ourPAN, ShortAddr: &ourShort})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			f.Accept(match)
		}
	}()
	wg.Wait()

	d, err := f.Accept(match)
	require.NoError(t, err)
	assert.Equal(t, DecisionMatch, d)
}

func TestDo(t *testing.T) {
	f, _ := newFilter(t)
	f.Do(func(p *pib.PIB) { p.SetAutoAck(false) })
	assert.False(t, f.Attributes().AutoAck)
}
