// Copyright (c) 2017 by Thorsten von Eicken, see LICENSE file for details

package main

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tve/ieee802154/pib"
)

// Config defines the configuration structure.
type Config struct {
	General struct {
		LogLevel int `mapstructure:"log_level" yaml:"log_level"`
	} `mapstructure:"general" yaml:"general"`

	MQTT MQTTConfig `mapstructure:"mqtt" yaml:"mqtt"`

	PIB PIBConfig `mapstructure:"pib" yaml:"pib"`

	Metrics struct {
		Bind string `mapstructure:"bind" yaml:"bind"` // empty: no metrics endpoint
	} `mapstructure:"metrics" yaml:"metrics"`
}

// MQTTConfig holds the MQTT broker connection settings.
type MQTTConfig struct {
	Server         string        `mapstructure:"server" yaml:"server"`
	Username       string        `mapstructure:"username" yaml:"username"`
	Password       string        `mapstructure:"password" yaml:"password"`
	ClientID       string        `mapstructure:"client_id" yaml:"client_id"`
	QOS            uint8         `mapstructure:"qos" yaml:"qos"`
	Prefix         string        `mapstructure:"prefix" yaml:"prefix"` // topic prefix of the radio
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
}

// PIBConfig holds the initial PIB attributes. Identifiers are written the usual way, e.g.
// pan_id = "0x1234", extended_address = "00:11:22:33:44:55:66:77".
type PIBConfig struct {
	PANID       string `mapstructure:"pan_id" yaml:"pan_id"`
	ShortAddr   string `mapstructure:"short_address" yaml:"short_address"`
	ExtAddr     string `mapstructure:"extended_address" yaml:"extended_address"`
	Channel     int    `mapstructure:"channel" yaml:"channel"`
	TxPower     int    `mapstructure:"tx_power" yaml:"tx_power"` // dBm
	Promiscuous bool   `mapstructure:"promiscuous" yaml:"promiscuous"`
	AutoAck     bool   `mapstructure:"auto_ack" yaml:"auto_ack"`
}

// Attributes parses the configuration into PIB attributes. The channel and tx power are
// range checked here since the config decoder would silently truncate them.
func (c PIBConfig) Attributes() (pib.Attributes, error) {
	a := pib.Attributes{
		Promiscuous: c.Promiscuous,
		AutoAck:     c.AutoAck,
	}
	if c.Channel < 0 || c.Channel > pib.MaxChannel {
		return a, errors.Wrapf(pib.ErrChannelRange, "pib.channel: %d", c.Channel)
	}
	if c.TxPower < math.MinInt8 || c.TxPower > math.MaxInt8 {
		return a, errors.Errorf("pib.tx_power: %d dBm out of range", c.TxPower)
	}
	a.Channel = uint8(c.Channel)
	a.TxPower = int8(c.TxPower)
	if err := a.PANID.UnmarshalText([]byte(c.PANID)); err != nil {
		return a, errors.Wrap(err, "pib.pan_id")
	}
	if err := a.ShortAddr.UnmarshalText([]byte(c.ShortAddr)); err != nil {
		return a, errors.Wrap(err, "pib.short_address")
	}
	if err := a.ExtAddr.UnmarshalText([]byte(c.ExtAddr)); err != nil {
		return a, errors.Wrap(err, "pib.extended_address")
	}
	return a, nil
}

// newPIB returns a PIB loaded with the configured attributes.
func newPIB(c PIBConfig) (*pib.PIB, error) {
	a, err := c.Attributes()
	if err != nil {
		return nil, err
	}
	p := pib.New()
	if err := p.Load(a); err != nil {
		return nil, errors.Wrap(err, "pib.channel")
	}
	return p, nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := yaml.Marshal(&config)
		if err != nil {
			return errors.Wrap(err, "marshal config error")
		}
		cmd.OutOrStdout().Write(b)
		return nil
	},
}
