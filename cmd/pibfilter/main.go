// Copyright (c) 2017 by Thorsten von Eicken, see LICENSE file for details

// Pibfilter is a receive filter for IEEE 802.15.4 radio gateways. It subscribes to the raw frames
// a radio gateway publishes to MQTT, runs each one through a PIB-based destination filter, and
// republishes the frames addressed to the configured node. The PIB can be reconfigured at runtime
// by publishing commands to MQTT.
package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev" // set at build time using -ldflags

var (
	cfgFile string
	config  Config
)

var rootCmd = &cobra.Command{
	Use:   "pibfilter",
	Short: "IEEE 802.15.4 PIB receive filter",
	Long: `pibfilter subscribes to raw 802.15.4 frames on MQTT, keeps those addressed to the
configured node according to its PAN Information Base, and republishes them.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to configuration file (optional)")
	rootCmd.PersistentFlags().Int("log-level", 4, "debug=5, info=4, error=2, fatal=1, panic=0")
	rootCmd.PersistentFlags().String("mqtt", "tcp://localhost:1883", "MQTT broker URL")
	rootCmd.PersistentFlags().String("prefix", "radio/0", "MQTT topic prefix of the radio")

	viper.BindPFlag("general.log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("mqtt.server", rootCmd.PersistentFlags().Lookup("mqtt"))
	viper.BindPFlag("mqtt.prefix", rootCmd.PersistentFlags().Lookup("prefix"))

	// default values
	viper.SetDefault("mqtt.client_id", "")
	viper.SetDefault("mqtt.qos", 1)
	viper.SetDefault("mqtt.connect_timeout", 10*time.Second)

	viper.SetDefault("pib.pan_id", "0xffff")
	viper.SetDefault("pib.short_address", "0xfffe")
	viper.SetDefault("pib.extended_address", "0000000000000000")
	viper.SetDefault("pib.channel", 11)
	viper.SetDefault("pib.tx_power", 0)
	viper.SetDefault("pib.promiscuous", false)
	viper.SetDefault("pib.auto_ack", true)

	viper.SetDefault("metrics.bind", "")

	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		b, err := os.ReadFile(cfgFile)
		if err != nil {
			log.WithError(err).WithField("config", cfgFile).Fatal("error loading config file")
		}
		ext := strings.TrimPrefix(filepath.Ext(cfgFile), ".")
		if ext == "" {
			ext = "toml"
		}
		viper.SetConfigType(ext)
		if err := viper.ReadConfig(bytes.NewBuffer(b)); err != nil {
			log.WithError(err).WithField("config", cfgFile).Fatal("error loading config file")
		}
	} else {
		viper.SetConfigName("pibfilter")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/pibfilter")
		viper.AddConfigPath("/etc/pibfilter")
		if err := viper.ReadInConfig(); err != nil {
			switch err.(type) {
			case viper.ConfigFileNotFoundError:
				log.Debug("no configuration file found, using defaults")
			default:
				log.WithError(err).Fatal("read configuration file error")
			}
		}
	}

	viper.SetEnvPrefix("pibfilter")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	if err := viper.Unmarshal(&config); err != nil {
		log.WithError(err).Fatal("unmarshal config error")
	}
	log.SetLevel(log.Level(uint8(config.General.LogLevel)))
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pibfilter version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
