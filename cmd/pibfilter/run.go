// Copyright (c) 2017 by Thorsten von Eicken, see LICENSE file for details

package main

import (
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tve/ieee802154/rxfilter"
)

func run(cmd *cobra.Command, args []string) error {
	p, err := newPIB(config.PIB)
	if err != nil {
		return err
	}
	filter := rxfilter.New(p, rxfilter.Opts{Logger: log.Debugf})
	log.WithFields(log.Fields{
		"version": version,
		"prefix":  config.MQTT.Prefix,
		"pib":     filter.Attributes(),
	}).Info("starting pibfilter")

	serveMetrics(config.Metrics.Bind)

	mq, err := newMQ(config.MQTT)
	if err != nil {
		return err
	}
	defer mq.Close()

	g := &gateway{prefix: config.MQTT.Prefix, filter: filter, pub: mq}
	if err := mq.Subscribe(g.setTopic(), g.handleSet); err != nil {
		return err
	}
	if err := mq.Subscribe(g.rxTopic(), g.handleRx); err != nil {
		return err
	}
	g.publishState(filter.Attributes())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	log.WithField("signal", <-sigChan).Info("signal received")
	return nil
}
