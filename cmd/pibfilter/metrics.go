// Copyright (c) 2017 by Thorsten von Eicken, see LICENSE file for details

package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	mqttc = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pibfilter_mqtt_connect_count",
		Help: "The number of times pibfilter connected to the MQTT broker.",
	})

	mqttd = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pibfilter_mqtt_disconnect_count",
		Help: "The number of times pibfilter disconnected from the MQTT broker.",
	})

	bad = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pibfilter_bad_message_count",
		Help: "The number of MQTT messages that could not be decoded (per topic kind).",
	}, []string{"kind"})
)

func mqttConnectCounter() prometheus.Counter    { return mqttc }
func mqttDisconnectCounter() prometheus.Counter { return mqttd }

func badMessageCounter(kind string) prometheus.Counter {
	return bad.With(prometheus.Labels{"kind": kind})
}

// serveMetrics exposes the Prometheus metrics on bind, if set.
func serveMetrics(bind string) {
	if bind == "" {
		return
	}
	log.WithField("bind", bind).Info("metrics: starting prometheus endpoint")
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(bind, mux); err != nil {
			log.WithError(err).Error("metrics: prometheus endpoint error")
		}
	}()
}
