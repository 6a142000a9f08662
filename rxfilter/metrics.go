// Copyright 2017 by Thorsten von Eicken, see LICENSE file

package rxfilter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rxfilter_frame_count",
		Help: "The number of received frames run through the filter (per decision).",
	}, []string{"decision"})

	cc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rxfilter_command_count",
		Help: "The number of PIB configuration commands (per result).",
	}, []string{"result"})
)

func decisionCounter(d Decision) prometheus.Counter {
	return dc.With(prometheus.Labels{"decision": d.String()})
}

func commandCounter(ok bool) prometheus.Counter {
	r := "rejected"
	if ok {
		r = "applied"
	}
	return cc.With(prometheus.Labels{"result": r})
}
