package datastore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsPrefix = "openbatch_datastore_"

var operationCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: metricsPrefix + "operations",
	Help: "Number of datastore object operations grouped by object type, operation and outcome",
}, []string{"kind", "operation", "outcome"})

func recordOp(kind EntityKind, op string, ret OpResult) {
	outcome := "ok"
	switch ret {
	case OpError:
		outcome = "error"
	case OpNoRows:
		outcome = "no_rows"
	}
	operationCounter.WithLabelValues(kind.String(), op, outcome).Inc()
}
