package lookup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var lookupTimeouts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "hlr",
		Subsystem: "lookup",
		Name:      "timeouts_total",
		Help:      "Async lookup requests that timed out before all callbacks arrived",
	},
	[]string{"provider"},
)
