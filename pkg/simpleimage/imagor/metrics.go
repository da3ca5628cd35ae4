package imagor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSigned      = "signed"
	outcomeUnsafe      = "unsafe"
	outcomeBadFormat   = "bad_format"
	outcomeUnavailable = "signing_unavailable"
)

var redirectsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "imagor_redirects_total",
		Help: "Total number of image redirect requests by outcome",
	},
	[]string{"outcome"},
)

func recordRedirect(outcome string) {
	redirectsTotal.WithLabelValues(outcome).Inc()
}
