package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	DispatchLatency          = metric.NewHistogram("1m1s")
	UpdatesAccepted          = metric.NewCounter("10s1s")
	UpdatesRejected          = metric.NewCounter("10s1s")
	AdvertisementsSent       = metric.NewCounter("10s1s")
	AdvertisementsSuppressed = metric.NewCounter("10s1s")
	MalformedUpdates         = metric.NewCounter("10s1s")
)

func init() {
	expvar.Publish("dualsim:DispatchLatency (µs)", DispatchLatency)
	expvar.Publish("dualsim:UpdatesAccepted/s", UpdatesAccepted)
	expvar.Publish("dualsim:UpdatesRejected/s", UpdatesRejected)
	expvar.Publish("dualsim:AdvertisementsSent/s", AdvertisementsSent)
	expvar.Publish("dualsim:AdvertisementsSuppressed/s", AdvertisementsSuppressed)
	expvar.Publish("dualsim:MalformedUpdates/s", MalformedUpdates)
}

// Handler serves the metrics dashboard.
func Handler() http.Handler {
	return metric.Handler(metric.Exposed)
}
