package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Listing requests by object type and sort key
	ListingRequests *prometheus.CounterVec

	ListingDuration *prometheus.HistogramVec

	// Rating filters dropped, by reason: bad_nonce, out_of_range
	FilterIgnored *prometheus.CounterVec

	SettingsSaved *prometheus.CounterVec
}

// NewMetrics registers on reg. A nil reg gets a private registry that is
// never exported.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		ListingRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rubricvote_listing_requests_total",
			Help: "Total number of listing requests.",
		}, []string{"view", "object_type", "orderby"}),

		ListingDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rubricvote_listing_duration_seconds",
			Help:    "Histogram of listing latencies, store reads and rendering included.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"view"}),

		FilterIgnored: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rubricvote_rating_filter_ignored_total",
			Help: "Rating filters that were requested but not applied.",
		}, []string{"reason"}),

		SettingsSaved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rubricvote_settings_saved_total",
			Help: "Settings writes by scope.",
		}, []string{"scope"}),
	}
}
