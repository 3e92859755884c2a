package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ListingRequests.WithLabelValues("admin", "post", "rating").Inc()
	m.FilterIgnored.WithLabelValues("bad_nonce").Inc()
	m.FilterIgnored.WithLabelValues("bad_nonce").Inc()

	require.Equal(t, 1.0, testutil.ToFloat64(m.ListingRequests.WithLabelValues("admin", "post", "rating")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.FilterIgnored.WithLabelValues("bad_nonce")))

	// Registering twice on the same registry panics, a nil one never does
	require.Panics(t, func() { NewMetrics(reg) })
	require.NotPanics(t, func() { NewMetrics(nil); NewMetrics(nil) })
}
