package wikipedia

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "wikipages_summary_fetch_duration_seconds",
	Help:    "Summary API request duration by outcome",
	Buckets: prometheus.DefBuckets,
}, []string{"outcome"})

func observeFetch(start time.Time, err error) {
	outcome := "found"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrDisambiguation):
		outcome = "disambiguation"
	default:
		outcome = "unavailable"
	}
	fetchDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
