package ingest

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ingestionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wikipages_ingestions_total",
	Help: "Ingestion attempts by outcome",
}, []string{"outcome"})

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDisambiguation):
		return "disambiguation"
	default:
		return "failed"
	}
}
