// Package metrics registers the Prometheus collectors for loads, district
// joins and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hazyhaar/retailmap/pkg/district"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retailmap_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"route", "status"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "retailmap_http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	}, []string{"route"})
	DistrictMatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retailmap_district_matches_total",
		Help: "Polygons matched to a statistics row, by strategy",
	}, []string{"strategy"})
	DistrictUnmatchedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "retailmap_district_unmatched_total",
		Help: "Polygons left without statistics",
	})
	SourceLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retailmap_source_loads_total",
		Help: "Source file loads by kind and result",
	}, []string{"kind", "result"})
	StoresLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "retailmap_stores_loaded",
		Help: "Stores with a valid coordinate in the last dataset load",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(DistrictMatchesTotal)
	prometheus.MustRegister(DistrictUnmatchedTotal)
	prometheus.MustRegister(SourceLoadsTotal)
	prometheus.MustRegister(StoresLoaded)
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// ObserveAttach counts the outcome of one attach pass.
func ObserveAttach(res *district.Result) {
	for strategy, n := range res.ByStrategy {
		DistrictMatchesTotal.WithLabelValues(strategy).Add(float64(n))
	}
	DistrictUnmatchedTotal.Add(float64(len(res.Unmatched)))
}

// ObserveLoad counts one source load.
func ObserveLoad(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	SourceLoadsTotal.WithLabelValues(kind, result).Inc()
}

// ObserveRequest records one served request.
func ObserveRequest(route string, status int, d time.Duration) {
	RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	RequestDurationMs.WithLabelValues(route).Observe(float64(d.Microseconds()) / 1000)
}
