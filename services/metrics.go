package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	predictionsServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carprice_predictions_total",
		Help: "Total number of successful price predictions.",
	})
	predictionsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carprice_predictions_failed_total",
		Help: "Total number of failed price predictions by reason.",
	}, []string{"reason"})
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carprice_cache_hits_total",
		Help: "Total number of predictions served from the cache.",
	})
	inferenceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "carprice_inference_duration_seconds",
		Help:    "Duration of a single model inference call.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})
)
