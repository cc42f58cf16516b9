package collector

import "github.com/prometheus/client_golang/prometheus"

// ingestMetrics tracks what the collector accepted and rejected.
type ingestMetrics struct {
	received *prometheus.CounterVec
	payload  prometheus.Histogram
}

func newIngestMetrics(reg *prometheus.Registry) *ingestMetrics {
	m := &ingestMetrics{
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codecomet",
			Subsystem: "collector",
			Name:      "records_received_total",
			Help:      "Capture records received, labeled by ingestion outcome.",
		}, []string{"outcome"}),
		payload: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "codecomet",
			Subsystem: "collector",
			Name:      "payload_bytes",
			Help:      "Size of ingested payloads in bytes.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}),
	}
	reg.MustRegister(m.received, m.payload)
	return m
}
