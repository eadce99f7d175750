package inspector

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	prometheus.MustRegister(
		ScansTotal,
		HandshakeDuration,
		CacheLookupsTotal,
		CTRequestsTotal,
		CertificateDaysUntilExpiry,
	)
}

var (
	// ScansTotal counts report assembly attempts
	ScansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "certwatch",
		Subsystem: "inspector",
		Name:      "scans_total",
		Help:      "Total number of scans by result",
	}, []string{"result"})

	// HandshakeDuration tracks TLS handshake latency per component
	HandshakeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "certwatch",
		Subsystem: "inspector",
		Name:      "handshake_duration_seconds",
		Help:      "Duration of TLS handshakes in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"component"})

	// CacheLookupsTotal counts scan cache hits and misses
	CacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "certwatch",
		Subsystem: "inspector",
		Name:      "cache_lookups_total",
		Help:      "Total number of certificate cache lookups",
	}, []string{"result"})

	// CTRequestsTotal counts requests to the CT aggregator
	CTRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "certwatch",
		Subsystem: "inspector",
		Name:      "ct_requests_total",
		Help:      "Total number of Certificate Transparency lookups",
	}, []string{"result"})

	// CertificateDaysUntilExpiry tracks days until the leaf certificate expires.
	// Only watch mode sets it, so the domain label stays bounded by config.
	CertificateDaysUntilExpiry = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "certwatch",
		Subsystem: "inspector",
		Name:      "certificate_days_until_expiry",
		Help:      "Days until the certificate of a watched domain expires",
	}, []string{"domain"})
)
