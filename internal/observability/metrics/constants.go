// Package metrics defines the Prometheus collectors exported by the service.
package metrics

// Metric namespace shared by every collector.
const Namespace = "comingsoon"

// Histogram bucket parameters for exponential buckets.
const (
	// BucketStart1ms is the first bucket bound for request latencies.
	BucketStart1ms = 0.001
	// BucketStart10ms is the first bucket bound for outbound calls.
	BucketStart10ms = 0.01
	// BucketFactor2 doubles each bucket.
	BucketFactor2 = 2
	// BucketCount12 spans 1ms to ~2s from BucketStart1ms.
	BucketCount12 = 12
	// BucketCount11 spans 10ms to ~10s from BucketStart10ms.
	BucketCount11 = 11
)
