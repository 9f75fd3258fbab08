// Package metrics defines Prometheus metrics for the composition
// pipeline: run outcomes, frame production, and encoder throughput.
package metrics
