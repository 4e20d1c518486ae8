// Package observability builds the structured logger and the Prometheus
// metrics registry shared by the evaluation engine and the HTTP layer.
package observability
