/*
Package observability exports engine lifecycle events as Prometheus
metrics.

It adapts the hook callbacks in pkg/domain into counters, a latency
histogram, and an active-session gauge, and serves them over the
standard exposition endpoint.
*/
package observability
