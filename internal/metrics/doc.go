// Package metrics exposes Prometheus collectors for signing, transaction building and
// node requests.
package metrics
