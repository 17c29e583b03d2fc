// Package metrics records pipeline observability data.
//
// Components receive a Recorder and default to NoopRecorder, so metrics never need
// nil checks at call sites. A run that should export metrics swaps in a
// PrometheusRecorder backed by a per-run registry and writes it out with
// WriteTextfile for the node-exporter textfile collector.
package metrics
