// Package instrumentation provides OpenTelemetry metrics for the workflow
// engine and its capability clients.
//
// The package wraps an OTel meter provider behind a single Provider type.
// Metrics can be exported through a Prometheus scrape endpoint or dumped to
// stdout for development, and the whole subsystem can be disabled with a
// single config flag, in which case every recorder becomes a no-op.
//
// Recorded series cover workflow node executions, oracle decisions, Google
// API operations, token refreshes, and MCP tool invocations. Label sets are
// kept low-cardinality on purpose: node identifiers, decision names, and
// status values only, never user input or addresses.
package instrumentation
