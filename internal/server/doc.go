// Package server provides the sidecar HTTP surface of the application: a
// dedicated Prometheus metrics listener and health check endpoints.
//
// The MCP server itself speaks stdio; this package only hosts the
// operational endpoints next to it. MetricsServer binds a separate port so
// scrape traffic never mixes with tool traffic, and HealthChecker exposes
// liveness and readiness handlers on the same mux for probe integration.
package server
