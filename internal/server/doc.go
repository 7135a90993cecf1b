// Package server exposes the monitor's status over HTTP.
//
// Routes:
//   - GET /metrics: Prometheus metrics
//   - GET /api/health: liveness and transport mode
//   - GET /api/history: the scan history ledger, optionally for one company
//   - GET /api/runs: recent scan runs from the index
//
// The server is read-only. Scans are started from the command line.
package server
