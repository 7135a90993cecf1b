// Package metrics exposes Prometheus collectors for the leak monitor.
//
// Collectors are registered on a private registry so tests and multiple
// monitors in one process never collide on the default registerer.
// A nil *Metrics is valid and records nothing.
package metrics
