// Package database provides the SQLite index of a leakwatch installation.
//
// The index stores:
//   - Content fingerprints per company, with first and last sighting
//   - A log of every company scan run and its outcome
//
// Fingerprints let a scan mark leak records whose content was already
// reported by an earlier run. Nothing is suppressed; records are annotated
// and the operator decides.
//
// SQLite is used through modernc.org/sqlite, which needs no cgo.
package database
