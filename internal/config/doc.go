// Package config holds the monitoring configuration of leakwatch.
//
// A Config is read from a JSON (or YAML) file and merged over the built-in
// defaults key by key: keys present in the file win, missing keys keep their
// default value, unknown keys are ignored.
//
// Long-running callers share a Store. The Store hands out deep-copied
// snapshots so that one scan cycle never observes a half-applied edit, and
// funnels every mutation through a single lock-guarded update that persists
// the whole file atomically before the new version becomes visible.
package config
