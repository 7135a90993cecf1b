// Package model defines the data structures shared by the leakwatch pipeline.
//
// This package contains the following main types:
//   - LeakRecord: evidence that one fetched source exposes data of a company
//   - EntityBundle: sensitive entities extracted from leak snippets
//   - ScanHistory / HistoryEntry: the per-company ledger driving scan suppression
//   - ScanRun: bookkeeping for one company scan
//
// Models live in their own package so that classify, extract, notify and
// storage can share them without import cycles. All types serialize to the
// JSON layout used by the archive files, the webhook payload and the history
// ledger.
package model
