// Package storage persists leak records and the scan history ledger.
//
// Leak archives are encrypted with a Vault whose key is generated on first
// use and reused afterwards. Losing the key file makes earlier archives
// unrecoverable. Alongside every archive a plain CSV index and a markdown
// summary are written to the reports directory.
//
// The history ledger is a single JSON object keyed by company name. A
// missing or unreadable ledger loads as empty.
package storage
