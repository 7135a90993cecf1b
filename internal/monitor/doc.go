// Package monitor schedules company scans.
//
// A cycle takes one configuration snapshot, loads the scan history and
// scans every monitored company in order. A company with a leak reported
// inside the suppression window is skipped without touching its history.
// After each scan the company's history entry is updated and the ledger is
// written before the next company starts.
//
// Stopping is observed between companies: a scan that has started runs to
// completion. Only one scan per company can be active at a time; a second
// request for the same company fails with ErrScanInProgress.
package monitor
