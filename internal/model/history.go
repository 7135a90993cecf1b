package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultSuppressionWindow is how long a company is skipped after a leak was found.
const DefaultSuppressionWindow = 6 * time.Hour

// timestampFormats lists the layouts accepted when reading a ledger.
// Ledgers written by older tooling use ISO-8601 without a zone offset.
var timestampFormats = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Timestamp is a time.Time that tolerates zone-less ISO-8601 input.
// Zone-less values are interpreted in local time.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampFormats {
		var (
			parsed time.Time
			err    error
		)
		if layout == time.RFC3339Nano {
			parsed, err = time.Parse(layout, s)
		} else {
			parsed, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

// HistoryEntry is the per-company scan record.
//
// ScanCount never decreases, and LastLeakFound is never after LastScan.
type HistoryEntry struct {
	LastScan        *Timestamp `json:"last_scan,omitempty"`
	ScanCount       int        `json:"scan_count"`
	LastLeakFound   *Timestamp `json:"last_leak_found,omitempty"`
	TotalLeaksFound int        `json:"total_leaks_found"`
}

// RecordScan applies the result of one finished scan at time at.
func (e *HistoryEntry) RecordScan(at time.Time, leakFound bool) {
	e.LastScan = NewTimestamp(at)
	e.ScanCount++
	if leakFound {
		e.LastLeakFound = NewTimestamp(at)
		e.TotalLeaksFound++
	}
}

// SuppressedAt reports whether a leak was found less than window before now.
func (e HistoryEntry) SuppressedAt(now time.Time, window time.Duration) bool {
	if e.LastLeakFound == nil {
		return false
	}
	return now.Sub(e.LastLeakFound.Time) < window
}

// ScanHistory is the ledger keyed by company name.
type ScanHistory map[string]HistoryEntry

// NewScanHistory returns an empty ledger.
func NewScanHistory() ScanHistory {
	return make(ScanHistory)
}

// Entry returns the entry of company and whether it exists.
func (h ScanHistory) Entry(company string) (HistoryEntry, bool) {
	e, ok := h[company]
	return e, ok
}

// ShouldSkip reports whether company is inside its leak suppression window.
func (h ScanHistory) ShouldSkip(company string, now time.Time, window time.Duration) bool {
	e, ok := h[company]
	if !ok {
		return false
	}
	return e.SuppressedAt(now, window)
}

// Record applies one scan result to the entry of company.
func (h ScanHistory) Record(company string, at time.Time, leakFound bool) HistoryEntry {
	e := h[company]
	e.RecordScan(at, leakFound)
	h[company] = e
	return e
}

// Clone returns a copy that shares no entries with h.
func (h ScanHistory) Clone() ScanHistory {
	out := make(ScanHistory, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
