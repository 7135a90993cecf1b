package monitor

import "errors"

var (
	// ErrScanInProgress is returned when the company is already being scanned.
	ErrScanInProgress = errors.New("scan already in progress for company")

	// ErrEmptyCompany is returned for an empty company name.
	ErrEmptyCompany = errors.New("company name is empty")

	// ErrInvalidInterval is returned by Run when the interval is not positive.
	ErrInvalidInterval = errors.New("monitoring interval must be positive")
)
