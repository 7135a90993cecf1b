package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedStatus is returned when the server answers outside 2xx.
	ErrUnexpectedStatus = errors.New("unexpected status code")

	// ErrUnknownIdentityStrategy is returned for an unsupported strategy name.
	ErrUnknownIdentityStrategy = errors.New("unknown identity strategy")

	// ErrNoIdentities is returned when a strategy has nothing to choose from.
	ErrNoIdentities = errors.New("no client identities configured")
)

// Error describes a failed fetch of URL.
type Error struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %v (status %d)", e.URL, e.Err, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
