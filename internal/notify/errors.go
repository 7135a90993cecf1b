package notify

import "errors"

var (
	// ErrEmailConfigIncomplete is returned when a required email setting is empty.
	ErrEmailConfigIncomplete = errors.New("email configuration incomplete")

	// ErrStartTLSUnsupported is returned when a remote SMTP server cannot
	// upgrade the connection.
	ErrStartTLSUnsupported = errors.New("smtp server does not support STARTTLS")

	// ErrWebhookStatus is returned for a non-2xx webhook response.
	ErrWebhookStatus = errors.New("webhook returned non-success status")

	// ErrNoLeaks is returned when an alert carries no leak records.
	ErrNoLeaks = errors.New("alert has no leak records")
)
