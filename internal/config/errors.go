package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrInvalidTorProxy is returned when the proxy host is empty or the port
	// is outside 1-65535.
	ErrInvalidTorProxy = errors.New("invalid tor proxy: host must be set and port must be 1-65535")

	// ErrInvalidInterval is returned when the monitoring interval is not positive.
	ErrInvalidInterval = errors.New("invalid monitoring interval: must be a positive number of minutes")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid request timeout: must be positive")

	// ErrInvalidConcurrency is returned when max_concurrent_requests is out of range.
	ErrInvalidConcurrency = errors.New("invalid max concurrent requests: must be between 1 and 64")

	// ErrInvalidDelay is returned when a delay or window is negative.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidMaxBodyBytes is returned when max_body_bytes is not positive.
	ErrInvalidMaxBodyBytes = errors.New("invalid max body bytes: must be positive")

	// ErrInvalidIdentityStrategy is returned for an unknown identity strategy name.
	ErrInvalidIdentityStrategy = errors.New("invalid identity strategy: must be rotate, random or fixed")

	// ErrNoUserAgents is returned when the identity pool is empty.
	ErrNoUserAgents = errors.New("no user agents configured")
)

// Notification settings errors returned by Config.CheckNotifications.
var (
	// ErrInvalidEmailSettings is returned when email notifications are enabled
	// but the sender, receiver, credential or server is missing or malformed.
	ErrInvalidEmailSettings = errors.New("invalid email notification settings")

	// ErrInvalidWebhookURL is returned when webhook notifications are enabled
	// without a valid URL.
	ErrInvalidWebhookURL = errors.New("invalid webhook url")
)

// Configuration mutation errors.
var (
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrConfigExists is returned when creating a default configuration over an existing file.
	ErrConfigExists = errors.New("configuration file already exists")

	// ErrEmptyCompany is returned when adding a blank company name.
	ErrEmptyCompany = errors.New("company name must not be empty")

	// ErrCompanyExists is returned when adding a company that is already monitored.
	ErrCompanyExists = errors.New("company is already monitored")

	// ErrCompanyNotFound is returned when removing a company that is not monitored.
	ErrCompanyNotFound = errors.New("company is not monitored")

	// ErrUnsupportedFormat is returned for config files that are neither JSON nor YAML.
	ErrUnsupportedFormat = errors.New("unsupported configuration format: use .json, .yaml or .yml")
)
