package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New()

// emailSettings is the subset of Config required to submit an alert email.
type emailSettings struct {
	Sender   string `validate:"required,email"`
	Receiver string `validate:"required,email"`
	Password string `validate:"required"`
	Server   string `validate:"required,hostname_rfc1123|ip"`
	Port     int    `validate:"min=1,max=65535"`
}

// webhookSettings is the subset of Config required to post an alert.
type webhookSettings struct {
	URL string `validate:"required,url,startswith=http"`
}

// Validate checks the settings a scan cannot run without.
// Notification settings are checked separately by CheckNotifications because
// a broken sink must not stop monitoring.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.TorProxyHost) == "" || c.TorProxyPort < 1 || c.TorProxyPort > 65535 {
		return ErrInvalidTorProxy
	}
	if c.MonitoringIntervalMinutes <= 0 {
		return ErrInvalidInterval
	}
	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxConcurrentRequests < 1 || c.MaxConcurrentRequests > maxConcurrentRequestsLimit {
		return ErrInvalidConcurrency
	}
	if c.QueryDelaySeconds < 0 || c.CompanyDelaySeconds < 0 || c.LeakSuppressionHours < 0 {
		return ErrInvalidDelay
	}
	if c.MaxBodyBytes <= 0 {
		return ErrInvalidMaxBodyBytes
	}
	switch c.IdentityStrategy {
	case IdentityRotate, IdentityRandom, IdentityFixed:
	default:
		return ErrInvalidIdentityStrategy
	}
	if len(c.UserAgents) == 0 {
		return ErrNoUserAgents
	}
	return nil
}

// CheckNotifications validates the settings of every enabled notification sink.
// Disabled sinks are not checked.
func (c *Config) CheckNotifications() error {
	var errs []error
	if c.EmailNotifications {
		errs = append(errs, c.checkEmail())
	}
	if c.WebhookNotifications {
		errs = append(errs, c.checkWebhook())
	}
	return errors.Join(errs...)
}

func (c *Config) checkEmail() error {
	err := validate.Struct(emailSettings{
		Sender:   c.SenderEmail,
		Receiver: c.ReceiverEmail,
		Password: c.EmailPassword,
		Server:   c.SMTPServer,
		Port:     c.SMTPPort,
	})
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidEmailSettings, describe(err))
	}
	return nil
}

func (c *Config) checkWebhook() error {
	if err := validate.Struct(webhookSettings{URL: c.WebhookURL}); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidWebhookURL, describe(err))
	}
	return nil
}

// describe lists the failing fields of a validator error without echoing values.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+" fails "+fe.Tag())
	}
	return strings.Join(parts, ", ")
}
