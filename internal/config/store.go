package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// Store is the single owner of the persisted configuration.
// Readers take snapshots; writers go through Update.
type Store struct {
	mu      sync.RWMutex
	path    string
	cfg     *Config
	version uint64
	env     bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithEnvOverrides makes snapshots apply ApplyEnv. Overrides never reach the file.
func WithEnvOverrides(enabled bool) StoreOption {
	return func(s *Store) {
		s.env = enabled
	}
}

// NewStore wraps an already loaded configuration that lives at path.
func NewStore(path string, cfg *Config, opts ...StoreOption) *Store {
	if cfg == nil {
		cfg = Default()
	}
	s := &Store{
		path:    path,
		cfg:     cfg.Clone(),
		version: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenStore loads path (defaults when missing) and wraps it in a Store.
func OpenStore(path string, opts ...StoreOption) (*Store, error) {
	cfg, err := Load(path)
	if err != nil {
		if !errors.Is(err, ErrConfigNotFound) {
			return nil, err
		}
		cfg = Default()
	}
	return NewStore(path, cfg, opts...), nil
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Version increases by one on every successful Update.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns a deep copy of the current configuration.
func (s *Store) Snapshot() *Config {
	s.mu.RLock()
	cfg := s.cfg.Clone()
	s.mu.RUnlock()

	if s.env {
		ApplyEnv(cfg)
	}
	return cfg
}

// Update applies fn to a copy of the configuration, validates it, persists the
// whole file and only then publishes the new version. When fn, validation or
// the write fails the published configuration is unchanged.
func (s *Store) Update(fn func(*Config) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := Save(s.path, next); err != nil {
		return err
	}

	s.cfg = next
	s.version++
	return nil
}

// AddCompany appends company to the monitored list.
func (s *Store) AddCompany(company string) error {
	company = strings.TrimSpace(company)
	if company == "" {
		return ErrEmptyCompany
	}
	return s.Update(func(c *Config) error {
		if c.HasCompany(company) {
			return fmt.Errorf("%w: %s", ErrCompanyExists, company)
		}
		c.CompaniesToMonitor = append(c.CompaniesToMonitor, company)
		return nil
	})
}

// RemoveCompany drops company from the monitored list. History and archives
// of the company are kept.
func (s *Store) RemoveCompany(company string) error {
	return s.Update(func(c *Config) error {
		i := slices.Index(c.CompaniesToMonitor, company)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrCompanyNotFound, company)
		}
		c.CompaniesToMonitor = slices.Delete(c.CompaniesToMonitor, i, i+1)
		return nil
	})
}

// SetEmail stores the email credentials and enables email notifications.
func (s *Store) SetEmail(sender, password, receiver string) error {
	return s.SetEmailWithServer(sender, password, receiver, "", 0)
}

// SetEmailWithServer is SetEmail that also replaces the SMTP server and
// port when they are non-zero. All fields are applied in one update.
func (s *Store) SetEmailWithServer(sender, password, receiver, server string, port int) error {
	return s.Update(func(c *Config) error {
		if server != "" {
			c.SMTPServer = server
		}
		if port != 0 {
			c.SMTPPort = port
		}
		c.EmailNotifications = true
		c.SenderEmail = sender
		c.EmailPassword = password
		c.ReceiverEmail = receiver
		return c.checkEmail()
	})
}

// SetWebhook stores the webhook endpoint and enables webhook notifications.
func (s *Store) SetWebhook(url string) error {
	return s.Update(func(c *Config) error {
		c.WebhookNotifications = true
		c.WebhookURL = url
		return c.checkWebhook()
	})
}

// SetInterval changes the monitoring interval.
func (s *Store) SetInterval(minutes int) error {
	return s.Update(func(c *Config) error {
		c.MonitoringIntervalMinutes = minutes
		return nil
	})
}

// Reload re-reads the backing file and publishes it when it differs from the
// current configuration. An invalid or unreadable file leaves the published
// configuration unchanged and returns the error.
func (s *Store) Reload() (bool, error) {
	cfg, err := Load(s.path)
	if err != nil {
		return false, err
	}
	if err := cfg.Validate(); err != nil {
		return false, fmt.Errorf("configuration error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if reflect.DeepEqual(cfg, s.cfg) {
		return false, nil
	}
	s.cfg = cfg
	s.version++
	return true, nil
}
