package main

import (
	"errors"
	"testing"

	"github.com/nao1215/leakwatch/internal/config"
)

func TestSetEmailCmd(t *testing.T) {
	t.Parallel()

	t.Run("stores credentials from flags", func(t *testing.T) {
		t.Parallel()

		path := newTestConfig(t, nil)
		_, err := executeRoot(t, "", "--config", path, "set-email",
			"alerts@example.com", "security@example.com",
			"--password", "hunter2",
			"--smtp-server", "mail.example.com",
			"--smtp-port", "2525",
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := loadTestConfig(t, path)
		if !cfg.EmailNotifications {
			t.Error("expected email notifications enabled")
		}
		if cfg.SenderEmail != "alerts@example.com" || cfg.ReceiverEmail != "security@example.com" {
			t.Errorf("unexpected addresses: %q -> %q", cfg.SenderEmail, cfg.ReceiverEmail)
		}
		if cfg.EmailPassword != "hunter2" {
			t.Errorf("expected password stored, got %q", cfg.EmailPassword)
		}
		if cfg.SMTPAddress() != "mail.example.com:2525" {
			t.Errorf("unexpected smtp address %q", cfg.SMTPAddress())
		}
	})

	t.Run("rejects malformed address", func(t *testing.T) {
		t.Parallel()

		path := newTestConfig(t, nil)
		_, err := executeRoot(t, "", "--config", path, "set-email",
			"not-an-address", "security@example.com", "--password", "x")
		if !errors.Is(err, config.ErrInvalidEmailSettings) {
			t.Errorf("expected ErrInvalidEmailSettings, got %v", err)
		}
		if loadTestConfig(t, path).EmailNotifications {
			t.Error("expected email notifications to stay disabled")
		}
	})

	t.Run("invalid address keeps the smtp server", func(t *testing.T) {
		t.Parallel()

		path := newTestConfig(t, nil)
		before := loadTestConfig(t, path).SMTPAddress()
		_, err := executeRoot(t, "", "--config", path, "set-email",
			"not-an-address", "security@example.com",
			"--password", "x",
			"--smtp-server", "mail.example.com",
			"--smtp-port", "2525",
		)
		if !errors.Is(err, config.ErrInvalidEmailSettings) {
			t.Fatalf("expected ErrInvalidEmailSettings, got %v", err)
		}
		if got := loadTestConfig(t, path).SMTPAddress(); got != before {
			t.Errorf("smtp address changed to %q, want %q", got, before)
		}
	})
}

func TestSetEmailCmdReadsPasswordFromInput(t *testing.T) {
	t.Setenv(config.EnvEmailPassword, "")

	path := newTestConfig(t, nil)
	_, err := executeRoot(t, "from-stdin\n", "--config", path, "set-email",
		"alerts@example.com", "security@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := loadTestConfig(t, path).EmailPassword; got != "from-stdin" {
		t.Errorf("expected password from input, got %q", got)
	}

	if _, err := executeRoot(t, "", "--config", path, "set-email",
		"alerts@example.com", "security@example.com"); err == nil {
		t.Error("expected error on empty input")
	}
}

func TestSetWebhookCmd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{name: "https endpoint", url: "https://hooks.example.com/leakwatch"},
		{name: "not a url", url: "hooks", wantErr: config.ErrInvalidWebhookURL},
		{name: "unsupported scheme", url: "ftp://hooks.example.com", wantErr: config.ErrInvalidWebhookURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := newTestConfig(t, nil)
			_, err := executeRoot(t, "", "--config", path, "set-webhook", tt.url)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			cfg := loadTestConfig(t, path)
			if !cfg.WebhookNotifications || cfg.WebhookURL != tt.url {
				t.Errorf("expected webhook %q enabled, got %v %q", tt.url, cfg.WebhookNotifications, cfg.WebhookURL)
			}
		})
	}
}

func TestSetIntervalCmd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		arg     string
		want    int
		wantErr error
	}{
		{name: "valid", arg: "30", want: 30},
		{name: "zero", arg: "0", wantErr: config.ErrInvalidInterval},
		{name: "negative", arg: "-5", wantErr: config.ErrInvalidInterval},
		{name: "not a number", arg: "soon", wantErr: config.ErrInvalidInterval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := newTestConfig(t, nil)
			_, err := executeRoot(t, "", "--config", path, "set-interval", "--", tt.arg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				if got := loadTestConfig(t, path).MonitoringIntervalMinutes; got != config.Default().MonitoringIntervalMinutes {
					t.Errorf("expected interval unchanged, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := loadTestConfig(t, path).MonitoringIntervalMinutes; got != tt.want {
				t.Errorf("expected interval %d, got %d", tt.want, got)
			}
		})
	}
}
