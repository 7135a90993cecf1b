package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables that override secrets at runtime.
// Values taken from the environment are never written back to the file.
const (
	EnvEmailPassword = "LEAKWATCH_EMAIL_PASSWORD"
	EnvWebhookURL    = "LEAKWATCH_WEBHOOK_URL"
	EnvSenderEmail   = "LEAKWATCH_SENDER_EMAIL"
	EnvReceiverEmail = "LEAKWATCH_RECEIVER_EMAIL"
)

type format int

const (
	formatJSON format = iota
	formatYAML
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", "":
		return formatJSON, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	default:
		return formatJSON, ErrUnsupportedFormat
	}
}

// Load reads the configuration file at path and merges it over Default().
// It returns ErrConfigNotFound when the file does not exist.
func Load(path string) (*Config, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	return decode(data, f)
}

// decode merges data over the defaults. Keys absent from data keep their
// default value; unknown keys are ignored.
func decode(data []byte, f format) (*Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	switch f {
	case formatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadOrDefault loads path and falls back to Default() when the file is
// missing or unreadable. Unreadable files are logged; a missing file is not.
func LoadOrDefault(path string, logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := Load(path)
	switch {
	case err == nil:
		logger.Info("configuration loaded", "path", path)
		return cfg
	case errors.Is(err, ErrConfigNotFound):
		logger.Debug("configuration file not found, using defaults", "path", path)
	default:
		logger.Error("failed to load configuration, using defaults", "path", path, "error", err)
	}
	return Default()
}

// Save writes cfg to path atomically: the content goes to a temporary file in
// the same directory which is then renamed over path.
func Save(path string, cfg *Config) error {
	f, err := formatOf(path)
	if err != nil {
		return err
	}

	var data []byte
	switch f {
	case formatYAML:
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create configuration directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary configuration file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set configuration file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close configuration file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace configuration file: %w", err)
	}
	return nil
}

// CreateDefault writes Default() to path. Unless force is set, an existing
// file is left untouched and ErrConfigExists is returned.
func CreateDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}
	return Save(path, Default())
}

// FindConfigFile returns the configuration path to use:
//  1. configPath, when set (it may not exist yet)
//  2. config.json in the current directory, when present
//  3. config.json in the XDG config directory, when present
//  4. config.json in the current directory
func FindConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}

	xdgConfig := filepath.Join(XDGConfigDir(), DefaultConfigFile)
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return DefaultConfigFile
}

// ApplyEnv overrides secrets in cfg from the process environment.
func ApplyEnv(cfg *Config) {
	if v, ok := os.LookupEnv(EnvEmailPassword); ok && v != "" {
		cfg.EmailPassword = v
	}
	if v, ok := os.LookupEnv(EnvWebhookURL); ok && v != "" {
		cfg.WebhookURL = v
	}
	if v, ok := os.LookupEnv(EnvSenderEmail); ok && v != "" {
		cfg.SenderEmail = v
	}
	if v, ok := os.LookupEnv(EnvReceiverEmail); ok && v != "" {
		cfg.ReceiverEmail = v
	}
}
