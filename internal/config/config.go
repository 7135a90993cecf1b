package config

import (
	"net"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/adrg/xdg"
)

// AppName is the application name used for XDG directory paths.
const AppName = "leakwatch"

// Default configuration values.
const (
	DefaultTorProxyHost = "127.0.0.1"

	// DefaultTorProxyPort is the SOCKS port of a stock Tor daemon.
	DefaultTorProxyPort = 9050

	DefaultMonitoringIntervalMinutes = 30

	// DefaultRequestTimeoutSeconds is generous because every request crosses
	// three Tor relays.
	DefaultRequestTimeoutSeconds = 25

	DefaultMaxConcurrentRequests = 5

	DefaultSMTPServer = "smtp.gmail.com"
	DefaultSMTPPort   = 587

	DefaultQueryDelaySeconds    = 1
	DefaultCompanyDelaySeconds  = 5
	DefaultLeakSuppressionHours = 6
	DefaultMaxBodyBytes         = 5 * 1024 * 1024
	DefaultIdentityStrategy     = IdentityRandom
	DefaultTorStartupTimeout    = 3 * time.Minute

	DefaultConfigFile            = "config.json"
	DefaultHistoryFileName       = "scan_history.json"
	DefaultEncryptionKeyFileName = "encryption.key"
	DefaultLogFileName           = "leakwatch.log"
)

const (
	defaultDataDirName     = "data"
	defaultReportsDirName  = "reports"
	defaultLogsDirName     = "logs"
	defaultDatabaseDirName = "db"

	maxConcurrentRequestsLimit = 64
)

// Identity strategy names accepted by identity_strategy.
const (
	IdentityRotate = "rotate"
	IdentityRandom = "random"
	IdentityFixed  = "fixed"
)

// Config is the complete monitoring configuration.
// Field names on disk follow the historical config.json layout.
type Config struct {
	TorProxyHost string `json:"tor_proxy_host" yaml:"tor_proxy_host"`
	TorProxyPort int    `json:"tor_proxy_port" yaml:"tor_proxy_port"`

	// UseEmbeddedTor starts a private Tor daemon instead of using the proxy above.
	UseEmbeddedTor bool `json:"use_embedded_tor" yaml:"use_embedded_tor"`

	// VerifyTorExit asks check.torproject.org whether traffic leaves through Tor.
	VerifyTorExit bool `json:"verify_tor_exit" yaml:"verify_tor_exit"`

	// SearchEngines are URL templates. A "{query}" placeholder is replaced by
	// the escaped query; templates without it get the query appended.
	SearchEngines []string `json:"search_engines" yaml:"search_engines"`

	// DarkWebSites are always scanned, whatever the search engines return.
	DarkWebSites []string `json:"dark_web_sites" yaml:"dark_web_sites"`

	SearchTerms []string `json:"search_terms" yaml:"search_terms"`

	// ExcludedDomains drops search result links whose host contains any entry.
	ExcludedDomains []string `json:"excluded_domains" yaml:"excluded_domains"`

	MonitoringIntervalMinutes int `json:"monitoring_interval_minutes" yaml:"monitoring_interval_minutes"`
	RequestTimeout            int `json:"request_timeout" yaml:"request_timeout"`
	MaxConcurrentRequests     int `json:"max_concurrent_requests" yaml:"max_concurrent_requests"`

	QueryDelaySeconds    int `json:"query_delay_seconds" yaml:"query_delay_seconds"`
	CompanyDelaySeconds  int `json:"company_delay_seconds" yaml:"company_delay_seconds"`
	LeakSuppressionHours int `json:"leak_suppression_hours" yaml:"leak_suppression_hours"`

	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes"`

	UserAgents       []string `json:"user_agents" yaml:"user_agents"`
	IdentityStrategy string   `json:"identity_strategy" yaml:"identity_strategy"`

	EmailNotifications bool   `json:"email_notifications" yaml:"email_notifications"`
	SenderEmail        string `json:"sender_email" yaml:"sender_email"`
	ReceiverEmail      string `json:"receiver_email" yaml:"receiver_email"`
	EmailPassword      string `json:"email_password" yaml:"email_password"` //nolint:gosec // persisted by operator request
	SMTPServer         string `json:"smtp_server" yaml:"smtp_server"`
	SMTPPort           int    `json:"smtp_port" yaml:"smtp_port"`

	WebhookNotifications bool   `json:"webhook_notifications" yaml:"webhook_notifications"`
	WebhookURL           string `json:"webhook_url" yaml:"webhook_url"`

	CompaniesToMonitor []string `json:"companies_to_monitor" yaml:"companies_to_monitor"`

	// Storage locations. Empty values resolve to the XDG data directory.
	DataDir     string `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`
	ReportsDir  string `json:"reports_dir,omitempty" yaml:"reports_dir,omitempty"`
	KeyFile     string `json:"key_file,omitempty" yaml:"key_file,omitempty"`
	DatabaseDir string `json:"database_dir,omitempty" yaml:"database_dir,omitempty"`
	LogFile     string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
}

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		TorProxyHost:  DefaultTorProxyHost,
		TorProxyPort:  DefaultTorProxyPort,
		VerifyTorExit: true,
		SearchEngines: []string{
			"https://ahmia.fi/search/?q=",
			"https://darksearch.io/search?query=",
		},
		DarkWebSites: []string{
			"http://nzxj65x32vh2fkhk.onion",
			"http://pastyjv6xhjylyuk.onion",
			"http://hss3uro2hsxfogfq.onion",
			"http://dnmugz73ivcswgyv.onion",
			"http://hxt254aygrsziejn.onion",
		},
		SearchTerms: []string{
			"database leak", "breach", "hacked data", "password dump",
			"company hacked", "data exposed", "credential leak",
			"customer data", "credit card dump", "sensitive information",
		},
		ExcludedDomains:           []string{"google", "facebook", "twitter"},
		MonitoringIntervalMinutes: DefaultMonitoringIntervalMinutes,
		RequestTimeout:            DefaultRequestTimeoutSeconds,
		MaxConcurrentRequests:     DefaultMaxConcurrentRequests,
		QueryDelaySeconds:         DefaultQueryDelaySeconds,
		CompanyDelaySeconds:       DefaultCompanyDelaySeconds,
		LeakSuppressionHours:      DefaultLeakSuppressionHours,
		MaxBodyBytes:              DefaultMaxBodyBytes,
		UserAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/98.0.4758.102 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.2 Safari/605.1.15",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/98.0.4758.102 Safari/537.36",
		},
		IdentityStrategy:   DefaultIdentityStrategy,
		SMTPServer:         DefaultSMTPServer,
		SMTPPort:           DefaultSMTPPort,
		CompaniesToMonitor: []string{},
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.SearchEngines = slices.Clone(c.SearchEngines)
	out.DarkWebSites = slices.Clone(c.DarkWebSites)
	out.SearchTerms = slices.Clone(c.SearchTerms)
	out.ExcludedDomains = slices.Clone(c.ExcludedDomains)
	out.UserAgents = slices.Clone(c.UserAgents)
	out.CompaniesToMonitor = slices.Clone(c.CompaniesToMonitor)
	return &out
}

// TorProxyAddress returns the proxy address in "host:port" form.
func (c *Config) TorProxyAddress() string {
	return net.JoinHostPort(c.TorProxyHost, strconv.Itoa(c.TorProxyPort))
}

// SMTPAddress returns the SMTP submission address in "host:port" form.
func (c *Config) SMTPAddress() string {
	return net.JoinHostPort(c.SMTPServer, strconv.Itoa(c.SMTPPort))
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// Interval returns the monitoring interval.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.MonitoringIntervalMinutes) * time.Minute
}

// QueryDelay returns the pause between successive search backend queries.
func (c *Config) QueryDelay() time.Duration {
	return time.Duration(c.QueryDelaySeconds) * time.Second
}

// CompanyDelay returns the pause between two company scans of a cycle.
func (c *Config) CompanyDelay() time.Duration {
	return time.Duration(c.CompanyDelaySeconds) * time.Second
}

// SuppressionWindow returns how long a company is skipped after a leak.
func (c *Config) SuppressionWindow() time.Duration {
	return time.Duration(c.LeakSuppressionHours) * time.Hour
}

// HasCompany reports whether company is monitored.
func (c *Config) HasCompany(company string) bool {
	return slices.Contains(c.CompaniesToMonitor, company)
}

// XDGDataDir returns the XDG data directory for leakwatch.
// On Linux: ~/.local/share/leakwatch
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for leakwatch.
// On Linux: ~/.config/leakwatch
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ResolvedDataDir returns where leak archives and the history ledger live.
func (c *Config) ResolvedDataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return filepath.Join(XDGDataDir(), defaultDataDirName)
}

// ResolvedReportsDir returns where CSV and Markdown reports are written.
func (c *Config) ResolvedReportsDir() string {
	if c.ReportsDir != "" {
		return c.ReportsDir
	}
	return filepath.Join(XDGDataDir(), defaultReportsDirName)
}

// ResolvedKeyFile returns the path of the archive encryption key.
func (c *Config) ResolvedKeyFile() string {
	if c.KeyFile != "" {
		return c.KeyFile
	}
	return filepath.Join(XDGDataDir(), DefaultEncryptionKeyFileName)
}

// ResolvedDatabaseDir returns the directory of the fingerprint index.
func (c *Config) ResolvedDatabaseDir() string {
	if c.DatabaseDir != "" {
		return c.DatabaseDir
	}
	return filepath.Join(XDGDataDir(), defaultDatabaseDirName)
}

// ResolvedLogFile returns the log file path.
func (c *Config) ResolvedLogFile() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(XDGDataDir(), defaultLogsDirName, DefaultLogFileName)
}

// HistoryFile returns the path of the scan history ledger.
func (c *Config) HistoryFile() string {
	return filepath.Join(c.ResolvedDataDir(), DefaultHistoryFileName)
}
