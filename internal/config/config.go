package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// ExtractConfig describes where event extraction happens.
type ExtractConfig struct {
	// Endpoint is the remote extraction service (POST {text}). If empty and
	// OpenAIKey is set, extraction runs in-process through the model API.
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// OpenAIKey enables the in-process extractor and the /parse-events
	// proxy route. Falls back to the OPENAI_KEY environment variable.
	OpenAIKey string `yaml:"openai_key" json:"-"`

	// OpenAIBaseURL overrides the model API root (for compatible gateways).
	OpenAIBaseURL string `yaml:"openai_base_url" json:"openai_base_url"`

	// Model is the chat completion model name.
	Model string `yaml:"model" json:"model"`
}

// CalendarConfig configures the calendar write API.
type CalendarConfig struct {
	BaseURL    string `yaml:"base_url" json:"base_url"`
	CalendarID string `yaml:"calendar_id" json:"calendar_id"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone calendar bodies are written in
	// (e.g. "Europe/Berlin").
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of "debug", "info", "error".
	LogLevel string `yaml:"log_level" json:"log_level"`

	// LogFormat is "console" or "json".
	LogFormat string `yaml:"log_format" json:"log_format"`

	// CacheTTL is how long an extraction stays cached, e.g. "10m".
	CacheTTL string `yaml:"cache_ttl" json:"cache_ttl"`

	// StatsCron is a cron-style schedule for the cache stats log line.
	// Empty disables it.
	StatsCron string `yaml:"stats_cron" json:"stats_cron"`

	// PortalHosts restricts scans to these hosts (substring match).
	// Empty allows any host.
	PortalHosts []string `yaml:"portal_hosts" json:"portal_hosts"`

	// PortalSelector is the CSS selector of the portal modal.
	PortalSelector string `yaml:"portal_selector" json:"portal_selector"`

	// CORSOrigins lists allowed browser origins (the extension origin).
	CORSOrigins []string `yaml:"cors_origins" json:"cors_origins"`

	Extract  ExtractConfig  `yaml:"extract" json:"extract"`
	Calendar CalendarConfig `yaml:"calendar" json:"calendar"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:         "127.0.0.1:3000",
		Timezone:       "Europe/Berlin",
		LogLevel:       "info",
		LogFormat:      "console",
		CacheTTL:       "10m",
		StatsCron:      "*/15 * * * *",
		PortalHosts:    []string{"engage.lis.school"},
		PortalSelector: ".portalModalInner",
		CORSOrigins:    []string{"chrome-extension://*"},
		Extract: ExtractConfig{
			Model: "gpt-4o-mini",
		},
		Calendar: CalendarConfig{
			BaseURL:    "https://www.googleapis.com/calendar/v3",
			CalendarID: "primary",
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	switch c.LogLevel {
	case "debug", "info", "error":
		// ok
	default:
		c.LogLevel = def.LogLevel
	}
	switch c.LogFormat {
	case "console", "json":
		// ok
	default:
		c.LogFormat = def.LogFormat
	}
	if d, err := time.ParseDuration(c.CacheTTL); err != nil || d <= 0 {
		c.CacheTTL = def.CacheTTL
	}
	if c.PortalHosts == nil {
		c.PortalHosts = def.PortalHosts
	}
	if c.PortalSelector == "" {
		c.PortalSelector = def.PortalSelector
	}
	if c.CORSOrigins == nil {
		c.CORSOrigins = def.CORSOrigins
	}
	if c.Extract.Model == "" {
		c.Extract.Model = def.Extract.Model
	}
	if c.Calendar.BaseURL == "" {
		c.Calendar.BaseURL = def.Calendar.BaseURL
	}
	if c.Calendar.CalendarID == "" {
		c.Calendar.CalendarID = def.Calendar.CalendarID
	}
}

// TTL returns CacheTTL as a duration (Normalize guarantees it parses).
func (c *Config) TTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// ApplyEnv fills secrets that are usually provided through the environment.
func (c *Config) ApplyEnv() {
	if c.Extract.OpenAIKey == "" {
		c.Extract.OpenAIKey = os.Getenv("OPENAI_KEY")
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600 (the file may hold an API key).
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".schoolcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
