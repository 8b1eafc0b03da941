package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the agentdeck platform.
type Config struct {
	Storage   Storage       `yaml:"storage"`
	Server    Server        `yaml:"server"`
	Alpaca    Alpaca        `yaml:"alpaca"`
	Feeds     Feeds         `yaml:"feeds"`
	Logging   Logging       `yaml:"logging"`
	Dashboard Dashboard     `yaml:"dashboard"`
	Session   SessionConfig `yaml:"session"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Alpaca holds credentials and endpoints for the Alpaca broker API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
	UsePaper  bool   `yaml:"use_paper"`
}

// ResolveBaseURL returns the explicit base URL when set, otherwise the
// paper or live endpoint according to UsePaper.
func (a Alpaca) ResolveBaseURL() string {
	if a.BaseURL != "" {
		return a.BaseURL
	}
	if a.UsePaper {
		return "https://paper-api.alpaca.markets"
	}
	return "https://api.alpaca.markets"
}

// Feeds holds API keys for the external data feeds surfaced on the
// dashboard. Each key gates exactly one integration.
type Feeds struct {
	OpenAIKey   string `yaml:"openai_key"`
	FinnhubKey  string `yaml:"finnhub_key"`
	FredKey     string `yaml:"fred_key"`
	CoindeskKey string `yaml:"coindesk_key"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Dashboard controls presentation parameters.
type Dashboard struct {
	SymbolPageSize int `yaml:"symbol_page_size"`
	OrderPageSize  int `yaml:"order_page_size"`
}

// SessionConfig defines how analysis sessions are launched.
type SessionConfig struct {
	Tickers      string `yaml:"tickers"`
	Mode         string `yaml:"mode"` // single, loop, market_hours
	LoopInterval string `yaml:"loop_interval"`
	// MarketHours lists the ET hours (9-16) at which market_hours mode
	// launches batches. Empty means run at the 9:30 open only.
	MarketHours []int `yaml:"market_hours"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Storage: Storage{
			DataDir:    "data",
			SQLitePath: "data/agentdeck.db",
		},
		Server: Server{
			Host: "0.0.0.0",
			Port: 8620,
		},
		Alpaca: Alpaca{
			UsePaper: true,
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
		Dashboard: Dashboard{
			SymbolPageSize: 8,
			OrderPageSize:  7,
		},
		Session: SessionConfig{
			Tickers:      "AAPL,MSFT,NVDA",
			Mode:         "single",
			LoopInterval: "1h",
		},
	}
}

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides. A missing
// file is not an error: the defaults plus environment take over, so a
// credentials-only deployment needs no config file at all.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}
	if v := os.Getenv("ALPACA_USE_PAPER"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Alpaca.UsePaper = b
		}
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Feeds.OpenAIKey = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		cfg.Feeds.FinnhubKey = v
	}
	if v := os.Getenv("FRED_API_KEY"); v != "" {
		cfg.Feeds.FredKey = v
	}
	if v := os.Getenv("COINDESK_API_KEY"); v != "" {
		cfg.Feeds.CoindeskKey = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("TICKERS"); v != "" {
		cfg.Session.Tickers = v
	}

	// Standard Alpaca env vars win over everything else; the SDK treats
	// these names as canonical.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

// ---------------------------------------------------------------------------
// Credential validation
// ---------------------------------------------------------------------------

// IntegrationError reports a missing credential scoped to one integration.
// The integration is disabled; the process still starts.
type IntegrationError struct {
	Integration string
	Key         string
}

func (e IntegrationError) Error() string {
	return fmt.Sprintf("integration %s disabled: %s not configured", e.Integration, e.Key)
}

// Validate checks every credential once at startup and returns one error per
// unavailable integration. An empty result means all integrations are live.
func (c *Config) Validate() []IntegrationError {
	var errs []IntegrationError
	if c.Alpaca.APIKey == "" || c.Alpaca.APISecret == "" {
		errs = append(errs, IntegrationError{Integration: "alpaca", Key: "ALPACA_API_KEY/ALPACA_SECRET_KEY"})
	}
	if c.Feeds.OpenAIKey == "" {
		errs = append(errs, IntegrationError{Integration: "openai", Key: "OPENAI_API_KEY"})
	}
	if c.Feeds.FinnhubKey == "" {
		errs = append(errs, IntegrationError{Integration: "finnhub", Key: "FINNHUB_API_KEY"})
	}
	if c.Feeds.FredKey == "" {
		errs = append(errs, IntegrationError{Integration: "fred", Key: "FRED_API_KEY"})
	}
	if c.Feeds.CoindeskKey == "" {
		errs = append(errs, IntegrationError{Integration: "coindesk", Key: "COINDESK_API_KEY"})
	}
	return errs
}

// AlpacaEnabled reports whether brokerage credentials are configured.
func (c *Config) AlpacaEnabled() bool {
	return c.Alpaca.APIKey != "" && c.Alpaca.APISecret != ""
}
