package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Crawl     CrawlConfig     `mapstructure:"crawl"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `mapstructure:"host"` // default: "0.0.0.0"
	Port int    `mapstructure:"port"` // default: 3001
	Mode string `mapstructure:"mode"` // "debug", "release", "test"; default: "release"

	// ReadHeaderTimeout and IdleTimeout mirror the long keep-alive window
	// needed by clients waiting on a full catalog crawl.
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"` // default: 120s
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`        // default: 120s

	// ShutdownTimeout bounds the graceful drain on SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"` // default: 5s
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool `mapstructure:"headless"` // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool `mapstructure:"no_sandbox"` // default: false

	// Bin overrides the Chromium binary path.
	Bin string `mapstructure:"bin"`

	// RemoteURL connects to an already running browser over CDP instead
	// of launching one. The remote browser is left running on shutdown.
	RemoteURL string `mapstructure:"remote_url"`

	// Proxy is the proxy URL used for every browsing session.
	Proxy string `mapstructure:"proxy"`

	// Stealth injects anti-bot-detection evasions into every page.
	Stealth bool `mapstructure:"stealth"` // default: false

	ViewportWidth  int `mapstructure:"viewport_width"`  // default: 1080
	ViewportHeight int `mapstructure:"viewport_height"` // default: 1080

	// Headers are sent with every request of a session.
	Headers map[string]string `mapstructure:"headers"` // default: Accept-Language en-US

	// BlockedResourceTypes lists resource types to block.
	// Images are left alone: lazy cards only resolve their src once loaded.
	BlockedResourceTypes []string `mapstructure:"blocked_resource_types"` // default: ["Font", "Media"]

	// BlockAds drops requests to known ad and tracking hosts.
	BlockAds bool `mapstructure:"block_ads"` // default: true
}

// CrawlConfig controls catalog traversal.
type CrawlConfig struct {
	// BaseURL and PathTemplate build the listing URL; "{category}" in the
	// template is replaced by the category id.
	BaseURL      string `mapstructure:"base_url"`
	PathTemplate string `mapstructure:"path_template"`

	// Categories is the fixed category set served by GET /api.
	Categories []string `mapstructure:"categories"` // default: ["men", "women"]

	ViewSize int `mapstructure:"view_size"` // default: 96
	Sort     int `mapstructure:"sort"`      // default: 3
	Scale    int `mapstructure:"scale"`     // default: 282

	ScrollStep    int           `mapstructure:"scroll_step"`    // default: 500 (px)
	ScrollDelay   time.Duration `mapstructure:"scroll_delay"`   // default: 250ms
	ScrollTimeout time.Duration `mapstructure:"scroll_timeout"` // default: 60s

	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"` // default: 30s
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`    // default: 10m

	// MaxPages caps the number of pages visited per category.
	MaxPages int `mapstructure:"max_pages"` // default: 500

	// Parallelism is the number of categories crawled at once, each on its
	// own page. 1 keeps a single page reused across categories.
	Parallelism int `mapstructure:"parallelism"` // default: 1

	// MaxSessions is the number of aggregation runs allowed at once.
	MaxSessions int `mapstructure:"max_sessions"` // default: 2
}

// RateLimitConfig controls inbound rate limiting of the catalog routes.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"rps"`   // default: 0.2
	Burst             int     `mapstructure:"burst"` // default: 2
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // default: "info"
	Format string `mapstructure:"format"` // "json" or "text"; default: "json"
}

// Load reads configuration from command-line flags, environment variables
// (prefix CATALOG_, e.g. CATALOG_CRAWL_MAX_PAGES) and an optional config
// file, in that order of precedence, on top of the defaults.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("catalogd", pflag.ContinueOnError)
	configFile := fs.String("config", "", "path to a config file (yaml, json or toml)")
	fs.Int("port", 0, "HTTP listen port")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.BindPFlag("server.port", fs.Lookup("port")); err != nil {
		return nil, err
	}
	if err := v.BindPFlag("log.level", fs.Lookup("log-level")); err != nil {
		return nil, err
	}

	if *configFile != "" {
		v.SetConfigFile(*configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/catalogd/")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_header_timeout", 120*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.no_sandbox", false)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.proxy", "")
	v.SetDefault("browser.stealth", false)
	v.SetDefault("browser.viewport_width", 1080)
	v.SetDefault("browser.viewport_height", 1080)
	v.SetDefault("browser.headers", map[string]string{"Accept-Language": "en-US,en;q=0.9"})
	v.SetDefault("browser.blocked_resource_types", []string{"Font", "Media"})
	v.SetDefault("browser.block_ads", true)

	v.SetDefault("crawl.base_url", "https://www.farfetch.com")
	v.SetDefault("crawl.path_template", "/en-EN/shopping/{category}/ekademe/items.aspx")
	v.SetDefault("crawl.categories", []string{"men", "women"})
	v.SetDefault("crawl.view_size", 96)
	v.SetDefault("crawl.sort", 3)
	v.SetDefault("crawl.scale", 282)
	v.SetDefault("crawl.scroll_step", 500)
	v.SetDefault("crawl.scroll_delay", 250*time.Millisecond)
	v.SetDefault("crawl.scroll_timeout", 60*time.Second)
	v.SetDefault("crawl.navigation_timeout", 30*time.Second)
	v.SetDefault("crawl.request_timeout", 10*time.Minute)
	v.SetDefault("crawl.max_pages", 500)
	v.SetDefault("crawl.parallelism", 1)
	v.SetDefault("crawl.max_sessions", 2)

	v.SetDefault("ratelimit.rps", 0.2)
	v.SetDefault("ratelimit.burst", 2)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks the values Load cannot sanity-check through defaults.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	if c.Crawl.BaseURL == "" {
		return errors.New("crawl base URL is required (set CATALOG_CRAWL_BASE_URL)")
	}
	if !strings.Contains(c.Crawl.PathTemplate, "{category}") {
		return fmt.Errorf("crawl path template must contain {category}, got: %s", c.Crawl.PathTemplate)
	}
	if len(c.Crawl.Categories) == 0 {
		return errors.New("at least one crawl category is required")
	}
	if c.Crawl.ScrollStep <= 0 {
		return fmt.Errorf("scroll step must be positive, got: %d", c.Crawl.ScrollStep)
	}
	if c.Crawl.MaxPages < 1 {
		return fmt.Errorf("max pages must be at least 1, got: %d", c.Crawl.MaxPages)
	}
	if c.Crawl.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1, got: %d", c.Crawl.Parallelism)
	}
	if c.Crawl.MaxSessions < 1 {
		return fmt.Errorf("max sessions must be at least 1, got: %d", c.Crawl.MaxSessions)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("log format must be 'json' or 'text', got: %s", c.Log.Format)
	}
	return nil
}
