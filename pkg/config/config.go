package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the reservation mirror.
type Config struct {
	// Remote site endpoints and request headers
	Remote RemoteConfig `yaml:"remote" json:"remote"`

	// Venue enumeration and display grouping
	Venues VenuesConfig `yaml:"venues" json:"venues"`

	// Remote account routing for submitted bookings
	Accounts AccountsConfig `yaml:"accounts" json:"accounts"`

	// Background synchronization tunables
	Sync SyncConfig `yaml:"sync" json:"sync"`

	// Booking transaction tunables
	Booking BookingConfig `yaml:"booking" json:"booking"`

	// Local mirror database
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// RemoteConfig holds the reservation site's endpoints and the headers every
// request carries.
type RemoteConfig struct {
	BaseURL        string            `yaml:"base_url" json:"base_url"`
	Headers        map[string]string `yaml:"headers" json:"headers"`
	FetchTimeout   time.Duration     `yaml:"fetch_timeout" json:"fetch_timeout"`
	BookingTimeout time.Duration     `yaml:"booking_timeout" json:"booking_timeout"`
}

// VenuesConfig is the fixed venue enumeration plus its display grouping.
type VenuesConfig struct {
	Names  map[int]string      `yaml:"names" json:"names"`
	Groups map[string][]string `yaml:"groups" json:"groups"`
}

// AccountsConfig routes a booking's back-end ownership: holder names on the
// allow-list map to a specific remote account id, everything else uses the
// default.
type AccountsConfig struct {
	OpenIDs       map[string]string `yaml:"open_ids" json:"open_ids"`
	DefaultOpenID string            `yaml:"default_open_id" json:"default_open_id"`
}

// SyncConfig tunes the background poll cycle.
type SyncConfig struct {
	PollInterval      time.Duration `yaml:"poll_interval" json:"poll_interval"`
	ProbeWindow       int           `yaml:"probe_window" json:"probe_window"`
	Concurrency       int           `yaml:"concurrency" json:"concurrency"`
	RetriesPerID      int           `yaml:"retries_per_id" json:"retries_per_id"`
	JitterMin         time.Duration `yaml:"jitter_min" json:"jitter_min"`
	JitterMax         time.Duration `yaml:"jitter_max" json:"jitter_max"`
	SeedID            int64         `yaml:"seed_id" json:"seed_id"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// BookingConfig tunes the token-acquire step of the booking transaction.
type BookingConfig struct {
	TokenAttempts int           `yaml:"token_attempts" json:"token_attempts"`
	TokenDelay    time.Duration `yaml:"token_delay" json:"token_delay"`
}

// DatabaseConfig locates the local sqlite mirror.
type DatabaseConfig struct {
	Path string `yaml:"path" json:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config with the deployment defaults.
func DefaultConfig() *Config {
	return &Config{
		Remote: RemoteConfig{
			BaseURL: "http://cgyytyb.cpu.edu.cn",
			Headers: map[string]string{
				"User-Agent":   "Mozilla/5.0",
				"Content-Type": "application/x-www-form-urlencoded; charset=UTF-8",
				"Referer":      "http://cgyytyb.cpu.edu.cn/wap/yuyue",
			},
			FetchTimeout:   20 * time.Second,
			BookingTimeout: 10 * time.Second,
		},
		Venues: VenuesConfig{
			Names:  defaultVenueNames(),
			Groups: defaultVenueGroups(),
		},
		Accounts: AccountsConfig{
			OpenIDs:       map[string]string{},
			DefaultOpenID: "",
		},
		Sync: SyncConfig{
			PollInterval:      180 * time.Second,
			ProbeWindow:       200,
			Concurrency:       10,
			RetriesPerID:      5,
			JitterMin:         500 * time.Millisecond,
			JitterMax:         2 * time.Second,
			SeedID:            823,
			RequestsPerMinute: 120,
		},
		Booking: BookingConfig{
			TokenAttempts: 5,
			TokenDelay:    200 * time.Millisecond,
		},
		Database: DatabaseConfig{
			Path: "./data/app.db",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

func defaultVenueNames() map[int]string {
	return map[int]string{
		1:  "田径场健身房",
		2:  "体育馆三楼羽毛球馆1号场",
		3:  "体育馆三楼羽毛球馆2号场",
		4:  "体育馆三楼羽毛球馆3号场",
		5:  "体育馆三楼羽毛球馆4号场",
		6:  "体育馆三楼羽毛球馆5号场",
		7:  "体育馆三楼羽毛球馆6号场",
		8:  "体育馆三楼羽毛球馆7号场",
		9:  "体育馆一楼羽毛球馆1号场",
		10: "体育馆一楼羽毛球馆2号场",
		11: "体育馆一楼羽毛球馆3号场",
		12: "体育馆一楼羽毛球馆4号场",
		13: "体育馆一楼羽毛球馆5号场",
		14: "体育馆一楼羽毛球馆6号场",
		15: "体育馆一楼教室一",
		16: "体育馆一楼教室二",
		17: "体育馆一楼教室三",
		18: "体育馆四楼教室四",
		22: "体育场形体房",
		23: "体育场跆拳道房",
	}
}

func defaultVenueGroups() map[string][]string {
	return map[string][]string{
		"体育馆三楼羽毛球馆": {
			"体育馆三楼羽毛球馆1号场",
			"体育馆三楼羽毛球馆2号场",
			"体育馆三楼羽毛球馆3号场",
			"体育馆三楼羽毛球馆4号场",
			"体育馆三楼羽毛球馆5号场",
			"体育馆三楼羽毛球馆6号场",
			"体育馆三楼羽毛球馆7号场",
		},
		"体育馆一楼羽毛球馆": {
			"体育馆一楼羽毛球馆1号场",
			"体育馆一楼羽毛球馆2号场",
			"体育馆一楼羽毛球馆3号场",
			"体育馆一楼羽毛球馆4号场",
			"体育馆一楼羽毛球馆5号场",
			"体育馆一楼羽毛球馆6号场",
		},
		"教室": {
			"体育馆一楼教室一",
			"体育馆一楼教室二",
			"体育馆一楼教室三",
			"体育馆四楼教室四",
			"体育场形体房",
			"体育场跆拳道房",
		},
		"田径场健身房": {
			"田径场健身房",
		},
	}
}

// LoadFromFile loads configuration from a YAML file. An empty path tries the
// default locations and is not an error when nothing is found.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// findConfigFile checks the default config file locations.
func (c *Config) findConfigFile() string {
	candidates := []string{
		"./gymreserve.yaml",
		"./config.yaml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".gymreserve.yaml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadFromEnv overlays configuration from environment variables. A .env file
// in the working directory is loaded first when present.
func (c *Config) LoadFromEnv() error {
	_ = godotenv.Load()

	if base := os.Getenv("GYMRESERVE_BASE_URL"); base != "" {
		c.Remote.BaseURL = base
	}
	if openid := os.Getenv("GYMRESERVE_DEFAULT_OPENID"); openid != "" {
		c.Accounts.DefaultOpenID = openid
	}
	if dbPath := os.Getenv("GYMRESERVE_DB_PATH"); dbPath != "" {
		c.Database.Path = dbPath
	}
	if interval := os.Getenv("GYMRESERVE_POLL_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil && d > 0 {
			c.Sync.PollInterval = d
		}
	}
	if window := os.Getenv("GYMRESERVE_PROBE_WINDOW"); window != "" {
		if v, err := strconv.Atoi(window); err == nil && v > 0 {
			c.Sync.ProbeWindow = v
		}
	}
	if concurrency := os.Getenv("GYMRESERVE_CONCURRENCY"); concurrency != "" {
		if v, err := strconv.Atoi(concurrency); err == nil && v > 0 {
			c.Sync.Concurrency = v
		}
	}
	if seed := os.Getenv("GYMRESERVE_SEED_ID"); seed != "" {
		if v, err := strconv.ParseInt(seed, 10, 64); err == nil && v > 0 {
			c.Sync.SeedID = v
		}
	}
	if level := os.Getenv("GYMRESERVE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if file := os.Getenv("GYMRESERVE_LOG_FILE"); file != "" {
		c.Logging.File = file
	}

	return nil
}

// ApplyFlags overlays command line flag values. Only keys present in the map
// are applied.
func (c *Config) ApplyFlags(flags map[string]interface{}) {
	for key, value := range flags {
		switch key {
		case "base-url":
			if v, ok := value.(string); ok {
				c.Remote.BaseURL = v
			}
		case "db-path":
			if v, ok := value.(string); ok {
				c.Database.Path = v
			}
		case "poll-interval":
			if v, ok := value.(time.Duration); ok {
				c.Sync.PollInterval = v
			}
		case "probe-window":
			if v, ok := value.(int); ok {
				c.Sync.ProbeWindow = v
			}
		case "concurrency":
			if v, ok := value.(int); ok {
				c.Sync.Concurrency = v
			}
		case "retries-per-id":
			if v, ok := value.(int); ok {
				c.Sync.RetriesPerID = v
			}
		case "seed-id":
			if v, ok := value.(int64); ok {
				c.Sync.SeedID = v
			}
		case "log-level":
			if v, ok := value.(string); ok {
				c.Logging.Level = v
			}
		}
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Remote.BaseURL == "" {
		return fmt.Errorf("remote base URL is required")
	}
	if !strings.HasPrefix(c.Remote.BaseURL, "http://") && !strings.HasPrefix(c.Remote.BaseURL, "https://") {
		return fmt.Errorf("remote base URL must start with http:// or https://")
	}
	if len(c.Venues.Names) == 0 {
		return fmt.Errorf("venue enumeration must not be empty")
	}
	if c.Sync.ProbeWindow <= 0 {
		return fmt.Errorf("probe window must be positive")
	}
	if c.Sync.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	if c.Sync.RetriesPerID <= 0 {
		return fmt.Errorf("retries per id must be positive")
	}
	if c.Sync.JitterMin < 0 || c.Sync.JitterMax < c.Sync.JitterMin {
		return fmt.Errorf("jitter bounds are invalid")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	return nil
}

// Load builds the effective configuration: defaults, then the config file,
// then environment variables, then command line flags.
func Load(configFile string, flags map[string]interface{}) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configFile); err != nil {
		return nil, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	cfg.ApplyFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes the effective configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
