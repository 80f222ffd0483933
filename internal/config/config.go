package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Directory providers
const (
	DirectoryProviderSQLite = "sqlite"
	DirectoryProviderLark   = "lark"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Lark      LarkConfig      `mapstructure:"lark"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// MigrationsDir overrides the embedded migrations when set
	MigrationsDir string `mapstructure:"migrations_dir"`
}

// StorageConfig holds attachment storage configuration
type StorageConfig struct {
	AttachmentDir string `mapstructure:"attachment_dir"`
}

// SessionsConfig bounds the open form sessions
type SessionsConfig struct {
	TTL                time.Duration `mapstructure:"ttl"`
	SweepInterval      time.Duration `mapstructure:"sweep_interval"`
	MaxAttachmentBytes int64         `mapstructure:"max_attachment_bytes"`
	MaxAttachments     int           `mapstructure:"max_attachments"`
}

// DirectoryConfig selects the employee directory
type DirectoryConfig struct {
	Provider string `mapstructure:"provider"`
}

// LarkConfig holds Lark API configuration
type LarkConfig struct {
	AppID       string            `mapstructure:"app_id"`
	AppSecret   string            `mapstructure:"app_secret"`
	Attrs       LarkAttrsConfig   `mapstructure:"attrs"`
	Receipts    LarkFeatureConfig `mapstructure:"receipts"`
	ContactSync LarkFeatureConfig `mapstructure:"contact_sync"`
}

// LarkAttrsConfig maps employee fields to the tenant's custom user attribute ids
type LarkAttrsConfig struct {
	CompanyCode   string `mapstructure:"company_code"`
	CompanyName   string `mapstructure:"company_name"`
	CostCenter    string `mapstructure:"cost_center"`
	ApprovalLevel string `mapstructure:"approval_level"`
}

// LarkFeatureConfig toggles an optional Lark integration
type LarkFeatureConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// RateLimitConfig holds rate limits in the "<limit>-<period>" format, e.g. "30-M"
type RateLimitConfig struct {
	Lookups string `mapstructure:"lookups"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables.
// An empty configPath uses defaults and the environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.allowed_origins", []string{})

	// Database defaults
	v.SetDefault("database.path", "data/travel-support.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.migrations_dir", "")

	v.SetDefault("storage.attachment_dir", "data/attachments")

	// Session defaults
	v.SetDefault("sessions.ttl", 2*time.Hour)
	v.SetDefault("sessions.sweep_interval", 5*time.Minute)
	v.SetDefault("sessions.max_attachment_bytes", 10<<20)
	v.SetDefault("sessions.max_attachments", 10)

	v.SetDefault("directory.provider", DirectoryProviderSQLite)

	// Lark defaults
	v.SetDefault("lark.receipts.enabled", false)
	v.SetDefault("lark.contact_sync.enabled", false)

	v.SetDefault("rate_limit.lookups", "60-M")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	// Sensitive credentials from environment
	_ = v.BindEnv("lark.app_id", "LARK_APP_ID")
	_ = v.BindEnv("lark.app_secret", "LARK_APP_SECRET")
	_ = v.BindEnv("directory.provider", "DIRECTORY_PROVIDER")
	_ = v.BindEnv("database.path", "DATABASE_PATH")
	_ = v.BindEnv("storage.attachment_dir", "ATTACHMENT_DIR")
}

// LarkRequired reports whether any enabled component talks to Lark
func (c *Config) LarkRequired() bool {
	return c.Directory.Provider == DirectoryProviderLark || c.Lark.Receipts.Enabled || c.Lark.ContactSync.Enabled
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Storage.AttachmentDir == "" {
		return fmt.Errorf("storage.attachment_dir is required")
	}

	if c.Sessions.TTL <= 0 {
		return fmt.Errorf("sessions.ttl must be positive")
	}
	if c.Sessions.SweepInterval <= 0 {
		return fmt.Errorf("sessions.sweep_interval must be positive")
	}
	if c.Sessions.MaxAttachmentBytes <= 0 {
		return fmt.Errorf("sessions.max_attachment_bytes must be positive")
	}
	if c.Sessions.MaxAttachments <= 0 {
		return fmt.Errorf("sessions.max_attachments must be positive")
	}

	switch c.Directory.Provider {
	case DirectoryProviderSQLite, DirectoryProviderLark:
	default:
		return fmt.Errorf("directory.provider must be %q or %q, got %q",
			DirectoryProviderSQLite, DirectoryProviderLark, c.Directory.Provider)
	}

	// Validate Lark credentials only when something uses them
	if c.LarkRequired() {
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required")
		}
	}

	if c.RateLimit.Lookups == "" {
		return fmt.Errorf("rate_limit.lookups is required")
	}

	return nil
}
