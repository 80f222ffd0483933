// Package container provides dependency injection and lifecycle management
// for the travel support backend.
package container

import (
	"fmt"
	"time"
)

// Directory providers
const (
	DirectorySQLite = "sqlite"
	DirectoryLark   = "lark"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	Database  DatabaseConfig
	Storage   StorageConfig
	Sessions  SessionConfig
	Directory string
	Lark      LarkConfig
	Server    ServerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// MigrationsDir replaces the embedded migrations when set
	MigrationsDir string
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	// AttachmentDir is the base directory for request attachments
	AttachmentDir string
}

// SessionConfig holds form session settings.
type SessionConfig struct {
	TTL                time.Duration
	SweepInterval      time.Duration
	MaxAttachmentBytes int64
	MaxAttachments     int
}

// LarkConfig holds Lark API settings.
type LarkConfig struct {
	AppID     string
	AppSecret string

	// Custom user attribute ids
	CompanyCodeAttr   string
	CompanyNameAttr   string
	CostCenterAttr    string
	ApprovalLevelAttr string

	// SendReceipts messages the submitter after each recorded request
	SendReceipts bool

	// SyncContacts mirrors contact change events into the employees table
	SyncContacts bool
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string

	// LookupRate limits the directory endpoints, e.g. "30-M"
	LookupRate string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/travel-support.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Storage: StorageConfig{
			AttachmentDir: "data/attachments",
		},
		Sessions: SessionConfig{
			TTL:                2 * time.Hour,
			SweepInterval:      5 * time.Minute,
			MaxAttachmentBytes: 10 << 20,
			MaxAttachments:     10,
		},
		Directory: DirectorySQLite,
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			LookupRate:      "60-M",
		},
	}
}

// usesLark reports whether any component needs Lark credentials
func (c *Config) usesLark() bool {
	return c.Directory == DirectoryLark || c.Lark.SendReceipts || c.Lark.SyncContacts
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Storage.AttachmentDir == "" {
		return fmt.Errorf("storage.attachment_dir is required")
	}

	if c.Sessions.TTL <= 0 || c.Sessions.SweepInterval <= 0 {
		return fmt.Errorf("sessions.ttl and sessions.sweep_interval must be positive")
	}

	if c.Directory != DirectorySQLite && c.Directory != DirectoryLark {
		return fmt.Errorf("unknown directory provider %q", c.Directory)
	}

	if c.usesLark() {
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required")
		}
	}

	return nil
}
