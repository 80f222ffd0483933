package config

import (
	"github.com/garyjia/travel-support/internal/container"
)

// ToContainerConfig converts the application Config to container.Config.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			MigrationsDir:   c.Database.MigrationsDir,
		},
		Storage: container.StorageConfig{
			AttachmentDir: c.Storage.AttachmentDir,
		},
		Sessions: container.SessionConfig{
			TTL:                c.Sessions.TTL,
			SweepInterval:      c.Sessions.SweepInterval,
			MaxAttachmentBytes: c.Sessions.MaxAttachmentBytes,
			MaxAttachments:     c.Sessions.MaxAttachments,
		},
		Directory: c.Directory.Provider,
		Lark: container.LarkConfig{
			AppID:             c.Lark.AppID,
			AppSecret:         c.Lark.AppSecret,
			CompanyCodeAttr:   c.Lark.Attrs.CompanyCode,
			CompanyNameAttr:   c.Lark.Attrs.CompanyName,
			CostCenterAttr:    c.Lark.Attrs.CostCenter,
			ApprovalLevelAttr: c.Lark.Attrs.ApprovalLevel,
			SendReceipts:      c.Lark.Receipts.Enabled,
			SyncContacts:      c.Lark.ContactSync.Enabled,
		},
		Server: container.ServerConfig{
			Host:            c.Server.Host,
			Port:            c.Server.Port,
			ReadTimeout:     c.Server.ReadTimeout,
			WriteTimeout:    c.Server.WriteTimeout,
			ShutdownTimeout: c.Server.ShutdownTimeout,
			AllowedOrigins:  c.Server.AllowedOrigins,
			LookupRate:      c.RateLimit.Lookups,
		},
	}
}
