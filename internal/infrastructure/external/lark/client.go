package lark

import (
	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"go.uber.org/zap"
)

// Config holds Lark client configuration
type Config struct {
	AppID     string
	AppSecret string
	Attrs     AttrMapping
}

// AttrMapping names the tenant's custom user attributes (ids like "C-7012...") that carry
// the employee fields the contact API has no standard slot for.
type AttrMapping struct {
	CompanyCode   string
	CompanyName   string
	CostCenter    string
	ApprovalLevel string
}

// SDKClient wraps the Lark SDK client
type SDKClient struct {
	client *lark.Client
	cfg    Config
	logger *zap.Logger
}

// NewSDKClient creates a new Lark SDK client
func NewSDKClient(cfg Config, logger *zap.Logger) *SDKClient {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)
	return &SDKClient{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// GetClient returns the underlying Lark SDK client
func (c *SDKClient) GetClient() *lark.Client {
	return c.client
}

// Attrs returns the custom attribute mapping
func (c *SDKClient) Attrs() AttrMapping {
	return c.cfg.Attrs
}
