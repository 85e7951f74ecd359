package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Defaults applied by Validate.
const (
	DefaultDiscoveryURL = "https://www.googleapis.com/discovery/v1"
	DefaultIpfsURL      = "http://127.0.0.1:5001"
	DefaultGatewayURL   = "https://ipfs.io/ipfs/"
	DefaultCacheTTL     = 10 * time.Minute
	DefaultBatchLimit   = 8
)

// Config holds all SDK settings. Use Validate to fill implicit defaults and
// check field values.
type Config struct {
	// DiscoveryURL is the base of the discovery service, without "/apis".
	DiscoveryURL string `json:"discovery_url" yaml:"discovery_url" mapstructure:"discovery_url" validate:"omitempty,url"`
	// IpfsURL is the Kubo HTTP API used to read and publish documents.
	IpfsURL string `json:"ipfs_url" yaml:"ipfs_url" mapstructure:"ipfs_url" validate:"omitempty,url"`
	// GatewayURL is an HTTP gateway; the CID is appended to it.
	GatewayURL string `json:"gateway_url" yaml:"gateway_url" mapstructure:"gateway_url" validate:"omitempty,url"`
	// APIKey, when set, becomes the default auth client of new clients.
	APIKey string `json:"api_key" yaml:"api_key" mapstructure:"api_key"`
	// UserAgent overrides the REST executor's User-Agent.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
	// RateLimit caps outgoing requests per second. Zero disables throttling.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit" validate:"gte=0"`
	// RateBurst is the token bucket size. Defaults to 1 when RateLimit is set.
	RateBurst int `json:"rate_burst" yaml:"rate_burst" mapstructure:"rate_burst" validate:"gte=0"`
	// BatchLimit bounds concurrent requests in a batch.
	BatchLimit int `json:"batch_limit" yaml:"batch_limit" mapstructure:"batch_limit" validate:"gte=0"`
	// CacheTTL is how long loaded documents are reused. Negative disables
	// the cache.
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl" mapstructure:"cache_ttl"`
	// StrictDocuments rejects documents without name, version or method ids.
	StrictDocuments bool `json:"strict_documents" yaml:"strict_documents" mapstructure:"strict_documents"`
	// StrictNamespace fails client construction on namespace collisions.
	StrictNamespace bool `json:"strict_namespace" yaml:"strict_namespace" mapstructure:"strict_namespace"`
	// Debug enables verbose logging.
	Debug bool `json:"debug" yaml:"debug" mapstructure:"debug"`
	// Timeouts configures per-operation timeouts. See Timeouts.WithDefaults.
	Timeouts Timeouts `json:"timeouts" yaml:"timeouts" mapstructure:"timeouts"`
}

// Timeouts controls SDK operation deadlines. Zero values are replaced in
// WithDefaults.
type Timeouts struct {
	Fetch   time.Duration `json:"fetch" yaml:"fetch" mapstructure:"fetch"`       // document download
	Request time.Duration `json:"request" yaml:"request" mapstructure:"request"` // one API call
	Dial    time.Duration `json:"dial" yaml:"dial" mapstructure:"dial"`          // gRPC connect
	Batch   time.Duration `json:"batch" yaml:"batch" mapstructure:"batch"`       // whole batch
}

var validate = validator.New()

// Validate applies defaults for the endpoints, cache and batch limit, and
// rejects malformed URLs and negative limits.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.DiscoveryURL == "" {
		c.DiscoveryURL = DefaultDiscoveryURL
	}
	if c.IpfsURL == "" {
		c.IpfsURL = DefaultIpfsURL
	}
	if c.GatewayURL == "" {
		c.GatewayURL = DefaultGatewayURL
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.BatchLimit == 0 {
		c.BatchLimit = DefaultBatchLimit
	}
	if c.RateLimit > 0 && c.RateBurst == 0 {
		c.RateBurst = 1
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// WithDefaults returns a copy of t with zero values replaced:
//
//	Fetch:   30s
//	Request: 60s
//	Dial:    5s
//	Batch:   5m
func (t Timeouts) WithDefaults() Timeouts {
	tt := t
	if tt.Fetch == 0 {
		tt.Fetch = 30 * time.Second
	}
	if tt.Request == 0 {
		tt.Request = 60 * time.Second
	}
	if tt.Dial == 0 {
		tt.Dial = 5 * time.Second
	}
	if tt.Batch == 0 {
		tt.Batch = 5 * time.Minute
	}
	return tt
}
