// Package config provides configuration for the discovery SDK.
//
// # Basic Configuration
//
// The zero Config is usable; Validate fills in the public discovery service,
// a local IPFS API and a public gateway:
//
//	cfg := &config.Config{}
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
// # Document Sources
//
//   - DiscoveryURL: base of the discovery service. Documents are read from
//     {DiscoveryURL}/apis/{api}/{version}/rest.
//     Default: https://www.googleapis.com/discovery/v1
//   - IpfsURL: Kubo HTTP API used for ipfs:// documents and proto bundles.
//     Default: http://127.0.0.1:5001
//   - GatewayURL: HTTP gateway for gateway:// references.
//     Default: https://ipfs.io/ipfs/
//
// Loaded documents are cached for CacheTTL (default 10m). Set it negative
// to always refetch.
//
// # Throttling
//
// RateLimit caps requests per second across one SDK instance, with RateBurst
// tokens of headroom. BatchLimit bounds how many requests of a batch run at
// once.
//
// # Timeouts
//
// Timeouts.WithDefaults fills zero values:
//
//	Fetch:   30s  downloading a document
//	Request: 60s  one API call
//	Dial:    5s   connecting to a gRPC endpoint
//	Batch:   5m   a whole batch
//
// # Files and Environment
//
// NewViper and Load read YAML, JSON or TOML files plus environment
// variables. With the prefix DISCOVERYCTL, rate_limit comes from
// DISCOVERYCTL_RATE_LIMIT and timeouts.fetch from DISCOVERYCTL_TIMEOUTS_FETCH:
//
//	cfg, err := config.Load(config.NewViper("discoveryctl.yaml", "DISCOVERYCTL"))
//
// # Validation
//
// Validate rejects malformed URLs and negative limits. It mutates the
// receiver, so call it once before handing the config to sdk.New.
package config
