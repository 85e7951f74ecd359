package storage

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ipfs/kubo/client/rpc"
	"go.uber.org/zap"
)

const (
	// IpfsPrefix is the URI scheme recognized for IPFS content.
	IpfsPrefix = "ipfs://"
	// GatewayPrefix routes a reference through the HTTP gateway instead of the
	// IPFS API.
	GatewayPrefix = "gateway://"
	// FilecoinPrefix is accepted as an alias of GatewayPrefix.
	FilecoinPrefix = "filecoin://"
)

// ErrNotConfigured is returned when the backend a reference needs has no
// endpoint.
var ErrNotConfigured = errors.New("storage backend not configured")

// Fetcher retrieves content by reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, ref string) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, ref string) ([]byte, error) { return f(ctx, ref) }

// Client routes references to the IPFS API or to the HTTP gateway.
type Client struct {
	api        *rpc.HttpApi
	gatewayURL string

	ipfs    Fetcher
	gateway Fetcher
}

// NewStorage connects to the IPFS API at ipfsURL and the gateway at
// gatewayURL. Either may be empty; references needing the missing backend
// fail with ErrNotConfigured.
func NewStorage(ipfsURL, gatewayURL string, timeout time.Duration) (*Client, error) {
	s := &Client{gatewayURL: gatewayURL}
	if ipfsURL != "" {
		api, err := NewIPFSClient(ipfsURL, timeout)
		if err != nil {
			return nil, err
		}
		s.api = api
	}
	s.ipfs = newIPFSFetcher(s.api)
	s.gateway = newGatewayFetcher(gatewayURL, &http.Client{Timeout: timeout})
	return s, nil
}

// ReadFile fetches the content behind ref. References with the gateway or
// filecoin scheme go through the gateway; everything else is read from IPFS.
func (s *Client) ReadFile(ctx context.Context, ref string) ([]byte, error) {
	if s.gateway == nil {
		s.gateway = newGatewayFetcher(s.gatewayURL, nil)
	}
	if s.ipfs == nil {
		s.ipfs = newIPFSFetcher(s.api)
	}
	if strings.HasPrefix(ref, GatewayPrefix) || strings.HasPrefix(ref, FilecoinPrefix) {
		return s.gateway.Fetch(ctx, NormalizeRef(ref))
	}
	return s.ipfs.Fetch(ctx, NormalizeRef(ref))
}

// Upload adds data to IPFS and returns its ipfs:// reference.
func (s *Client) Upload(ctx context.Context, data []byte) (string, error) {
	if s.api == nil {
		return "", ErrNotConfigured
	}
	return upload(ctx, s.api, data)
}

var refSanitizer = regexp.MustCompile("[^a-zA-Z0-9=]")

// NormalizeRef strips known schemes and any character that cannot appear in
// a CID.
func NormalizeRef(ref string) string {
	for _, p := range []string{IpfsPrefix, GatewayPrefix, FilecoinPrefix} {
		ref = strings.TrimPrefix(ref, p)
	}
	return refSanitizer.ReplaceAllString(ref, "")
}

func logger() *zap.Logger { return zap.L().Named("storage") }
