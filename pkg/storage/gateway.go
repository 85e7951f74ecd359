package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

const maxGatewayBody = 32 << 20

type gatewayFetcher struct {
	endpoint string
	client   *http.Client
}

func newGatewayFetcher(endpoint string, client *http.Client) Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &gatewayFetcher{endpoint: endpoint, client: client}
}

func (g *gatewayFetcher) Fetch(ctx context.Context, cid string) ([]byte, error) {
	if g.endpoint == "" {
		return nil, fmt.Errorf("gateway: %w", ErrNotConfigured)
	}
	return GetGatewayFile(ctx, g.client, g.endpoint, cid)
}

// GetGatewayFile fetches {endpoint}{cid} with a GET. The CID is appended as
// is, so endpoint usually ends in "/ipfs/".
func GetGatewayFile(ctx context.Context, client *http.Client, endpoint, cid string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	logger().Debug("reading from gateway", zap.String("cid", cid))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+cid, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway get %s: %w", cid, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxGatewayBody))
	if err != nil {
		return nil, fmt.Errorf("gateway read %s: %w", cid, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway get %s: status %d", cid, resp.StatusCode)
	}
	return body, nil
}
