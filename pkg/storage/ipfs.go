package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ipfs/boxo/files"
	"github.com/ipfs/go-cid"
	"github.com/ipfs/kubo/client/rpc"
	"go.uber.org/zap"
)

// ErrCIDMismatch is returned when raw-codec content does not hash to the CID
// it was requested by.
var ErrCIDMismatch = errors.New("content does not match cid")

// NewIPFSClient constructs a Kubo HTTP API client pointed at url.
func NewIPFSClient(url string, timeout time.Duration) (*rpc.HttpApi, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	api, err := rpc.NewURLApiWithClient(url, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("connect to ipfs %s: %w", url, err)
	}
	return api, nil
}

type ipfsFetcher struct {
	api *rpc.HttpApi
}

func newIPFSFetcher(api *rpc.HttpApi) Fetcher {
	return &ipfsFetcher{api: api}
}

// Fetch runs `ipfs cat` for hash. Content addressed with the raw codec is
// verified against the CID; other codecs hash the DAG encoding rather than
// the file bytes, so they are returned unverified.
func (f *ipfsFetcher) Fetch(ctx context.Context, hash string) ([]byte, error) {
	if f.api == nil {
		return nil, fmt.Errorf("ipfs: %w", ErrNotConfigured)
	}
	hash = NormalizeRef(hash)
	c, err := cid.Parse(hash)
	if err != nil {
		return nil, fmt.Errorf("parse cid %q: %w", hash, err)
	}
	logger().Debug("reading from ipfs", zap.Stringer("cid", c))

	resp, err := f.api.Request("cat", c.String()).Send(ctx)
	if err != nil {
		logger().Error("ipfs cat failed", zap.Stringer("cid", c), zap.Error(err))
		return nil, fmt.Errorf("ipfs cat %s: %w", c, err)
	}
	defer func() {
		if cerr := resp.Close(); cerr != nil {
			logger().Warn("closing ipfs response", zap.Error(cerr))
		}
	}()
	if resp.Error != nil {
		return nil, fmt.Errorf("ipfs cat %s: %w", c, resp.Error)
	}
	content, err := io.ReadAll(resp.Output)
	if err != nil {
		return nil, fmt.Errorf("read ipfs content %s: %w", c, err)
	}
	if err := verifyCID(c, content); err != nil {
		return nil, err
	}
	return content, nil
}

func verifyCID(c cid.Cid, content []byte) error {
	prefix := c.Prefix()
	if prefix.Codec != cid.Raw {
		return nil
	}
	sum, err := prefix.Sum(content)
	if err != nil {
		return fmt.Errorf("hash content for %s: %w", c, err)
	}
	if !sum.Equals(c) {
		logger().Error("ipfs content verification failed",
			zap.Stringer("expected", c), zap.Stringer("computed", sum))
		return fmt.Errorf("%w: expected %s, got %s", ErrCIDMismatch, c, sum)
	}
	return nil
}

func upload(ctx context.Context, api *rpc.HttpApi, data []byte) (string, error) {
	p, err := api.Unixfs().Add(ctx, files.NewReaderFile(bytes.NewReader(data)))
	if err != nil {
		logger().Error("ipfs add failed", zap.Error(err))
		return "", fmt.Errorf("ipfs add: %w", err)
	}
	ref := IpfsPrefix + p.RootCid().String()
	logger().Debug("uploaded to ipfs", zap.String("ref", ref))
	return ref, nil
}
