package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shamank/discovery-sdk-go/pkg/model"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultBaseURL is the public Google APIs Discovery Service.
const DefaultBaseURL = "https://www.googleapis.com/discovery/v1"

const (
	maxDocumentSize     = 16 << 20
	defaultFetchTimeout = 30 * time.Second
)

var (
	// ErrNotFound is returned when the discovery service has no document for
	// the requested API and version.
	ErrNotFound = errors.New("api document not found")
	// ErrNoStorage is returned by LoadIPFS when the loader has no storage.
	ErrNoStorage = errors.New("loader has no content storage")
)

// ContentReader reads content-addressed blobs. *storage.Client implements it.
type ContentReader interface {
	ReadFile(ctx context.Context, ref string) ([]byte, error)
}

// DirectoryItem is one entry of the discovery directory listing.
type DirectoryItem struct {
	Kind             string `json:"kind,omitempty"`
	ID               string `json:"id"`
	Name             string `json:"name"`
	Version          string `json:"version"`
	Title            string `json:"title,omitempty"`
	Description      string `json:"description,omitempty"`
	DiscoveryRestURL string `json:"discoveryRestUrl,omitempty"`
	Preferred        bool   `json:"preferred,omitempty"`
}

type cacheEntry struct {
	meta    *model.APIMetadata
	expires time.Time
}

// Loader fetches and parses API documents. Parsed documents are cached per
// source for the configured TTL and concurrent loads of the same source
// share one fetch. The shared fetch is bounded by the fetch timeout rather
// than by any single caller's context, so a caller that gives up does not
// fail the others waiting on the same source. Cached documents are shared,
// so callers must treat them as read-only.
type Loader struct {
	baseURL      string
	http         *http.Client
	storage      ContentReader
	ttl          time.Duration
	fetchTimeout time.Duration
	strict       bool
	now          func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
	group singleflight.Group
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHTTPClient sets the client used for discovery requests.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *Loader) {
		if c != nil {
			l.http = c
		}
	}
}

// WithStorage enables LoadIPFS.
func WithStorage(s ContentReader) LoaderOption {
	return func(l *Loader) { l.storage = s }
}

// WithTTL sets how long parsed documents stay cached. Zero disables caching.
func WithTTL(ttl time.Duration) LoaderOption {
	return func(l *Loader) { l.ttl = ttl }
}

// WithFetchTimeout bounds each shared document fetch. Non-positive values
// keep the default.
func WithFetchTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d > 0 {
			l.fetchTimeout = d
		}
	}
}

// WithStrict runs Validate on every loaded document.
func WithStrict() LoaderOption {
	return func(l *Loader) { l.strict = true }
}

// NewLoader returns a loader for the discovery service at baseURL, or
// DefaultBaseURL when baseURL is empty.
func NewLoader(baseURL string, opts ...LoaderOption) *Loader {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	l := &Loader{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:         &http.Client{Timeout: defaultFetchTimeout},
		ttl:          10 * time.Minute,
		fetchTimeout: defaultFetchTimeout,
		now:          time.Now,
		cache:        make(map[string]cacheEntry),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load fetches {base}/apis/{api}/{version}/rest.
func (l *Loader) Load(ctx context.Context, api, version string) (*model.APIMetadata, error) {
	u := fmt.Sprintf("%s/apis/%s/%s/rest", l.baseURL, url.PathEscape(api), url.PathEscape(version))
	return l.LoadURL(ctx, u)
}

// LoadURL fetches a document from an absolute URL.
func (l *Loader) LoadURL(ctx context.Context, rawURL string) (*model.APIMetadata, error) {
	return l.load(ctx, rawURL, func(ctx context.Context) ([]byte, error) {
		return l.get(ctx, rawURL)
	})
}

// LoadFile reads a document from disk.
func (l *Loader) LoadFile(path string) (*model.APIMetadata, error) {
	return l.load(context.Background(), "file:"+path, func(context.Context) ([]byte, error) {
		return os.ReadFile(path)
	})
}

// LoadIPFS reads a document published to content storage, e.g.
// "ipfs://bafy...".
func (l *Loader) LoadIPFS(ctx context.Context, ref string) (*model.APIMetadata, error) {
	if l.storage == nil {
		return nil, ErrNoStorage
	}
	return l.load(ctx, "ipfs:"+ref, func(ctx context.Context) ([]byte, error) {
		return l.storage.ReadFile(ctx, ref)
	})
}

// Directory lists the APIs known to the discovery service.
func (l *Loader) Directory(ctx context.Context) ([]DirectoryItem, error) {
	body, err := l.get(ctx, l.baseURL+"/apis")
	if err != nil {
		return nil, err
	}
	var list struct {
		Items []DirectoryItem `json:"items"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode directory: %w", err)
	}
	return list.Items, nil
}

// Purge drops every cached document.
func (l *Loader) Purge() {
	l.mu.Lock()
	clear(l.cache)
	l.mu.Unlock()
}

func (l *Loader) load(ctx context.Context, key string, fetch func(context.Context) ([]byte, error)) (*model.APIMetadata, error) {
	if meta, ok := l.cached(key); ok {
		return meta, nil
	}
	ch := l.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.fetchTimeout)
		defer cancel()

		data, err := fetch(fetchCtx)
		if err != nil {
			zap.L().Error("failed to fetch api document", zap.String("source", key), zap.Error(err))
			return nil, err
		}
		meta, err := Parse(data)
		if err != nil {
			return nil, err
		}
		if l.strict {
			if err := Validate(meta); err != nil {
				return nil, err
			}
		}
		l.store(key, meta)
		zap.L().Debug("loaded api document", zap.String("source", key),
			zap.String("api", meta.Name), zap.String("version", meta.Version), zap.Int("methods", len(meta.Methods)))
		return meta, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.APIMetadata), nil
	}
}

func (l *Loader) cached(key string) (*model.APIMetadata, bool) {
	if l.ttl <= 0 {
		return nil, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.cache[key]
	if !ok {
		return nil, false
	}
	if l.now().After(e.expires) {
		delete(l.cache, key)
		return nil, false
	}
	return e.meta, true
}

func (l *Loader) store(key string, meta *model.APIMetadata) {
	if l.ttl <= 0 {
		return
	}
	l.mu.Lock()
	l.cache[key] = cacheEntry{meta: meta, expires: l.now().Add(l.ttl)}
	l.mu.Unlock()
}

func (l *Loader) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, u)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("get %s: status %d", u, resp.StatusCode)
	}
	return body, nil
}
