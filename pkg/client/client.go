package client

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/shamank/discovery-sdk-go/pkg/auth"
	"github.com/shamank/discovery-sdk-go/pkg/model"
	"github.com/shamank/discovery-sdk-go/pkg/namespace"
	"github.com/shamank/discovery-sdk-go/pkg/request"
	"go.uber.org/zap"
)

// ErrNamespaceConflict is returned in strict mode when two methods resolve
// to the same namespace path.
var ErrNamespaceConflict = errors.New("namespace conflict")

// Client owns one metadata document, the current auth client and the
// namespace of generated helpers.
type Client struct {
	meta        *model.APIMetadata
	auth        atomic.Pointer[authRef]
	root        *namespace.Node[Helper]
	unreachable []string

	strict bool
	logger *zap.Logger
}

// authRef boxes the interface so it can be swapped atomically.
type authRef struct {
	c auth.Client
}

// Option configures a Client.
type Option func(*Client) error

// WithAuth sets the initial auth client.
func WithAuth(a auth.Client) Option {
	return func(c *Client) error {
		c.setAuth(a)
		return nil
	}
}

// WithStrictNamespace makes New fail with ErrNamespaceConflict instead of
// letting the later method replace the earlier one.
func WithStrictNamespace() Option {
	return func(c *Client) error {
		c.strict = true
		return nil
	}
}

// WithLogger sets the logger used during registration. Defaults to zap.L().
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) error {
		if l == nil {
			return errors.New("logger must not be nil")
		}
		c.logger = l
		return nil
	}
}

// New creates a client for meta and registers one helper per entry of
// meta.Methods. A nil document or method table yields a client without
// helpers that can still build requests through NewRequest.
//
// Methods are registered in lexical order of their keys, so when two
// identifiers map to the same path the lexically last one wins. With
// WithStrictNamespace the collision is reported as ErrNamespaceConflict.
func New(meta *model.APIMetadata, opts ...Option) (*Client, error) {
	if meta == nil {
		meta = &model.APIMetadata{}
	}
	c := &Client{
		meta: meta,
		root: namespace.New[Helper](),
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	if c.logger == nil {
		c.logger = zap.L()
	}
	if err := c.registerHelpers(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNew is like New but panics on error.
func MustNew(meta *model.APIMetadata, opts ...Option) *Client {
	c, err := New(meta, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Client) registerHelpers() error {
	for _, key := range c.meta.MethodKeys() {
		m := c.meta.Methods[key]
		if m == nil {
			c.logger.Warn("skipping nil method metadata", zap.String("key", key))
			continue
		}
		id := m.ID
		if id == "" {
			id = key
		}
		switch c.root.Insert(id, newHelper(c, id)) {
		case namespace.Skipped:
			c.unreachable = append(c.unreachable, id)
			c.logger.Debug("method id has no namespace path; reachable through NewRequest only",
				zap.String("api", c.meta.Name), zap.String("method", id))
		case namespace.Replaced:
			if c.strict {
				return fmt.Errorf("%w: %s", ErrNamespaceConflict, id)
			}
			c.logger.Warn("method replaced an earlier helper at the same path",
				zap.String("api", c.meta.Name), zap.String("method", id))
		}
	}
	return nil
}

// Name returns the API name from the metadata.
func (c *Client) Name() string { return c.meta.Name }

// Version returns the API version from the metadata.
func (c *Client) Version() string { return c.meta.Version }

// Metadata returns the document the client was built from.
func (c *Client) Metadata() *model.APIMetadata { return c.meta }

// WithAuthClient replaces the auth client and returns c. Requests built
// afterwards carry a; requests built earlier keep what they captured.
// Concurrent swaps are last-writer-wins.
func (c *Client) WithAuthClient(a auth.Client) *Client {
	c.setAuth(a)
	return c
}

// AuthClient returns the current auth client, or nil.
func (c *Client) AuthClient() auth.Client {
	if ref := c.auth.Load(); ref != nil {
		return ref.c
	}
	return nil
}

func (c *Client) setAuth(a auth.Client) {
	c.auth.Store(&authRef{c: a})
}

// NewRequest builds a descriptor for methodID bound to the current auth
// client. methodID is not checked against the metadata, so callers may
// target methods the document does not list.
func (c *Client) NewRequest(methodID string, params request.Params, resource ...any) *request.Request {
	return request.New(c.meta, methodID, params, resource...).WithAuthClient(c.AuthClient())
}

// Namespace returns the root of the helper tree.
func (c *Client) Namespace() *namespace.Node[Helper] { return c.root }

// Lookup returns the node at path, e.g. "events" or "events.list".
func (c *Client) Lookup(path string) (*namespace.Node[Helper], bool) {
	return c.root.Lookup(path)
}

// Helper returns the helper installed at path.
func (c *Client) Helper(path string) (Helper, bool) {
	n, ok := c.root.Lookup(path)
	if !ok {
		return Helper{}, false
	}
	return n.Value()
}

// Paths lists every installed helper path in lexical order.
func (c *Client) Paths() []string { return c.root.Paths() }

// Unreachable lists method identifiers that could not be installed because
// they have a single segment or an empty segment after the service prefix.
func (c *Client) Unreachable() []string { return c.unreachable }
