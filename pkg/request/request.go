// Package request defines the request descriptor produced by clients and the
// executor contract that turns descriptors into calls.
package request

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/google/uuid"
	"github.com/shamank/discovery-sdk-go/pkg/auth"
	"github.com/shamank/discovery-sdk-go/pkg/model"
)

// ErrNoExecutor is returned by Execute when no executor is supplied.
var ErrNoExecutor = errors.New("request executor is required")

// Request is a self-contained description of one pending call. It is
// created fresh for every invocation and never refers back to the client
// that built it.
type Request struct {
	id          string
	meta        *model.APIMetadata
	methodID    string
	params      Params
	resource    any
	hasResource bool
	authClient  auth.Client
}

// New builds a descriptor for methodID. params is copied; resource is
// optional and only the first value is used.
func New(meta *model.APIMetadata, methodID string, params Params, resource ...any) *Request {
	r := &Request{
		id:       uuid.NewString(),
		meta:     meta,
		methodID: methodID,
		params:   maps.Clone(params),
	}
	if len(resource) > 0 {
		r.resource = resource[0]
		r.hasResource = true
	}
	return r
}

// WithAuthClient attaches a (possibly nil) auth client and returns r.
func (r *Request) WithAuthClient(c auth.Client) *Request {
	r.authClient = c
	return r
}

// ID is a unique identifier assigned when the descriptor was built.
func (r *Request) ID() string { return r.id }

// Metadata returns the API document the descriptor was built from.
func (r *Request) Metadata() *model.APIMetadata { return r.meta }

// MethodID returns the dotted method identifier.
func (r *Request) MethodID() string { return r.methodID }

// Params returns the call parameters. Callers must not mutate the map.
func (r *Request) Params() Params { return r.params }

// Resource returns the request body, if any.
func (r *Request) Resource() any { return r.resource }

// HasResource reports whether a body was supplied, even a nil one.
func (r *Request) HasResource() bool { return r.hasResource }

// AuthClient returns the auth client captured when the descriptor was built.
func (r *Request) AuthClient() auth.Client { return r.authClient }

// Method resolves MethodID against the metadata. The identifier is not
// validated at construction, so the method may be unknown.
func (r *Request) Method() (*model.MethodMetadata, bool) {
	return r.meta.Method(r.methodID)
}

func (r *Request) String() string {
	return fmt.Sprintf("%s(%s)", r.methodID, r.id)
}

// Executor performs a request and returns the raw response.
type Executor interface {
	Do(ctx context.Context, r *Request) (*Response, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, r *Request) (*Response, error)

// Do calls f.
func (f ExecutorFunc) Do(ctx context.Context, r *Request) (*Response, error) {
	return f(ctx, r)
}

// Execute runs r through exec and decodes a JSON body into out. out may be nil.
func (r *Request) Execute(ctx context.Context, exec Executor, out any) (*Response, error) {
	if exec == nil {
		return nil, ErrNoExecutor
	}
	resp, err := exec.Do(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("execute %s: %w", r.methodID, err)
	}
	if out != nil {
		if err := resp.Decode(out); err != nil {
			return resp, fmt.Errorf("decode %s response: %w", r.methodID, err)
		}
	}
	return resp, nil
}
