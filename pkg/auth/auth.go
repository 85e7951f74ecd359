// Package auth defines the credential handles that clients forward to
// request executors. The client core never calls them; executors ask for
// the header set right before a call goes out.
package auth

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"google.golang.org/grpc/metadata"
)

// Client is an opaque credential handle. Credentials returns the header
// values to attach to one outgoing call; implementations own token refresh
// and caching.
type Client interface {
	Credentials(ctx context.Context) (map[string]string, error)
}

// ErrNoToken is returned when a token source yields an empty access token.
var ErrNoToken = errors.New("token source returned an empty access token")

// Func adapts a plain function to Client.
type Func func(ctx context.Context) (map[string]string, error)

// Credentials calls f.
func (f Func) Credentials(ctx context.Context) (map[string]string, error) {
	return f(ctx)
}

type apiKey string

// APIKey returns a Client that sends key in the APIKeyHeader header.
func APIKey(key string) Client {
	return apiKey(key)
}

func (k apiKey) Credentials(context.Context) (map[string]string, error) {
	return map[string]string{APIKeyHeader: string(k)}, nil
}

type static map[string]string

// Static returns a Client that always yields a copy of headers.
func Static(headers map[string]string) Client {
	return static(maps.Clone(headers))
}

func (s static) Credentials(context.Context) (map[string]string, error) {
	return maps.Clone(s), nil
}

type tokenSource struct {
	ts oauth2.TokenSource
}

// TokenSource returns a Client backed by an oauth2 token source. The source
// is wrapped in oauth2.ReuseTokenSource, so tokens are cached until expiry.
func TokenSource(ts oauth2.TokenSource) Client {
	return &tokenSource{ts: oauth2.ReuseTokenSource(nil, ts)}
}

// BearerToken returns a Client that sends a fixed bearer token.
func BearerToken(token string) Client {
	return &tokenSource{ts: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})}
}

// ClientCredentials returns a Client running the OAuth2 client credentials
// flow described by cfg. ctx is used for token fetches, not for the
// lifetime of the returned Client.
func ClientCredentials(ctx context.Context, cfg *clientcredentials.Config) Client {
	return &tokenSource{ts: cfg.TokenSource(ctx)}
}

func (t *tokenSource) Credentials(context.Context) (map[string]string, error) {
	tok, err := t.ts.Token()
	if err != nil {
		return nil, fmt.Errorf("fetch token: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, ErrNoToken
	}
	return map[string]string{AuthorizationHeader: tok.Type() + " " + tok.AccessToken}, nil
}

// OutgoingContext attaches the credentials of c to ctx as outgoing gRPC
// metadata. A nil c returns ctx unchanged.
func OutgoingContext(ctx context.Context, c Client) (context.Context, error) {
	if c == nil {
		return ctx, nil
	}
	creds, err := c.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	pairs := make([]string, 0, len(creds)*2)
	for k, v := range creds {
		pairs = append(pairs, k, v)
	}
	return metadata.AppendToOutgoingContext(ctx, pairs...), nil
}
