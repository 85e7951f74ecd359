package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// JWTConfig describes a self-signed JWT used directly as an access token.
type JWTConfig struct {
	// Issuer and Subject are usually the service account email.
	Issuer  string
	Subject string
	// Audience is the API the token is minted for, e.g. "https://calendar.googleapis.com/".
	Audience string
	// KeyID is placed in the "kid" header when set.
	KeyID string
	// Method signs the token. Defaults to RS256.
	Method jwt.SigningMethod
	// Key is the signing key accepted by Method (e.g. *rsa.PrivateKey, []byte for HS256).
	Key any
	// Lifetime of each token. Defaults to one hour.
	Lifetime time.Duration

	now func() time.Time
}

// NewJWTAccess returns a Client that mints self-signed JWT access tokens.
// Tokens are reused until they expire.
func NewJWTAccess(cfg JWTConfig) (Client, error) {
	if cfg.Key == nil {
		return nil, errors.New("jwt signing key is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("jwt audience is required")
	}
	if cfg.Method == nil {
		cfg.Method = jwt.SigningMethodRS256
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = time.Hour
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return TokenSource(&jwtSource{cfg: cfg}), nil
}

type jwtSource struct {
	cfg JWTConfig
}

func (s *jwtSource) Token() (*oauth2.Token, error) {
	now := s.cfg.now()
	exp := now.Add(s.cfg.Lifetime)
	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   s.cfg.Subject,
		Audience:  jwt.ClaimStrings{s.cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(s.cfg.Method, claims)
	if s.cfg.KeyID != "" {
		tok.Header["kid"] = s.cfg.KeyID
	}
	signed, err := tok.SignedString(s.cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("sign jwt: %w", err)
	}
	return &oauth2.Token{
		AccessToken: signed,
		TokenType:   "Bearer",
		Expiry:      exp,
	}, nil
}
