// Package auth confirms that a caller holds a valid client credential pair by
// exchanging it for a token at the identity provider.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/cimillas/ticket-issuer/internal/domain"
)

const defaultTimeout = 10 * time.Second

// Identity is what a successful exchange establishes about the caller. The
// issued token itself is not kept.
type Identity struct {
	ClientID  string
	TokenType string
	ExpiresAt time.Time
}

type Verifier struct {
	tokenURL string
	audience string
	client   *http.Client
	timeout  time.Duration
	logger   *slog.Logger
}

type Option func(*Verifier)

// WithHTTPClient sets the transport for token requests. The verifier's timeout
// is applied to a copy.
func WithHTTPClient(c *http.Client) Option {
	return func(v *Verifier) {
		if c != nil {
			v.client = c
		}
	}
}

// WithTokenURL points the verifier at a specific token endpoint.
func WithTokenURL(u string) Option {
	return func(v *Verifier) { v.tokenURL = u }
}

func WithAudience(aud string) Option {
	return func(v *Verifier) { v.audience = aud }
}

func WithTimeout(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewVerifier targets https://<domain>/oauth/token with audience
// https://<domain>/api/v2/.
func NewVerifier(providerDomain string, opts ...Option) *Verifier {
	host := strings.TrimSuffix(strings.TrimPrefix(providerDomain, "https://"), "/")
	v := &Verifier{
		tokenURL: "https://" + host + "/oauth/token",
		audience: "https://" + host + "/api/v2/",
		client:   http.DefaultClient,
		timeout:  defaultTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	// The caller's client is never mutated.
	client := *v.client
	client.Timeout = v.timeout
	v.client = &client
	return v
}

// Verify exchanges the credential pair using the client-credentials grant.
// Every failure, including missing credentials, is reported as
// domain.ErrUnauthorized.
func (v *Verifier) Verify(ctx context.Context, clientID, clientSecret string) (Identity, error) {
	if clientID == "" || clientSecret == "" {
		return Identity{}, domain.ErrUnauthorized
	}

	cfg := clientcredentials.Config{
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		TokenURL:       v.tokenURL,
		EndpointParams: url.Values{"audience": {v.audience}},
		AuthStyle:      oauth2.AuthStyleInParams,
	}

	tok, err := cfg.Token(context.WithValue(ctx, oauth2.HTTPClient, v.client))
	if err != nil {
		v.logger.WarnContext(ctx, "client credential exchange failed", "client_id", clientID, "err", err)
		return Identity{}, domain.ErrUnauthorized
	}

	return Identity{
		ClientID:  clientID,
		TokenType: tok.Type(),
		ExpiresAt: tok.Expiry,
	}, nil
}
