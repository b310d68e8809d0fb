// Package oauth implements the OAuth identity provider integrations
// used for social login and account linking.
package oauth

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
)

// ErrUnsupportedProvider is returned for provider names not registered.
var ErrUnsupportedProvider = errors.New("unsupported OAuth provider")

// Identity is the normalized user identity returned by a provider.
type Identity struct {
	Provider string
	ID       string
	Email    string
	Name     string
}

// Provider abstracts a single OAuth identity provider.
type Provider interface {
	// Name returns the provider slug ("google", "github").
	Name() string
	// AuthCodeURL builds the authorization redirect URL for a state value.
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for a token.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	// Identity resolves the user identity behind an exchanged token.
	Identity(ctx context.Context, token *oauth2.Token) (*Identity, error)
	// IdentityFromAccessToken resolves an identity from a bare provider
	// access token, used by the account-linking flow.
	IdentityFromAccessToken(ctx context.Context, accessToken string) (*Identity, error)
}

// Registry holds the configured providers keyed by name.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds a Registry from the given providers, skipping nils.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

// Get returns the named provider or ErrUnsupportedProvider.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, ErrUnsupportedProvider
	}
	return p, nil
}
