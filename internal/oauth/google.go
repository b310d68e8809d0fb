package oauth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleProvider authenticates users against Google via OIDC.
type GoogleProvider struct {
	config   *oauth2.Config
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
}

// NewGoogle discovers the Google OIDC endpoints and configures the
// OAuth2 client. Returns nil when no client credentials are set, so
// the provider simply stays unregistered.
func NewGoogle(ctx context.Context, clientID, clientSecret, redirectURL string) (*GoogleProvider, error) {
	if clientID == "" || clientSecret == "" {
		return nil, nil
	}

	provider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("oidc provider: %w", err)
	}

	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.config.Exchange(ctx, code)
}

// Identity verifies the ID token carried in the exchanged token and
// extracts the stable subject, email and display name.
func (p *GoogleProvider) Identity(ctx context.Context, token *oauth2.Token) (*Identity, error) {
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("no id_token in token response")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}

	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse id token claims: %w", err)
	}

	return &Identity{
		Provider: p.Name(),
		ID:       idToken.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
	}, nil
}

// IdentityFromAccessToken resolves an identity through the UserInfo
// endpoint, for callers that hold a provider access token directly.
func (p *GoogleProvider) IdentityFromAccessToken(ctx context.Context, accessToken string) (*Identity, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	info, err := p.provider.UserInfo(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("userinfo: %w", err)
	}

	var claims struct {
		Name string `json:"name"`
	}
	_ = info.Claims(&claims)

	return &Identity{
		Provider: p.Name(),
		ID:       info.Subject,
		Email:    info.Email,
		Name:     claims.Name,
	}, nil
}
