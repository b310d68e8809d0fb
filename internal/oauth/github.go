package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubProvider authenticates users against GitHub's OAuth API.
type GitHubProvider struct {
	config *oauth2.Config
	// apiBase is overridable in tests.
	apiBase string
}

// NewGitHub configures the GitHub OAuth2 client. Returns nil when no
// client credentials are set.
func NewGitHub(clientID, clientSecret, redirectURL string) *GitHubProvider {
	if clientID == "" || clientSecret == "" {
		return nil
	}
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     github.Endpoint,
			Scopes:       []string{"read:user", "user:email"},
		},
		apiBase: "https://api.github.com",
	}
}

func (p *GitHubProvider) Name() string { return "github" }

func (p *GitHubProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.config.Exchange(ctx, code)
}

func (p *GitHubProvider) Identity(ctx context.Context, token *oauth2.Token) (*Identity, error) {
	return p.IdentityFromAccessToken(ctx, token.AccessToken)
}

// IdentityFromAccessToken calls the GitHub REST API for the user
// record, falling back to the emails endpoint when the profile email
// is private.
func (p *GitHubProvider) IdentityFromAccessToken(ctx context.Context, accessToken string) (*Identity, error) {
	var user struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := p.apiGet(ctx, accessToken, "/user", &user); err != nil {
		return nil, err
	}

	email := user.Email
	if email == "" {
		var emails []struct {
			Email   string `json:"email"`
			Primary bool   `json:"primary"`
		}
		if err := p.apiGet(ctx, accessToken, "/user/emails", &emails); err == nil {
			for _, e := range emails {
				if e.Primary {
					email = e.Email
					break
				}
			}
		}
	}
	if email == "" {
		return nil, fmt.Errorf("github account has no resolvable email")
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return &Identity{
		Provider: p.Name(),
		ID:       strconv.FormatInt(user.ID, 10),
		Email:    email,
		Name:     name,
	}, nil
}

func (p *GitHubProvider) apiGet(ctx context.Context, accessToken, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("github api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api: unexpected status %d for %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
