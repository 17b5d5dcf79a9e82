// Package identity authenticates users with Google.
package identity

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"ganttview/internal/service"
)

// exchangeTimeout bounds the code exchange plus the userinfo lookup.
const exchangeTimeout = 30 * time.Second

// Provider is a login identity provider.
type Provider interface {
	// AuthCodeURL returns the URL the user is sent to for login.
	AuthCodeURL(state string) string

	// Authenticate exchanges a callback code for the user's identity.
	Authenticate(ctx context.Context, code string) (*service.User, error)
}

// Google implements Provider with Google OAuth and the userinfo API.
type Google struct {
	cfg        *oauth2.Config
	httpClient *http.Client
	endpoint   string
}

// Option configures Google.
type Option func(*Google)

// WithHTTPClient sets the base HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(g *Google) { g.httpClient = hc }
}

// WithEndpoints overrides the OAuth token URL and the userinfo API base
// (for testing).
func WithEndpoints(tokenURL, apiEndpoint string) Option {
	return func(g *Google) {
		g.cfg.Endpoint.TokenURL = tokenURL
		g.endpoint = apiEndpoint
	}
}

// NewGoogle creates a Google identity provider.
func NewGoogle(clientID, clientSecret, callbackURL string, opts ...Option) *Google {
	g := &Google{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				oauth2api.OpenIDScope,
				oauth2api.UserinfoProfileScope,
				oauth2api.UserinfoEmailScope,
			},
		},
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AuthCodeURL returns the Google consent URL.
func (g *Google) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state)
}

// Authenticate exchanges the code and looks up the user's profile.
// The Google token is used once and not kept.
func (g *Google) Authenticate(ctx context.Context, code string) (*service.User, error) {
	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)

	token, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, g.cfg.TokenSource(ctx, token)))}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}

	name := info.Name
	if name == "" {
		name = info.Email
	}
	return &service.User{
		ID:          info.Id,
		DisplayName: name,
		Email:       info.Email,
		Photo:       info.Picture,
	}, nil
}
