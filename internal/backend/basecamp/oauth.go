package basecamp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"ganttview/internal/service"
)

// oauthConfig builds the launchpad OAuth config for a redirect URI.
func (c *Client) oauthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.launchpadURL + "/authorization/new",
			TokenURL:  c.tokenURL(),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (c *Client) tokenURL() string {
	return c.launchpadURL + "/authorization/token"
}

// AuthCodeURL returns the launchpad authorization URL.
func (c *Client) AuthCodeURL(state, redirectURI string) string {
	return c.oauthConfig(redirectURI).AuthCodeURL(state, oauth2.SetAuthURLParam("type", "web_server"))
}

// Exchange trades an authorization code for credentials.
func (c *Client) Exchange(ctx context.Context, code, redirectURI string) (service.Credentials, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := c.oauthConfig(redirectURI).Exchange(ctx, code, oauth2.SetAuthURLParam("type", "web_server"))
	if err != nil {
		return service.Credentials{}, fmt.Errorf("failed to exchange code: %w: %w", retrieveKind(err), err)
	}

	return service.Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}, nil
}

// tokenResponse is launchpad's token endpoint body.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Refresh trades a refresh token for new credentials. Launchpad expects
// type=refresh rather than the standard grant_type, so the request is built
// by hand. The old refresh token is kept when none is returned.
func (c *Client) Refresh(caller context.Context, refreshToken string) (service.Credentials, error) {
	ctx, cancel := context.WithTimeout(caller, APITimeout)
	defer cancel()

	form := url.Values{
		"type":          {"refresh"},
		"refresh_token": {refreshToken},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return service.Credentials{}, fmt.Errorf("%w: build refresh request: %w", service.ErrGeneric, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.do(caller, req)
	if err != nil {
		return service.Credentials{}, fmt.Errorf("failed to refresh token: %w", err)
	}

	var body tokenResponse
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return service.Credentials{}, fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if body.AccessToken == "" {
		return service.Credentials{}, fmt.Errorf("%w: refresh response has no access token", service.ErrGeneric)
	}

	creds := service.Credentials{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
	}
	if creds.RefreshToken == "" {
		creds.RefreshToken = refreshToken
	}
	if body.ExpiresIn > 0 {
		creds.Expiry = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	}

	c.log.Debug("refreshed access token")
	return creds, nil
}

// Accounts returns the user's accounts for the configured product.
func (c *Client) Accounts(ctx context.Context, token string) ([]service.Account, error) {
	resp, err := c.get(ctx, token, c.launchpadURL+"/authorization.json")
	if err != nil {
		return nil, err
	}

	var auth authorization
	if err := json.Unmarshal(resp.body, &auth); err != nil {
		return nil, fmt.Errorf("failed to decode authorization: %w", err)
	}

	accounts := []service.Account{}
	for _, acct := range auth.Accounts {
		if acct.Product == c.product {
			accounts = append(accounts, acct)
		}
	}
	return accounts, nil
}

// retrieveKind maps an oauth2 token endpoint failure to an error kind.
func retrieveKind(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return service.KindForStatus(re.Response.StatusCode)
	}
	return service.ErrGeneric
}
