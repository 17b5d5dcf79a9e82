// Package basecamp implements the service.Service interface using the Basecamp 4 API.
package basecamp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"ganttview/internal/logging"
	"ganttview/internal/service"
)

const (
	// DefaultAPIURL is the resource API host. Paths are scoped by account id.
	DefaultAPIURL = "https://3.basecampapi.com"

	// DefaultLaunchpadURL hosts OAuth and the authorization-info endpoint.
	DefaultLaunchpadURL = "https://launchpad.37signals.com"

	// DefaultUserAgent identifies the client, as Basecamp requires.
	DefaultUserAgent = "Basecamp Gantt Viewer (ganttview@example.com)"

	// APITimeout is the timeout for a single API request.
	APITimeout = 10 * time.Second

	// todoSetDock is the dock entry name that points at a project's to-do set.
	todoSetDock = "todoset"
)

var _ service.Service = (*Client)(nil)

// Client implements service.Service using the Basecamp API.
// It holds no per-user state; every call takes the access token.
type Client struct {
	httpClient   *http.Client
	apiURL       string
	launchpadURL string
	userAgent    string
	clientID     string
	clientSecret string
	product      string
	breaker      *gobreaker.CircuitBreaker
	log          *logrus.Entry
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAPIURL overrides the resource API host.
func WithAPIURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.apiURL = strings.TrimRight(u, "/")
		}
	}
}

// WithLaunchpadURL overrides the OAuth host.
func WithLaunchpadURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.launchpadURL = strings.TrimRight(u, "/")
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithOAuth sets the OAuth application credentials.
func WithOAuth(clientID, clientSecret string) Option {
	return func(c *Client) {
		c.clientID = clientID
		c.clientSecret = clientSecret
	}
}

// WithProduct overrides the account product discriminator.
func WithProduct(product string) Option {
	return func(c *Client) {
		if product != "" {
			c.product = product
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Entry) Option {
	return func(c *Client) { c.log = l }
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

// New creates a new Basecamp client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: APITimeout},
		apiURL:       DefaultAPIURL,
		launchpadURL: DefaultLaunchpadURL,
		userAgent:    DefaultUserAgent,
		product:      service.DefaultProduct,
		log:          logging.For("basecamp"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = newBreaker(c.log)
	}
	return c
}

// breakerMaxRequests admits a full list fan-out while half-open.
const breakerMaxRequests = 16

func newBreaker(log *logrus.Entry) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "basecamp",
		MaxRequests: breakerMaxRequests,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
				Warn("circuit breaker state changed")
		},
	})
}

// countsAsSuccess reports whether err leaves the breaker's failure count
// alone. Only transport errors and 5xx answers count as failures; a caller
// that gave up says nothing about Basecamp's health.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	var abandoned *callerGoneError
	if errors.As(err, &abandoned) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode < 500
}

// callerGoneError marks a request that failed because the caller's own
// context ended.
type callerGoneError struct {
	err error
}

func (e *callerGoneError) Error() string { return e.err.Error() }
func (e *callerGoneError) Unwrap() error { return e.err }

// IsBreakerRejection reports whether err is the circuit breaker refusing a
// request without sending it.
func IsBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// response is a fully read HTTP response.
type response struct {
	status int
	header http.Header
	body   []byte
}

// do sends req through the circuit breaker and reads the whole body.
// Non-2xx answers come back as *APIError. caller is the context the request
// was made under, before any per-request timeout was added.
func (c *Client) do(caller context.Context, req *http.Request) (*response, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, transportError(caller, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, transportError(caller, err)
		}
		r := &response{status: resp.StatusCode, header: resp.Header, body: body}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, newAPIError(req, r)
		}
		return r, nil
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		return nil, fmt.Errorf("%w: %s %s: %w", service.ErrGeneric, req.Method, req.URL.Redacted(), err)
	}
	return out.(*response), nil
}

func transportError(caller context.Context, err error) error {
	if caller.Err() != nil || errors.Is(err, context.Canceled) {
		return &callerGoneError{err: err}
	}
	return err
}

// get issues an authenticated GET against an absolute URL.
func (c *Client) get(caller context.Context, token, rawURL string) (*response, error) {
	ctx, cancel := context.WithTimeout(caller, APITimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", service.ErrGeneric, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(caller, req)
}

// account is the request context for one account: base address scoped to
// the account plus the bearer token.
type account struct {
	c       *Client
	token   string
	baseURL string
}

func (c *Client) forAccount(token string, accountID int64) *account {
	return &account{
		c:       c,
		token:   token,
		baseURL: c.apiURL + "/" + strconv.FormatInt(accountID, 10),
	}
}

// resolve turns an account-relative path into an absolute URL. Absolute
// URLs, as found in Link headers, pass through unchanged.
func (a *account) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return a.baseURL + path
}

func (a *account) get(ctx context.Context, path string) (*response, error) {
	return a.c.get(ctx, a.token, a.resolve(path))
}
