package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"ganttview/internal/config"
	"ganttview/internal/exitcode"
	"ganttview/internal/service"
)

const (
	// OAuth callback timeout
	oauthCallbackTimeout = 5 * time.Minute

	// Token exchange timeout
	tokenExchangeTimeout = 30 * time.Second

	// Default port for the OAuth callback server. The Basecamp app must
	// list http://localhost:<port>/callback as a redirect URI.
	oauthDefaultPort = 8085
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	port  int
	force bool

	// OnAuthURL, if set, receives the authorization URL once the callback
	// server is listening (for testing).
	OnAuthURL func(authURL string)
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Link a Basecamp account" }
func (c *LoginCmd) Usage() string {
	return "ganttview login [common flags] [--port <n>] [--force]"
}
func (c *LoginCmd) NeedsAuth() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.port, "port", oauthDefaultPort, "")
	fs.BoolVar(&c.force, "force", false, "")
}

// SetPort sets the callback port (for testing). 0 picks a free port.
func (c *LoginCmd) SetPort(port int) {
	c.port = port
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if !cfg.HasBasecampApp() {
		fmt.Fprintln(errOut, "error: Basecamp OAuth app not configured")
		fmt.Fprintln(errOut, "")
		fmt.Fprintln(errOut, "To link Basecamp you need an OAuth application:")
		fmt.Fprintln(errOut, "")
		fmt.Fprintln(errOut, "1. Go to https://launchpad.37signals.com/integrations")
		fmt.Fprintln(errOut, "2. Register an application")
		fmt.Fprintf(errOut, "3. Add http://localhost:%d/callback as a redirect URI\n", c.portOrDefault())
		fmt.Fprintln(errOut, "4. Set BASECAMP_CLIENT_ID and BASECAMP_CLIENT_SECRET, or add them to")
		fmt.Fprintf(errOut, "   %s/%s under basecamp.client_id and basecamp.client_secret\n", cfg.Dir, config.SettingsFile)
		fmt.Fprintln(errOut, "")
		fmt.Fprintln(errOut, "Then run 'ganttview login' again.")
		return exitcode.AuthError
	}

	if !c.force && c.alreadyLoggedIn(ctx, cfg, svc) {
		if !cfg.Quiet {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", c.port))
	if err != nil {
		fmt.Fprintf(errOut, "error: could not bind to local port %d for OAuth callback\n", c.port)
		return exitcode.AuthError
	}
	defer listener.Close()

	port := listener.Addr().(*net.TCPAddr).Port
	redirectURL := fmt.Sprintf("http://localhost:%d/callback", port)
	state := uuid.New().String()
	authURL := svc.AuthCodeURL(state, redirectURL)

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			sendErr(errCh, fmt.Errorf("oauth state mismatch"))
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "No code in callback", http.StatusBadRequest)
			sendErr(errCh, fmt.Errorf("no code in callback"))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>Basecamp linked</h1><p>You may close this window.</p></body></html>")
		select {
		case codeCh <- code:
		default:
		}
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			sendErr(errCh, err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	fmt.Fprintln(errOut, "Open this URL in your browser:")
	fmt.Fprintln(errOut, authURL)
	if c.OnAuthURL != nil {
		c.OnAuthURL(authURL)
	}

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	case <-time.After(oauthCallbackTimeout):
		fmt.Fprintln(errOut, "error: oauth callback timed out")
		return exitcode.AuthError
	case <-ctx.Done():
		fmt.Fprintln(errOut, "error: cancelled")
		return exitcode.AuthError
	}

	exchangeCtx, cancelExchange := context.WithTimeout(ctx, tokenExchangeTimeout)
	defer cancelExchange()

	creds, err := svc.Exchange(exchangeCtx, code, redirectURL)
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to exchange code for token: %v\n", err)
		return exitcode.AuthError
	}
	accounts, err := svc.Accounts(exchangeCtx, creds.AccessToken)
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to read Basecamp authorization: %v\n", err)
		return exitcode.AuthError
	}

	if err := saveCredentials(cfg, storedCredentials{Basecamp: creds, Accounts: accounts}); err != nil {
		fmt.Fprintf(errOut, "error: failed to save credentials: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
		if len(accounts) == 0 {
			fmt.Fprintln(errOut, "warning: no Basecamp accounts found for this login")
		}
	}
	return exitcode.Success
}

func (c *LoginCmd) portOrDefault() int {
	if c.port > 0 {
		return c.port
	}
	return oauthDefaultPort
}

// alreadyLoggedIn reports whether stored credentials work, refreshing them
// if needed. A corrupt file or one without a refresh token never counts.
func (c *LoginCmd) alreadyLoggedIn(ctx context.Context, cfg *config.Config, svc service.Service) bool {
	sc, err := loadCredentials(cfg)
	if err != nil || !sc.Basecamp.Valid() || sc.Basecamp.RefreshToken == "" {
		return false
	}
	_, code := guarded(ctx, cfg, svc, io.Discard, func(ctx context.Context, token string, _ storedCredentials) ([]service.Account, error) {
		return svc.Accounts(ctx, token)
	})
	return code == exitcode.Success
}

func sendErr(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}
