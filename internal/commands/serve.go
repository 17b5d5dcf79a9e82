package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"ganttview/internal/config"
	"ganttview/internal/exitcode"
	"ganttview/internal/identity"
	"ganttview/internal/logging"
	"ganttview/internal/service"
	"ganttview/internal/session"
	"ganttview/internal/web"
)

func init() {
	Register(&ServeCmd{})
}

// ServeCmd implements the serve command: the web dashboard.
type ServeCmd struct {
	addr string
}

func (c *ServeCmd) Name() string      { return "serve" }
func (c *ServeCmd) Aliases() []string { return []string{"server"} }
func (c *ServeCmd) Synopsis() string  { return "Run the web dashboard" }
func (c *ServeCmd) Usage() string     { return "ganttview serve [common flags] [--addr <host:port>]" }
func (c *ServeCmd) NeedsAuth() bool   { return false }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.addr, "addr", "", "")
}

// SetAddr sets the listen address (for testing).
func (c *ServeCmd) SetAddr(addr string) {
	c.addr = addr
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	s := cfg.Settings
	log := logging.For("web")

	if s.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		if s.UsesDefaultSecret() {
			log.Warn("using the default session secret in production; set SESSION_SECRET")
		}
	}
	if !cfg.HasBasecampApp() {
		log.Warn("basecamp OAuth app not configured; linking accounts will fail")
	}
	if s.Google.ClientID == "" {
		log.Warn("google OAuth app not configured; login will fail")
	}

	secret := s.SessionSecret
	if secret == "" {
		secret = config.DefaultSessionSecret
	}
	store := session.NewStore(secret, session.WithSecureCookie(s.IsProduction()))
	idp := identity.NewGoogle(s.Google.ClientID, s.Google.ClientSecret, s.Google.CallbackURL)

	srv, err := web.NewServer(svc, idp, store, web.Options{
		BasecampCallbackURL: s.Basecamp.CallbackURL,
		Production:          s.IsProduction(),
		Logger:              log,
	})
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}

	addr := c.addr
	if addr == "" {
		addr = s.Addr()
	}
	if !cfg.Quiet {
		fmt.Fprintf(errOut, "listening on %s (%s)\n", addr, s.Env)
	}
	if err := srv.Run(ctx, addr); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
