// Package web serves the dashboard, the Gantt pages and their JSON API.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ganttview/internal/identity"
	"ganttview/internal/logging"
	"ganttview/internal/service"
	"ganttview/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

const shutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	// BasecampCallbackURL is the redirect URI registered for the
	// Basecamp OAuth application.
	BasecampCallbackURL string

	// Production hides internal error details from error pages.
	Production bool

	// Logger receives request and handler logs. Defaults to a discarding
	// logger.
	Logger *logrus.Entry
}

// Server is the ganttview web server.
type Server struct {
	svc      service.Service
	idp      identity.Provider
	sessions *session.Store
	guard    *service.RefreshGuard
	opts     Options
	log      *logrus.Entry
	router   *gin.Engine
}

// NewServer creates a new web server.
func NewServer(svc service.Service, idp identity.Provider, sessions *session.Store, opts Options) (*Server, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)

	s := &Server{
		svc:      svc,
		idp:      idp,
		sessions: sessions,
		opts:     opts,
		log:      log,
		router:   router,
	}
	s.guard = service.NewRefreshGuard(svc, service.OnStateChange(func(from, to service.RefreshState) {
		log.WithFields(logrus.Fields{"from": from, "to": to}).Info("basecamp token state changed")
	}))

	router.Use(s.requestLogger(), s.recovery(), s.loadSession())
	router.NoRoute(s.handleNotFound)

	router.GET("/", s.handleIndex)
	router.GET("/health", s.handleHealth)
	router.GET("/dashboard", s.requireLogin(), s.handleDashboard)

	auth := router.Group("/auth")
	{
		auth.GET("/google", s.handleGoogleLogin)
		auth.GET("/google/callback", s.handleGoogleCallback)
		auth.GET("/logout", s.handleLogout)
		auth.GET("/basecamp", s.requireLogin(), s.handleBasecampConnect)
		auth.GET("/basecamp/callback", s.requireLogin(), s.handleBasecampCallback)
	}

	gantt := router.Group("/gantt", s.requireLogin())
	{
		gantt.GET("", s.requireBasecamp(), s.handleProjectSelect)
		gantt.GET("/view", s.requireBasecamp(), s.handleGanttView)

		api := gantt.Group("/api")
		{
			api.GET("/tasks/:accountId/:projectId", s.handleAPITasks)
			api.GET("/projects/:accountId", s.handleAPIProjects)
		}
	}

	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
