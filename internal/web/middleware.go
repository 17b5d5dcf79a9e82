package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ganttview/internal/session"
)

const (
	ctxRequestLog = "ganttview.log"
	ctxSession    = "ganttview.session"
)

// sessionState is the session loaded for the current request.
type sessionState struct {
	id   string
	data session.Data
}

// requestLogger tags each request with an id and logs its outcome.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := uuid.New().String()
		log := s.log.WithField("request_id", id)
		c.Set(ctxRequestLog, log)
		c.Header("X-Request-Id", id)

		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request failed")
		default:
			entry.Debug("request")
		}
	}
}

// recovery turns a panic into the error page.
func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		s.reqLog(c).WithField("panic", recovered).Error("handler panicked")
		message := "Something went wrong."
		if !s.opts.Production {
			if err, ok := recovered.(error); ok {
				message = err.Error()
			} else if str, ok := recovered.(string); ok {
				message = str
			}
		}
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"title":   "Server Error",
			"message": message,
		})
		c.Abort()
	})
}

// loadSession attaches the caller's session, if any, to the context.
func (s *Server) loadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, data, _ := s.sessions.Load(c.Request)
		c.Set(ctxSession, &sessionState{id: id, data: data})
		c.Next()
	}
}

// requireLogin redirects anonymous callers to the index page.
func (s *Server) requireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.current(c).data.LoggedIn() {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// requireBasecamp redirects callers without a linked account to the
// Basecamp connect flow.
func (s *Server) requireBasecamp() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.current(c).data.HasBasecamp() {
			c.Redirect(http.StatusFound, "/auth/basecamp")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) current(c *gin.Context) *sessionState {
	if v, ok := c.Get(ctxSession); ok {
		if st, ok := v.(*sessionState); ok {
			return st
		}
	}
	return &sessionState{}
}

// save writes the session back and re-issues the cookie.
func (s *Server) save(c *gin.Context, st *sessionState) error {
	id, err := s.sessions.Save(c.Writer, st.id, st.data)
	if err != nil {
		return err
	}
	st.id = id
	return nil
}

func (s *Server) reqLog(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(ctxRequestLog); ok {
		if log, ok := v.(*logrus.Entry); ok {
			return log
		}
	}
	return s.log
}
