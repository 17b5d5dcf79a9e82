package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ganttview/internal/service"
)

func (s *Server) handleAPITasks(c *gin.Context) {
	accountID, err1 := strconv.ParseInt(c.Param("accountId"), 10, 64)
	projectID, err2 := strconv.ParseInt(c.Param("projectId"), 10, 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account or project id"})
		return
	}

	st := s.current(c)
	if !st.data.HasBasecamp() {
		s.apiError(c, service.ErrNotConnected, "Failed to fetch tasks")
		return
	}

	tasks, creds, err := service.Guard(c.Request.Context(), s.guard, st.data.Basecamp,
		func(ctx context.Context, token string) ([]service.GanttTask, error) {
			return s.svc.GanttTasks(ctx, token, accountID, projectID)
		})
	s.writeBack(c, st, creds)
	if err != nil {
		s.reqLog(c).WithError(err).WithField("project", projectID).Error("fetch tasks failed")
		s.apiError(c, err, "Failed to fetch tasks")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (s *Server) handleAPIProjects(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("accountId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account id"})
		return
	}

	st := s.current(c)
	if !st.data.HasBasecamp() {
		s.apiError(c, service.ErrNotConnected, "Failed to fetch projects")
		return
	}

	projects, err := s.guardedProjects(c, st, accountID)
	if err != nil {
		s.reqLog(c).WithError(err).WithField("account", accountID).Error("fetch projects failed")
		s.apiError(c, err, "Failed to fetch projects")
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// guardedProjects lists projects through the refresh guard and keeps any
// refreshed credentials in the session.
func (s *Server) guardedProjects(c *gin.Context, st *sessionState, accountID int64) ([]service.Project, error) {
	projects, creds, err := service.Guard(c.Request.Context(), s.guard, st.data.Basecamp,
		func(ctx context.Context, token string) ([]service.Project, error) {
			return s.svc.Projects(ctx, token, accountID)
		})
	s.writeBack(c, st, creds)
	return projects, err
}

// writeBack stores creds in the session when the guard replaced them.
func (s *Server) writeBack(c *gin.Context, st *sessionState, creds service.Credentials) {
	if creds == st.data.Basecamp {
		return
	}
	st.data.Basecamp = creds
	if err := s.save(c, st); err != nil {
		s.reqLog(c).WithError(err).Error("failed to save refreshed credentials")
		return
	}
	s.reqLog(c).Info("stored refreshed basecamp credentials")
}

// apiError writes the JSON error for err. fallback is the message for
// generic failures.
func (s *Server) apiError(c *gin.Context, err error, fallback string) {
	status, msg := errorResponse(err, fallback)
	c.JSON(status, gin.H{"error": msg})
}

func errorResponse(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotConnected):
		return http.StatusUnauthorized, "Basecamp not connected"
	case errors.Is(err, service.ErrTokenExpired), errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, "Token expired. Please reconnect Basecamp."
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "You do not have permission to view this in Basecamp."
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Not found in Basecamp."
	case errors.Is(err, service.ErrUnprocessable):
		return http.StatusUnprocessableEntity, "Basecamp rejected the request."
	default:
		return http.StatusInternalServerError, fallback
	}
}
