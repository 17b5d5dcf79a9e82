package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ganttview/internal/service"
)

const appTitle = "Basecamp Gantt Viewer"

// dashboardErrors maps ?error= codes to user messages.
var dashboardErrors = map[string]string{
	"no_code":              "Basecamp did not return an authorization code.",
	"basecamp_auth_failed": "Connecting Basecamp failed. Please try again.",
}

// Pages

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"title": appTitle,
		"user":  s.current(c).data.User,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleDashboard(c *gin.Context) {
	data := s.current(c).data
	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"title":       appTitle,
		"user":        data.User,
		"hasBasecamp": data.HasBasecamp(),
		"accounts":    data.Accounts,
		"error":       dashboardErrors[c.Query("error")],
	})
}

func (s *Server) handleNotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "error.html", gin.H{
		"title":   "Page Not Found",
		"message": "The page you are looking for does not exist.",
	})
}

// handleProjectSelect lists the projects of the selected account, the
// first linked account unless ?accountId names another one.
func (s *Server) handleProjectSelect(c *gin.Context) {
	st := s.current(c)
	render := func(accountID int64, projects []service.Project, msg string) {
		c.HTML(http.StatusOK, "project-select.html", gin.H{
			"title":     appTitle,
			"user":      st.data.User,
			"accounts":  st.data.Accounts,
			"accountId": accountID,
			"projects":  projects,
			"error":     msg,
		})
	}

	account, ok := selectAccount(st.data.Accounts, c.Query("accountId"))
	if !ok {
		render(0, nil, "No Basecamp accounts found.")
		return
	}

	projects, err := s.guardedProjects(c, st, account.ID)
	if err != nil {
		s.reqLog(c).WithError(err).WithField("account", account.ID).Error("failed to load projects")
		render(0, nil, "Failed to load projects.")
		return
	}
	render(account.ID, projects, "")
}

func (s *Server) handleGanttView(c *gin.Context) {
	st := s.current(c)
	accountID, err1 := strconv.ParseInt(c.Query("accountId"), 10, 64)
	projectID, err2 := strconv.ParseInt(c.Query("projectId"), 10, 64)
	if err1 != nil || err2 != nil {
		c.Redirect(http.StatusFound, "/gantt")
		return
	}

	view := gin.H{
		"title":       appTitle,
		"user":        st.data.User,
		"accountId":   accountID,
		"projectId":   projectID,
		"projectName": "Unknown Project",
	}
	project, err := s.svc.Project(c.Request.Context(), st.data.Basecamp.AccessToken, accountID, projectID)
	if err != nil {
		s.reqLog(c).WithError(err).WithField("project", projectID).Error("failed to load project")
		view["error"] = "Failed to load project."
	} else {
		view["projectName"] = project.Name
	}
	c.HTML(http.StatusOK, "gantt.html", view)
}

// Authentication

func (s *Server) handleGoogleLogin(c *gin.Context) {
	st := s.current(c)
	st.data.State = uuid.New().String()
	if err := s.save(c, st); err != nil {
		s.reqLog(c).WithError(err).Error("failed to save session")
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.Redirect(http.StatusFound, s.idp.AuthCodeURL(st.data.State))
}

func (s *Server) handleGoogleCallback(c *gin.Context) {
	st := s.current(c)
	code := c.Query("code")
	if code == "" || st.data.State == "" || c.Query("state") != st.data.State {
		c.Redirect(http.StatusFound, "/")
		return
	}

	user, err := s.idp.Authenticate(c.Request.Context(), code)
	if err != nil {
		s.reqLog(c).WithError(err).Warn("google login failed")
		c.Redirect(http.StatusFound, "/")
		return
	}

	st.data.User = user
	st.data.State = ""
	if err := s.save(c, st); err != nil {
		s.reqLog(c).WithError(err).Error("failed to save session")
		c.Redirect(http.StatusFound, "/")
		return
	}
	s.reqLog(c).WithField("user", user.Email).Info("user logged in")
	c.Redirect(http.StatusFound, "/dashboard")
}

func (s *Server) handleLogout(c *gin.Context) {
	s.sessions.Destroy(c.Writer, s.current(c).id)
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) handleBasecampConnect(c *gin.Context) {
	st := s.current(c)
	st.data.State = uuid.New().String()
	if err := s.save(c, st); err != nil {
		s.reqLog(c).WithError(err).Error("failed to save session")
		c.Redirect(http.StatusFound, "/dashboard?error=basecamp_auth_failed")
		return
	}
	c.Redirect(http.StatusFound, s.svc.AuthCodeURL(st.data.State, s.opts.BasecampCallbackURL))
}

func (s *Server) handleBasecampCallback(c *gin.Context) {
	st := s.current(c)
	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusFound, "/dashboard?error=no_code")
		return
	}
	if st.data.State == "" || c.Query("state") != st.data.State {
		s.reqLog(c).Warn("basecamp callback state mismatch")
		c.Redirect(http.StatusFound, "/dashboard?error=basecamp_auth_failed")
		return
	}

	ctx := c.Request.Context()
	creds, err := s.svc.Exchange(ctx, code, s.opts.BasecampCallbackURL)
	if err != nil {
		s.reqLog(c).WithError(err).Error("basecamp token exchange failed")
		c.Redirect(http.StatusFound, "/dashboard?error=basecamp_auth_failed")
		return
	}
	accounts, err := s.svc.Accounts(ctx, creds.AccessToken)
	if err != nil {
		s.reqLog(c).WithError(err).Error("basecamp authorization lookup failed")
		c.Redirect(http.StatusFound, "/dashboard?error=basecamp_auth_failed")
		return
	}

	st.data.Basecamp = creds
	st.data.Accounts = accounts
	st.data.State = ""
	if err := s.save(c, st); err != nil {
		s.reqLog(c).WithError(err).Error("failed to save session")
		c.Redirect(http.StatusFound, "/dashboard?error=basecamp_auth_failed")
		return
	}
	s.reqLog(c).WithField("accounts", len(accounts)).Info("basecamp connected")
	c.Redirect(http.StatusFound, "/dashboard")
}

func selectAccount(accounts []service.Account, want string) (service.Account, bool) {
	if len(accounts) == 0 {
		return service.Account{}, false
	}
	if id, err := strconv.ParseInt(want, 10, 64); err == nil {
		for _, a := range accounts {
			if a.ID == id {
				return a, true
			}
		}
	}
	return accounts[0], true
}
