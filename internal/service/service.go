// Package service defines the backend-agnostic interface for timeline operations.
package service

import "context"

// Service defines the interface for project-management backend operations.
// All Basecamp calls go through this interface; the web server and the
// commands never import the backend directly.
//
// Data operations take the access token explicitly and never store it.
type Service interface {
	// AuthCodeURL returns the URL the user is sent to for linking an account.
	AuthCodeURL(state, redirectURI string) string

	// Exchange trades an authorization code for credentials.
	Exchange(ctx context.Context, code, redirectURI string) (Credentials, error)

	// Refresh trades a refresh token for new credentials.
	Refresh(ctx context.Context, refreshToken string) (Credentials, error)

	// Accounts returns the accounts of the configured product line.
	Accounts(ctx context.Context, accessToken string) ([]Account, error)

	// Projects returns all projects of an account in API order.
	Projects(ctx context.Context, accessToken string, accountID int64) ([]Project, error)

	// Project returns a single project.
	Project(ctx context.Context, accessToken string, accountID, projectID int64) (Project, error)

	// GanttTasks returns the dated to-dos of a project as timeline rows.
	// Only a failure to load the project itself is returned as an error;
	// later failures yield a partial result.
	GanttTasks(ctx context.Context, accessToken string, accountID, projectID int64) ([]GanttTask, error)
}
