// Package service defines the backend-agnostic interface for timeline operations.
package service

import "time"

// DefaultProduct is the Basecamp product discriminator for accounts that
// carry to-dos. Accounts for other products are filtered out at link time.
const DefaultProduct = "bc3"

// Credentials is the Basecamp token pair held in the caller's session.
// It is treated as an immutable value: a refresh returns a new Credentials
// and never modifies an existing one.
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// Valid reports whether an access token is present.
func (c Credentials) Valid() bool {
	return c.AccessToken != ""
}

// User is the identity returned by the login provider.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Photo       string `json:"photo,omitempty"`
}

// Account is a linked Basecamp account.
type Account struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Product string `json:"product"`
	HREF    string `json:"href,omitempty"`
}

// DockEntry is a named capability pointer attached to a project.
type DockEntry struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Title   string `json:"title"`
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
}

// Project is a Basecamp project.
type Project struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Dock        []DockEntry `json:"dock,omitempty"`
}

// GanttTask is one timeline row. Start and End are ISO dates (YYYY-MM-DD).
// Progress is 0 or 100.
type GanttTask struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Progress  int      `json:"progress"`
	Project   string   `json:"project"`
	List      string   `json:"list"`
	Completed bool     `json:"completed"`
	Assignees []string `json:"assignees"`
	URL       string   `json:"url"`
}
