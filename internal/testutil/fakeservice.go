// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"ganttview/internal/service"
)

// Default fixture values.
const (
	AccessToken  = "access-1"
	RefreshToken = "refresh-1"
	AccountID    = int64(999)
)

// ErrUnauthorized is what the fake returns for a token it does not accept.
var ErrUnauthorized = fmt.Errorf("fake: 401: %w", service.ErrUnauthorized)

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu       sync.RWMutex
	accounts []service.Account
	projects map[int64][]service.Project // accountID -> projects
	tasks    map[int64][]service.GanttTask // projectID -> tasks

	// tokens are the access tokens currently accepted. Empty accepts all.
	tokens map[string]bool
	// refreshes maps a refresh token to the credentials it yields.
	refreshes map[string]service.Credentials
	// codes maps an authorization code to the credentials it yields.
	codes map[string]service.Credentials

	calls map[string]int

	// Error injection for testing
	ExchangeErr error
	RefreshErr  error
	AccountsErr error
	ProjectsErr error
	ProjectErr  error
	TasksErr    error
}

// NewFakeService creates a FakeService with one account and no projects.
func NewFakeService() *FakeService {
	return &FakeService{
		accounts:  []service.Account{{ID: AccountID, Name: "Acme", Product: service.DefaultProduct}},
		projects:  make(map[int64][]service.Project),
		tasks:     make(map[int64][]service.GanttTask),
		tokens:    make(map[string]bool),
		refreshes: make(map[string]service.Credentials),
		codes:     make(map[string]service.Credentials),
		calls:     make(map[string]int),
	}
}

// Credentials returns the default fixture credentials.
func Credentials() service.Credentials {
	return service.Credentials{AccessToken: AccessToken, RefreshToken: RefreshToken}
}

// SetAccounts replaces the linked accounts.
func (f *FakeService) SetAccounts(accounts ...service.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts = accounts
}

// AddProject adds a project to an account.
func (f *FakeService) AddProject(accountID int64, p service.Project) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects[accountID] = append(f.projects[accountID], p)
}

// AddTask adds a Gantt task to a project.
func (f *FakeService) AddTask(projectID int64, t service.GanttTask) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.Assignees == nil {
		t.Assignees = []string{}
	}
	f.tasks[projectID] = append(f.tasks[projectID], t)
}

// AcceptTokens restricts the accepted access tokens. Any other token
// gets ErrUnauthorized.
func (f *FakeService) AcceptTokens(tokens ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = make(map[string]bool, len(tokens))
	for _, t := range tokens {
		f.tokens[t] = true
	}
}

// OnRefresh makes Refresh(refreshToken) return creds.
func (f *FakeService) OnRefresh(refreshToken string, creds service.Credentials) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes[refreshToken] = creds
}

// OnExchange makes Exchange(code) return creds.
func (f *FakeService) OnExchange(code string, creds service.Credentials) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[code] = creds
}

// Calls returns how often the named method was called.
func (f *FakeService) Calls(method string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.calls[method]
}

func (f *FakeService) record(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
}

func (f *FakeService) authorize(token string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.tokens) > 0 && !f.tokens[token] {
		return ErrUnauthorized
	}
	return nil
}

// AuthCodeURL implements service.Service.
func (f *FakeService) AuthCodeURL(state, redirectURI string) string {
	q := url.Values{"state": {state}, "redirect_uri": {redirectURI}}
	return "https://launchpad.test/authorization/new?" + q.Encode()
}

// Exchange implements service.Service.
func (f *FakeService) Exchange(ctx context.Context, code, redirectURI string) (service.Credentials, error) {
	f.record("Exchange")
	if f.ExchangeErr != nil {
		return service.Credentials{}, f.ExchangeErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	creds, ok := f.codes[code]
	if !ok {
		return service.Credentials{}, fmt.Errorf("fake: unknown code %q: %w", code, service.ErrUnauthorized)
	}
	return creds, nil
}

// Refresh implements service.Service.
func (f *FakeService) Refresh(ctx context.Context, refreshToken string) (service.Credentials, error) {
	f.record("Refresh")
	if f.RefreshErr != nil {
		return service.Credentials{}, f.RefreshErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	creds, ok := f.refreshes[refreshToken]
	if !ok {
		return service.Credentials{}, fmt.Errorf("fake: unknown refresh token: %w", service.ErrUnauthorized)
	}
	return creds, nil
}

// Accounts implements service.Service.
func (f *FakeService) Accounts(ctx context.Context, accessToken string) ([]service.Account, error) {
	f.record("Accounts")
	if f.AccountsErr != nil {
		return nil, f.AccountsErr
	}
	if err := f.authorize(accessToken); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]service.Account, len(f.accounts))
	copy(result, f.accounts)
	return result, nil
}

// Projects implements service.Service.
func (f *FakeService) Projects(ctx context.Context, accessToken string, accountID int64) ([]service.Project, error) {
	f.record("Projects")
	if f.ProjectsErr != nil {
		return nil, f.ProjectsErr
	}
	if err := f.authorize(accessToken); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]service.Project, len(f.projects[accountID]))
	copy(result, f.projects[accountID])
	return result, nil
}

// Project implements service.Service.
func (f *FakeService) Project(ctx context.Context, accessToken string, accountID, projectID int64) (service.Project, error) {
	f.record("Project")
	if f.ProjectErr != nil {
		return service.Project{}, f.ProjectErr
	}
	if err := f.authorize(accessToken); err != nil {
		return service.Project{}, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, p := range f.projects[accountID] {
		if p.ID == projectID {
			return p, nil
		}
	}
	return service.Project{}, fmt.Errorf("fake: project %d: %w", projectID, service.ErrNotFound)
}

// GanttTasks implements service.Service.
func (f *FakeService) GanttTasks(ctx context.Context, accessToken string, accountID, projectID int64) ([]service.GanttTask, error) {
	f.record("GanttTasks")
	if f.TasksErr != nil {
		return nil, f.TasksErr
	}
	if err := f.authorize(accessToken); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]service.GanttTask, len(f.tasks[projectID]))
	copy(result, f.tasks[projectID])
	return result, nil
}

var _ service.Service = (*FakeService)(nil)
