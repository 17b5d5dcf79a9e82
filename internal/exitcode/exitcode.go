// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown project, rejected input).
	UserError = 1

	// AuthError indicates an auth/config error: not logged in, expired
	// tokens, missing OAuth app, no permission.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)
