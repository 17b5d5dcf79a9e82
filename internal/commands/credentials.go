package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"ganttview/internal/config"
	"ganttview/internal/exitcode"
	"ganttview/internal/logging"
	"ganttview/internal/service"
)

// storedCredentials is the content of credentials.json.
type storedCredentials struct {
	Basecamp service.Credentials `json:"basecamp"`
	Accounts []service.Account   `json:"accounts"`
}

// loadCredentials reads the stored Basecamp credentials.
func loadCredentials(cfg *config.Config) (storedCredentials, error) {
	var sc storedCredentials
	data, err := os.ReadFile(cfg.CredentialsPath())
	if err != nil {
		return sc, err
	}
	if err := json.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("invalid %s: %w", config.CredentialsFile, err)
	}
	return sc, nil
}

// saveCredentials writes the credentials file with mode 0600.
func saveCredentials(cfg *config.Config, sc storedCredentials) error {
	if err := cfg.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(cfg.CredentialsPath(), data, 0600)
}

// guarded runs op with the stored credentials through the refresh guard.
// Refreshed credentials are written back to the file even when the retry
// fails. Errors are reported on errOut; the second result is the exit code.
func guarded[T any](ctx context.Context, cfg *config.Config, svc service.Service, errOut io.Writer,
	op func(ctx context.Context, accessToken string, sc storedCredentials) (T, error)) (T, int) {
	var zero T

	sc, err := loadCredentials(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: not logged in (run: ganttview login): %v\n", err)
		return zero, exitcode.AuthError
	}
	if !sc.Basecamp.Valid() {
		fmt.Fprintln(errOut, "error: not logged in (run: ganttview login)")
		return zero, exitcode.AuthError
	}

	log := logging.For("cli")
	guard := service.NewRefreshGuard(svc, service.OnStateChange(func(from, to service.RefreshState) {
		log.WithFields(logrus.Fields{"from": from, "to": to}).Debug("basecamp token state changed")
	}))

	v, creds, err := service.Guard(ctx, guard, sc.Basecamp, func(ctx context.Context, token string) (T, error) {
		return op(ctx, token, sc)
	})
	if creds != sc.Basecamp {
		sc.Basecamp = creds
		if serr := saveCredentials(cfg, sc); serr != nil {
			fmt.Fprintf(errOut, "error: failed to save refreshed credentials: %v\n", serr)
			return zero, exitcode.AuthError
		}
		log.Debug("stored refreshed basecamp credentials")
	}
	if err != nil {
		return zero, reportError(errOut, err)
	}
	return v, exitcode.Success
}

// reportError prints err and returns its exit code.
func reportError(errOut io.Writer, err error) int {
	var ue usageError
	switch {
	case errors.As(err, &ue):
		fmt.Fprintf(errOut, "error: %v\n", ue.error)
		return exitcode.UserError
	case errors.Is(err, service.ErrTokenExpired), errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrNotConnected):
		fmt.Fprintf(errOut, "error: auth error: %v (run: ganttview login)\n", err)
		return exitcode.AuthError
	case errors.Is(err, service.ErrForbidden):
		fmt.Fprintf(errOut, "error: permission denied: %v\n", err)
		return exitcode.AuthError
	case errors.Is(err, service.ErrNotFound):
		fmt.Fprintf(errOut, "error: not found: %v\n", err)
		return exitcode.UserError
	case errors.Is(err, service.ErrUnprocessable):
		fmt.Fprintf(errOut, "error: rejected: %v\n", err)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

// usageError marks an error caused by the command line rather than the
// backend.
type usageError struct{ error }

// accountFlag is the shared --account flag value: an account id, or empty
// for the first linked account.
type accountFlag string

func (f *accountFlag) String() string     { return string(*f) }
func (f *accountFlag) Set(v string) error { *f = accountFlag(v); return nil }

// resolve picks the account id to use.
func (f accountFlag) resolve(accounts []service.Account) (int64, error) {
	if f == "" {
		if len(accounts) == 0 {
			return 0, usageError{errors.New("no Basecamp accounts linked (run: ganttview accounts)")}
		}
		return accounts[0].ID, nil
	}
	id, err := strconv.ParseInt(string(f), 10, 64)
	if err != nil || id <= 0 {
		return 0, usageError{fmt.Errorf("invalid account id: %s", string(f))}
	}
	return id, nil
}
