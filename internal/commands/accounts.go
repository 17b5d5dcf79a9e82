package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"ganttview/internal/config"
	"ganttview/internal/exitcode"
	"ganttview/internal/output"
	"ganttview/internal/service"
)

func init() {
	Register(&AccountsCmd{})
}

// AccountsCmd implements the accounts command.
// It re-reads the linked accounts from Basecamp and updates the stored list.
type AccountsCmd struct{}

func (c *AccountsCmd) Name() string      { return "accounts" }
func (c *AccountsCmd) Aliases() []string { return nil }
func (c *AccountsCmd) Synopsis() string  { return "Print linked Basecamp accounts" }
func (c *AccountsCmd) Usage() string     { return "ganttview accounts [common flags]" }
func (c *AccountsCmd) NeedsAuth() bool   { return true }

func (c *AccountsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AccountsCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	accounts, code := guarded(ctx, cfg, svc, errOut, func(ctx context.Context, token string, sc storedCredentials) ([]service.Account, error) {
		return svc.Accounts(ctx, token)
	})
	if code != exitcode.Success {
		return code
	}

	sc, err := loadCredentials(cfg)
	if err == nil {
		sc.Accounts = accounts
		err = saveCredentials(cfg, sc)
	}
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to save accounts: %v\n", err)
		return exitcode.AuthError
	}

	if len(accounts) == 0 && !cfg.Quiet {
		fmt.Fprintln(errOut, "no Basecamp accounts found")
	}
	for _, a := range accounts {
		output.FormatAccount(out, a)
	}
	return exitcode.Success
}
