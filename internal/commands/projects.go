package commands

import (
	"context"
	"flag"
	"io"

	"ganttview/internal/config"
	"ganttview/internal/exitcode"
	"ganttview/internal/output"
	"ganttview/internal/service"
)

func init() {
	Register(&ProjectsCmd{})
}

// ProjectsCmd implements the projects command.
type ProjectsCmd struct {
	account accountFlag
}

func (c *ProjectsCmd) Name() string      { return "projects" }
func (c *ProjectsCmd) Aliases() []string { return nil }
func (c *ProjectsCmd) Synopsis() string  { return "Print the projects of an account" }
func (c *ProjectsCmd) Usage() string {
	return "ganttview projects [common flags] [--account <id>]"
}
func (c *ProjectsCmd) NeedsAuth() bool { return true }

func (c *ProjectsCmd) RegisterFlags(fs *flag.FlagSet) {
	c.account = ""
	fs.Var(&c.account, "account", "")
}

// SetAccount sets the account flag (for testing).
func (c *ProjectsCmd) SetAccount(id string) {
	c.account = accountFlag(id)
}

func (c *ProjectsCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	projects, code := guarded(ctx, cfg, svc, errOut, func(ctx context.Context, token string, sc storedCredentials) ([]service.Project, error) {
		accountID, err := c.account.resolve(sc.Accounts)
		if err != nil {
			return nil, err
		}
		return svc.Projects(ctx, token, accountID)
	})
	if code != exitcode.Success {
		return code
	}

	for _, p := range projects {
		output.FormatProject(out, p)
	}
	return exitcode.Success
}
