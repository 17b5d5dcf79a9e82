package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"

	"ganttview/internal/config"
	"ganttview/internal/exitcode"
	"ganttview/internal/output"
	"ganttview/internal/service"
)

func init() {
	Register(&TasksCmd{})
}

// TasksCmd implements the tasks command: the Gantt rows of one project,
// grouped by to-do list.
type TasksCmd struct {
	account accountFlag
}

func (c *TasksCmd) Name() string      { return "tasks" }
func (c *TasksCmd) Aliases() []string { return []string{"gantt"} }
func (c *TasksCmd) Synopsis() string  { return "Print the dated to-dos of a project" }
func (c *TasksCmd) Usage() string {
	return "ganttview tasks [common flags] [--account <id>] <project-id>"
}
func (c *TasksCmd) NeedsAuth() bool { return true }

func (c *TasksCmd) RegisterFlags(fs *flag.FlagSet) {
	c.account = ""
	fs.Var(&c.account, "account", "")
}

// SetAccount sets the account flag (for testing).
func (c *TasksCmd) SetAccount(id string) {
	c.account = accountFlag(id)
}

func (c *TasksCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: project id required")
		return exitcode.UserError
	}
	if len(args) > 1 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return exitcode.UserError
	}
	projectID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || projectID <= 0 {
		fmt.Fprintf(errOut, "error: invalid project id: %s\n", args[0])
		return exitcode.UserError
	}

	tasks, code := guarded(ctx, cfg, svc, errOut, func(ctx context.Context, token string, sc storedCredentials) ([]service.GanttTask, error) {
		accountID, err := c.account.resolve(sc.Accounts)
		if err != nil {
			return nil, err
		}
		return svc.GanttTasks(ctx, token, accountID, projectID)
	})
	if code != exitcode.Success {
		return code
	}

	if len(tasks) == 0 && !cfg.Quiet {
		fmt.Fprintln(errOut, "no dated to-dos")
	}
	output.FormatTasks(out, tasks)
	return exitcode.Success
}
