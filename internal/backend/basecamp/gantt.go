package basecamp

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"ganttview/internal/service"
)

// listTodos is one fan-out slot.
type listTodos struct {
	list  TodoList
	todos []Todo
	err   error
}

// GanttTasks returns the dated to-dos of a project as timeline rows, in
// list order and then to-do order.
//
// A failure to load the project is returned, and so is any fetch the circuit
// breaker refused. Otherwise, if the lists cannot be loaded the
// result is empty; a list whose to-dos cannot be loaded is skipped and the
// remaining lists still contribute.
func (c *Client) GanttTasks(ctx context.Context, token string, accountID, projectID int64) ([]service.GanttTask, error) {
	project, err := c.Project(ctx, token, accountID, projectID)
	if err != nil {
		return nil, err
	}

	log := c.log.WithFields(logrus.Fields{"account": accountID, "project": project.Name})
	a := c.forAccount(token, accountID)
	tasks := []service.GanttTask{}

	lists, err := todoListsFor(ctx, a, projectID, project.Dock)
	if IsBreakerRejection(err) {
		return nil, fmt.Errorf("failed to fetch to-do lists: %w", err)
	}
	if err != nil {
		log.WithError(err).Error("failed to fetch to-do lists")
		return tasks, nil
	}

	// One goroutine per list; each writes only its own slot.
	results := make([]listTodos, len(lists))
	var wg sync.WaitGroup
	for i, list := range lists {
		i, list := i, list
		wg.Add(1)
		go func() {
			defer wg.Done()
			todos, err := todosFor(ctx, a, projectID, list.ID)
			results[i] = listTodos{list: list, todos: todos, err: err}
		}()
	}
	wg.Wait()

	for _, r := range results {
		if IsBreakerRejection(r.err) {
			return nil, fmt.Errorf("failed to fetch to-dos of %s: %w", r.list.DisplayName(), r.err)
		}
	}

	for _, r := range results {
		if r.err != nil {
			log.WithError(r.err).WithField("list", r.list.DisplayName()).Warn("skipping to-do list")
			continue
		}
		for _, todo := range r.todos {
			if task, ok := toGanttTask(project.Name, r.list, todo); ok {
				tasks = append(tasks, task)
			}
		}
	}

	log.WithField("tasks", len(tasks)).Debug("built gantt rows")
	return tasks, nil
}

// toGanttTask maps a to-do to a timeline row. To-dos without any date are
// not placed on the timeline; a single date is used for both ends.
func toGanttTask(projectName string, list TodoList, todo Todo) (service.GanttTask, bool) {
	if todo.StartsOn == "" && todo.DueOn == "" {
		return service.GanttTask{}, false
	}

	start := todo.StartsOn
	if start == "" {
		start = todo.DueOn
	}
	end := todo.DueOn
	if end == "" {
		end = todo.StartsOn
	}

	progress := 0
	if todo.Completed {
		progress = 100
	}

	assignees := make([]string, 0, len(todo.Assignees))
	for _, p := range todo.Assignees {
		assignees = append(assignees, p.Name)
	}

	return service.GanttTask{
		ID:        strconv.FormatInt(todo.ID, 10),
		Name:      todo.Content,
		Start:     start,
		End:       end,
		Progress:  progress,
		Project:   projectName,
		List:      list.DisplayName(),
		Completed: todo.Completed,
		Assignees: assignees,
		URL:       todo.AppURL,
	}, true
}
