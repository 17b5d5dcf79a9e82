package basecamp

import (
	"context"
	"fmt"

	"ganttview/internal/service"
)

// Projects returns all projects of an account in API order.
func (c *Client) Projects(ctx context.Context, token string, accountID int64) ([]service.Project, error) {
	return fetchAllPages[service.Project](ctx, c.forAccount(token, accountID), "/projects.json")
}

// Project returns a single project including its dock.
func (c *Client) Project(ctx context.Context, token string, accountID, projectID int64) (service.Project, error) {
	var p service.Project
	if err := c.forAccount(token, accountID).getJSON(ctx, fmt.Sprintf("/projects/%d.json", projectID), &p); err != nil {
		return service.Project{}, err
	}
	return p, nil
}

// TodoSet returns the project's to-do set, or nil when the project has no
// to-do set dock entry.
func (c *Client) TodoSet(ctx context.Context, token string, accountID, projectID int64) (*TodoSet, error) {
	project, err := c.Project(ctx, token, accountID, projectID)
	if err != nil {
		return nil, err
	}
	return todoSetFor(ctx, c.forAccount(token, accountID), projectID, project.Dock)
}

// TodoLists returns all to-do lists of a project. A project without a
// to-do set has no lists.
func (c *Client) TodoLists(ctx context.Context, token string, accountID, projectID int64) ([]TodoList, error) {
	project, err := c.Project(ctx, token, accountID, projectID)
	if err != nil {
		return nil, err
	}
	return todoListsFor(ctx, c.forAccount(token, accountID), projectID, project.Dock)
}

// Todos returns all to-dos of a list.
func (c *Client) Todos(ctx context.Context, token string, accountID, projectID, listID int64) ([]Todo, error) {
	return todosFor(ctx, c.forAccount(token, accountID), projectID, listID)
}

func todoSetFor(ctx context.Context, a *account, projectID int64, dock []service.DockEntry) (*TodoSet, error) {
	entry, ok := findDock(dock, todoSetDock)
	if !ok {
		return nil, nil
	}

	var set TodoSet
	if err := a.getJSON(ctx, fmt.Sprintf("/buckets/%d/todosets/%d.json", projectID, entry.ID), &set); err != nil {
		return nil, err
	}
	return &set, nil
}

func todoListsFor(ctx context.Context, a *account, projectID int64, dock []service.DockEntry) ([]TodoList, error) {
	set, err := todoSetFor(ctx, a, projectID, dock)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return []TodoList{}, nil
	}
	return fetchAllPages[TodoList](ctx, a, fmt.Sprintf("/buckets/%d/todosets/%d/todolists.json", projectID, set.ID))
}

func todosFor(ctx context.Context, a *account, projectID, listID int64) ([]Todo, error) {
	return fetchAllPages[Todo](ctx, a, fmt.Sprintf("/buckets/%d/todolists/%d/todos.json", projectID, listID))
}

func findDock(dock []service.DockEntry, name string) (service.DockEntry, bool) {
	for _, d := range dock {
		if d.Name == name {
			return d, true
		}
	}
	return service.DockEntry{}, false
}
