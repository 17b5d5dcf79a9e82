package basecamp

import "ganttview/internal/service"

// TodoSet is the container of a project's to-do lists.
type TodoSet struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	TodolistsURL string `json:"todolists_url"`
}

// TodoList is a to-do list inside a to-do set.
type TodoList struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title"`
}

// DisplayName returns the list name, falling back to its title.
func (l TodoList) DisplayName() string {
	if l.Name != "" {
		return l.Name
	}
	return l.Title
}

// Person is a Basecamp person reference.
type Person struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Todo is a to-do item. StartsOn and DueOn are ISO dates, empty when unset.
type Todo struct {
	ID        int64    `json:"id"`
	Content   string   `json:"content"`
	StartsOn  string   `json:"starts_on"`
	DueOn     string   `json:"due_on"`
	Completed bool     `json:"completed"`
	Assignees []Person `json:"assignees"`
	AppURL    string   `json:"app_url"`
}

// authorization is the body of launchpad's authorization.json.
type authorization struct {
	Accounts []service.Account `json:"accounts"`
}
