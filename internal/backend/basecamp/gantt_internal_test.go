package basecamp

import "testing"

func TestToGanttTask_Dates(t *testing.T) {
	tests := []struct {
		name      string
		todo      Todo
		wantOK    bool
		wantStart string
		wantEnd   string
	}{
		{"no dates", Todo{ID: 1}, false, "", ""},
		{"due only", Todo{ID: 2, DueOn: "2024-01-10"}, true, "2024-01-10", "2024-01-10"},
		{"start only", Todo{ID: 3, StartsOn: "2024-01-05"}, true, "2024-01-05", "2024-01-05"},
		{"both", Todo{ID: 4, StartsOn: "2024-01-05", DueOn: "2024-01-10"}, true, "2024-01-05", "2024-01-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, ok := toGanttTask("Launch", TodoList{Name: "Backlog"}, tt.todo)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if !ok {
				return
			}
			if task.Start != tt.wantStart || task.End != tt.wantEnd {
				t.Errorf("expected %s..%s, got %s..%s", tt.wantStart, tt.wantEnd, task.Start, task.End)
			}
		})
	}
}

func TestToGanttTask_Fields(t *testing.T) {
	todo := Todo{
		ID:        42,
		Content:   "Ship it",
		DueOn:     "2024-02-01",
		Completed: true,
		Assignees: []Person{{ID: 1, Name: "Ada"}, {ID: 2, Name: "Linus"}},
		AppURL:    "https://3.basecamp.com/1/buckets/2/todos/42",
	}

	task, ok := toGanttTask("Launch", TodoList{Title: "Release"}, todo)
	if !ok {
		t.Fatal("expected a task")
	}
	if task.ID != "42" {
		t.Errorf("expected id 42, got %q", task.ID)
	}
	if task.Name != "Ship it" || task.Project != "Launch" || task.List != "Release" {
		t.Errorf("unexpected names: %+v", task)
	}
	if task.Progress != 100 || !task.Completed {
		t.Errorf("expected completed with progress 100, got %+v", task)
	}
	if len(task.Assignees) != 2 || task.Assignees[0] != "Ada" || task.Assignees[1] != "Linus" {
		t.Errorf("unexpected assignees: %v", task.Assignees)
	}
	if task.URL != todo.AppURL {
		t.Errorf("unexpected url: %q", task.URL)
	}

	open, _ := toGanttTask("Launch", TodoList{Name: "Release"}, Todo{ID: 7, StartsOn: "2024-02-01"})
	if open.Progress != 0 {
		t.Errorf("expected progress 0 for open to-do, got %d", open.Progress)
	}
	if open.Assignees == nil || len(open.Assignees) != 0 {
		t.Errorf("expected empty, non-nil assignees, got %#v", open.Assignees)
	}
}

func TestNextLink(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{`<https://3.basecampapi.com/1/projects.json?page=2>; rel="next"`, "https://3.basecampapi.com/1/projects.json?page=2"},
		{`<https://x/a?page=1>; rel="prev", <https://x/a?page=3>; rel="next"`, "https://x/a?page=3"},
		{`<https://x/a?page=1>; rel="prev"`, ""},
		{`<https://x/a?page=2>;rel="next"`, "https://x/a?page=2"},
	}
	for _, tt := range tests {
		if got := nextLink(tt.header); got != tt.want {
			t.Errorf("nextLink(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
