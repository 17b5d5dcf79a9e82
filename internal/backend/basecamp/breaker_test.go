package basecamp_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"ganttview/internal/backend/basecamp"
	"ganttview/internal/logging"
	"ganttview/internal/service"
)

// hang blocks until the client goes away.
func hang(w http.ResponseWriter, r *http.Request) {
	select {
	case <-r.Context().Done():
	case <-time.After(5 * time.Second):
	}
}

func TestBreaker_CallerCancellationDoesNotTrip(t *testing.T) {
	f := newFakeBasecamp(t)
	f.routes[path("/projects.json")] = hang
	f.projectWithTodoSet()
	client := f.client()

	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		_, err := client.Projects(ctx, "tok", accountID)
		cancel()
		if err == nil {
			t.Fatalf("call %d: expected error from abandoned request", i)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Projects(ctx, "tok", accountID); err == nil {
		t.Fatal("expected error from cancelled context")
	}

	project, err := client.Project(context.Background(), "tok", accountID, 7)
	if err != nil {
		t.Fatalf("healthy call failed after abandoned requests: %v", err)
	}
	if project.Name != "Launch" {
		t.Errorf("unexpected project: %+v", project)
	}
}

func TestBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	f := newFakeBasecamp(t)
	f.status(path("/projects.json"), http.StatusUnauthorized)
	f.status(path("/projects/8.json"), http.StatusNotFound)
	client := f.client()

	for i := 0; i < 10; i++ {
		if _, err := client.Project(context.Background(), "tok", accountID, 8); !errors.Is(err, service.ErrNotFound) {
			t.Fatalf("call %d: expected ErrNotFound, got %v", i, err)
		}
	}
	for i := 0; i < 10; i++ {
		_, err := client.Projects(context.Background(), "tok", accountID)
		if !errors.Is(err, service.ErrUnauthorized) {
			t.Fatalf("call %d: expected ErrUnauthorized, got %v", i, err)
		}
		if basecamp.IsBreakerRejection(err) {
			t.Fatalf("call %d: breaker opened on 401", i)
		}
	}
	if got := f.hitCount(path("/projects.json")); got != 10 {
		t.Errorf("expected every request to reach the server, got %d", got)
	}

	// The guard still sees the 401 and refreshes.
	f.routes["/authorization/token"] = func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"access_token": "fresh", "refresh_token": "ref-2"}`)
	}
	f.routes[path("/projects.json")] = func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			http.Error(w, "expired", http.StatusUnauthorized)
			return
		}
		io.WriteString(w, `[]`)
	}
	_, creds, err := service.Guard(context.Background(), service.NewRefreshGuard(client),
		service.Credentials{AccessToken: "stale", RefreshToken: "ref"},
		func(ctx context.Context, token string) ([]service.Project, error) {
			return client.Projects(ctx, token, accountID)
		})
	if err != nil {
		t.Fatalf("expected refresh and retry to succeed, got %v", err)
	}
	if creds.AccessToken != "fresh" {
		t.Errorf("expected refreshed credentials, got %+v", creds)
	}
}

func TestBreaker_ServerErrorsTrip(t *testing.T) {
	f := newFakeBasecamp(t)
	f.status(path("/projects.json"), http.StatusInternalServerError)
	f.projectWithTodoSet()
	client := f.client()

	for i := 0; i < 6; i++ {
		_, err := client.Projects(context.Background(), "tok", accountID)
		if !errors.Is(err, service.ErrGeneric) || basecamp.IsBreakerRejection(err) {
			t.Fatalf("call %d: expected a 500 from the server, got %v", i, err)
		}
	}

	_, err := client.Project(context.Background(), "tok", accountID, 7)
	if !basecamp.IsBreakerRejection(err) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if !errors.Is(err, service.ErrGeneric) {
		t.Errorf("expected rejection to map to ErrGeneric, got %v", err)
	}
	if f.hitCount(path("/projects/7.json")) != 0 {
		t.Error("expected no request while open")
	}
}

func TestGanttTasks_BreakerRejectionIsReturned(t *testing.T) {
	f := newFakeBasecamp(t)
	f.projectWithTodoSet()
	f.json(path("/buckets/7/todosets/70/todolists.json"), `[{"id": 100, "name": "A"}]`)
	f.json(path("/buckets/7/todolists/100/todos.json"), `[{"id": 1, "content": "a1", "due_on": "2024-01-01"}]`)

	// Opens after the project, to-do set and list index requests.
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:         "test",
		Timeout:      time.Minute,
		ReadyToTrip:  func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 3 },
		IsSuccessful: func(error) bool { return false },
	})
	client := basecamp.New(
		basecamp.WithAPIURL(f.srv.URL),
		basecamp.WithHTTPClient(f.srv.Client()),
		basecamp.WithLogger(logging.Discard()),
		basecamp.WithBreaker(cb),
	)

	tasks, err := client.GanttTasks(context.Background(), "tok", accountID, 7)
	if !basecamp.IsBreakerRejection(err) {
		t.Fatalf("expected breaker rejection, got %v (tasks %+v)", err, tasks)
	}
	if f.hitCount(path("/buckets/7/todolists/100/todos.json")) != 0 {
		t.Error("expected the list fetch to be refused")
	}
}

func TestProjects_LinkInSecondHeaderLine(t *testing.T) {
	f := newFakeBasecamp(t)
	f.routes[path("/projects.json")] = func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			io.WriteString(w, `[{"id": 2, "name": "Two"}]`)
			return
		}
		w.Header().Add("Link", `<`+f.srv.URL+path("/projects.json")+`?page=0>; rel="prev"`)
		w.Header().Add("Link", `<`+f.srv.URL+path("/projects.json")+`?page=2>; rel="next"`)
		io.WriteString(w, `[{"id": 1, "name": "One"}]`)
	}

	projects, err := f.client().Projects(context.Background(), "tok", accountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(projects) != 2 || projects[1].ID != 2 {
		t.Errorf("expected both pages, got %+v", projects)
	}
}
