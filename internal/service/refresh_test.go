package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ganttview/internal/service"
)

type stubRefresher struct {
	creds service.Credentials
	err   error
	calls int
}

func (s *stubRefresher) Refresh(ctx context.Context, refreshToken string) (service.Credentials, error) {
	s.calls++
	return s.creds, s.err
}

var oldCreds = service.Credentials{AccessToken: "old", RefreshToken: "r-old"}

func TestGuard_SuccessPassesThrough(t *testing.T) {
	r := &stubRefresher{}
	g := service.NewRefreshGuard(r)

	v, creds, err := service.Guard(context.Background(), g, oldCreds, func(ctx context.Context, tok string) (string, error) {
		return "data:" + tok, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "data:old" {
		t.Errorf("expected data:old, got %q", v)
	}
	if creds != oldCreds {
		t.Errorf("credentials changed: %+v", creds)
	}
	if r.calls != 0 {
		t.Errorf("expected no refresh, got %d", r.calls)
	}
}

func TestGuard_RefreshAndRetry(t *testing.T) {
	fresh := service.Credentials{AccessToken: "new", RefreshToken: "r-new"}
	r := &stubRefresher{creds: fresh}

	var transitions []string
	g := service.NewRefreshGuard(r, service.OnStateChange(func(from, to service.RefreshState) {
		transitions = append(transitions, from.String()+"->"+to.String())
	}))

	var tokens []string
	v, creds, err := service.Guard(context.Background(), g, oldCreds, func(ctx context.Context, tok string) ([]int, error) {
		tokens = append(tokens, tok)
		if tok == "old" {
			return nil, fmt.Errorf("get projects: %w", service.ErrUnauthorized)
		}
		return []int{1, 2}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v) != 2 {
		t.Errorf("expected data from retry, got %v", v)
	}
	if creds != fresh {
		t.Errorf("expected new credentials, got %+v", creds)
	}
	if len(tokens) != 2 || tokens[0] != "old" || tokens[1] != "new" {
		t.Errorf("unexpected call tokens: %v", tokens)
	}
	want := []string{"active->refreshing", "refreshing->active"}
	if fmt.Sprint(transitions) != fmt.Sprint(want) {
		t.Errorf("expected transitions %v, got %v", want, transitions)
	}
}

func TestGuard_RefreshFailsKeepsCredentials(t *testing.T) {
	r := &stubRefresher{err: errors.New("invalid_grant")}
	g := service.NewRefreshGuard(r)

	calls := 0
	_, creds, err := service.Guard(context.Background(), g, oldCreds, func(ctx context.Context, tok string) (int, error) {
		calls++
		return 0, service.ErrUnauthorized
	})
	if !errors.Is(err, service.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("expected original 401 to be wrapped, got %v", err)
	}
	if creds != oldCreds {
		t.Errorf("credentials must be unchanged, got %+v", creds)
	}
	if calls != 1 {
		t.Errorf("expected no retry after failed refresh, got %d calls", calls)
	}
}

func TestGuard_RetryFailureIsTerminal(t *testing.T) {
	fresh := service.Credentials{AccessToken: "new", RefreshToken: "r-new"}
	r := &stubRefresher{creds: fresh}
	g := service.NewRefreshGuard(r)

	calls := 0
	_, creds, err := service.Guard(context.Background(), g, oldCreds, func(ctx context.Context, tok string) (int, error) {
		calls++
		return 0, service.ErrUnauthorized
	})
	if !errors.Is(err, service.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if r.calls != 1 {
		t.Errorf("expected exactly one refresh, got %d", r.calls)
	}
	if calls != 2 {
		t.Errorf("expected exactly one retry, got %d calls", calls)
	}
	if creds != fresh {
		t.Errorf("refreshed credentials should still be returned, got %+v", creds)
	}
}

func TestGuard_RetryOtherErrorPassesThrough(t *testing.T) {
	fresh := service.Credentials{AccessToken: "new"}
	g := service.NewRefreshGuard(&stubRefresher{creds: fresh})

	_, _, err := service.Guard(context.Background(), g, oldCreds, func(ctx context.Context, tok string) (int, error) {
		if tok == "old" {
			return 0, service.ErrUnauthorized
		}
		return 0, service.ErrNotFound
	})
	if !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if errors.Is(err, service.ErrTokenExpired) {
		t.Error("non-401 retry failure must not be reported as expired")
	}
}

func TestGuard_NonAuthErrorNotRefreshed(t *testing.T) {
	r := &stubRefresher{}
	g := service.NewRefreshGuard(r)

	_, creds, err := service.Guard(context.Background(), g, oldCreds, func(ctx context.Context, tok string) (int, error) {
		return 0, service.ErrForbidden
	})
	if !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if r.calls != 0 {
		t.Errorf("expected no refresh, got %d", r.calls)
	}
	if creds != oldCreds {
		t.Errorf("credentials changed: %+v", creds)
	}
}

func TestGuard_NoRefreshToken(t *testing.T) {
	r := &stubRefresher{}
	g := service.NewRefreshGuard(r)

	_, _, err := service.Guard(context.Background(), g, service.Credentials{AccessToken: "old"}, func(ctx context.Context, tok string) (int, error) {
		return 0, service.ErrUnauthorized
	})
	if !errors.Is(err, service.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if r.calls != 0 {
		t.Errorf("expected no refresh without a refresh token, got %d", r.calls)
	}
}

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{401, service.ErrUnauthorized},
		{403, service.ErrForbidden},
		{404, service.ErrNotFound},
		{422, service.ErrUnprocessable},
		{500, service.ErrGeneric},
		{429, service.ErrGeneric},
	}
	for _, tt := range tests {
		if got := service.KindForStatus(tt.status); got != tt.want {
			t.Errorf("KindForStatus(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
