package service

import (
	"context"
	"errors"
	"fmt"
)

// Refresher trades a refresh token for new credentials.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (Credentials, error)
}

// RefreshState is the state of a RefreshGuard.
type RefreshState int

const (
	// StateActive means the current access token is believed valid.
	StateActive RefreshState = iota
	// StateRefreshing means a refresh attempt is in flight.
	StateRefreshing
)

func (s RefreshState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateRefreshing:
		return "refreshing"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// RefreshGuard retries a call once after refreshing credentials when the
// call fails with ErrUnauthorized. Call sites opt in by going through Guard.
type RefreshGuard struct {
	refresher     Refresher
	onStateChange func(from, to RefreshState)
}

// GuardOption configures a RefreshGuard.
type GuardOption func(*RefreshGuard)

// OnStateChange registers a hook called on every state transition.
func OnStateChange(fn func(from, to RefreshState)) GuardOption {
	return func(g *RefreshGuard) {
		g.onStateChange = fn
	}
}

// NewRefreshGuard creates a guard backed by r.
func NewRefreshGuard(r Refresher, opts ...GuardOption) *RefreshGuard {
	g := &RefreshGuard{refresher: r}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *RefreshGuard) transition(from, to RefreshState) {
	if g.onStateChange != nil {
		g.onStateChange(from, to)
	}
}

// Guard runs op with creds.AccessToken. On ErrUnauthorized it refreshes
// once and retries op once with the new token.
//
// The returned Credentials are the ones the caller should hold afterwards:
// the input value unless a refresh succeeded, in which case the new value
// is returned even if the retry failed. A failed refresh yields an error
// matching both ErrTokenExpired and the original error.
func Guard[T any](ctx context.Context, g *RefreshGuard, creds Credentials, op func(ctx context.Context, accessToken string) (T, error)) (T, Credentials, error) {
	var zero T

	v, err := op(ctx, creds.AccessToken)
	if err == nil {
		return v, creds, nil
	}
	if !errors.Is(err, ErrUnauthorized) {
		return zero, creds, err
	}
	if creds.RefreshToken == "" || g == nil || g.refresher == nil {
		return zero, creds, fmt.Errorf("%w: %w", ErrTokenExpired, err)
	}

	g.transition(StateActive, StateRefreshing)
	fresh, rerr := g.refresher.Refresh(ctx, creds.RefreshToken)
	g.transition(StateRefreshing, StateActive)
	if rerr != nil {
		return zero, creds, fmt.Errorf("%w: %w", ErrTokenExpired, err)
	}

	v, err = op(ctx, fresh.AccessToken)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return zero, fresh, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return zero, fresh, err
	}
	return v, fresh, nil
}
