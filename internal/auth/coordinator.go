package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultRefreshTimeout bounds a single refresh exchange.
const DefaultRefreshTimeout = 30 * time.Second

var (
	// ErrNoRefreshToken means there was no stored session to refresh.
	ErrNoRefreshToken = errors.New("no refresh token stored")

	// ErrSessionEnded means the session was cleared or replaced while the
	// refresh was in flight; the refreshed tokens were discarded.
	ErrSessionEnded = errors.New("session ended during refresh")

	errNoAccessToken = errors.New("refresh response carried no access token")
)

// RefreshError is returned to every caller of a refresh cycle that failed.
type RefreshError struct {
	Cause error
}

func (e *RefreshError) Error() string {
	return "token refresh failed: " + e.Cause.Error()
}

func (e *RefreshError) Unwrap() error {
	return e.Cause
}

// Refresher exchanges a refresh token for a new token pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context, refreshToken string) (*TokenPair, error)

func (f RefresherFunc) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	return f(ctx, refreshToken)
}

// State is the coordinator's position in a refresh cycle.
type State int

const (
	StateIdle State = iota
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRefreshing:
		return "refreshing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// RefreshInfo describes a settled refresh cycle.
type RefreshInfo struct {
	Waiters  int
	Duration time.Duration
	Err      error
}

// RefreshHooks observes refresh cycles.
type RefreshHooks interface {
	OnRefreshStart(ctx context.Context)
	OnRefreshEnd(ctx context.Context, info RefreshInfo)
}

type noopRefreshHooks struct{}

func (noopRefreshHooks) OnRefreshStart(context.Context)             {}
func (noopRefreshHooks) OnRefreshEnd(context.Context, RefreshInfo) {}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRefreshTimeout bounds each refresh exchange. Non-positive values are ignored.
func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRefreshHooks sets the refresh observer.
func WithRefreshHooks(h RefreshHooks) Option {
	return func(c *Coordinator) {
		if h != nil {
			c.hooks = h
		}
	}
}

// Coordinator runs at most one token refresh at a time. Callers that ask
// for a refresh while one is in flight wait for its result instead of
// starting another.
type Coordinator struct {
	store     *Store
	refresher Refresher
	timeout   time.Duration
	hooks     RefreshHooks

	group singleflight.Group

	mu      sync.Mutex
	state   State
	pending int
}

// NewCoordinator creates a coordinator that refreshes the session in store.
func NewCoordinator(store *Store, refresher Refresher, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		refresher: refresher,
		timeout:   DefaultRefreshTimeout,
		hooks:     noopRefreshHooks{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

const refreshKey = "refresh"

// Refresh obtains a new access token. The first caller in an idle
// coordinator starts a refresh cycle; everyone arriving before it settles
// joins that cycle. On success the new tokens are saved before any caller
// is released. On failure the store is cleared and every caller gets a
// *RefreshError.
//
// A caller whose ctx ends stops waiting and gets ctx.Err(); the cycle
// itself runs to completion for the others.
func (c *Coordinator) Refresh(ctx context.Context) (string, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(refreshKey, func() (any, error) {
		return c.run(detached)
	})

	c.mu.Lock()
	c.pending++
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.pending--
		c.mu.Unlock()
	}()

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		token, _ := res.Val.(string)
		return token, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending returns the number of callers waiting on a refresh.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// run is one refresh cycle. The group delivers its result to every joined
// caller only after it returns, so the store write precedes every release.
func (c *Coordinator) run(ctx context.Context) (string, error) {
	start := time.Now()
	c.setState(StateRefreshing)
	c.hooks.OnRefreshStart(ctx)

	token, err := c.exchange(ctx)

	c.mu.Lock()
	c.state = StateIdle
	waiters := c.pending
	c.mu.Unlock()

	c.hooks.OnRefreshEnd(ctx, RefreshInfo{
		Waiters:  waiters,
		Duration: time.Since(start),
		Err:      err,
	})
	return token, err
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

func (c *Coordinator) exchange(ctx context.Context) (string, error) {
	current, gen := c.store.snapshot()
	if current == nil || current.RefreshToken == "" {
		return "", c.fail(gen, ErrNoRefreshToken)
	}

	rctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	pair, err := c.refresher.Refresh(rctx, current.RefreshToken)
	if err == nil && (pair == nil || pair.AccessToken == "") {
		err = errNoAccessToken
	}
	if err != nil {
		return "", c.fail(gen, err)
	}

	next := current.clone()
	next.AccessToken = pair.AccessToken
	if pair.RefreshToken != "" {
		next.RefreshToken = pair.RefreshToken
	}

	saved, err := c.store.SaveIf(gen, next)
	if err != nil {
		return "", c.fail(gen, err)
	}
	if !saved {
		return "", &RefreshError{Cause: ErrSessionEnded}
	}
	return next.AccessToken, nil
}

// fail clears the session the cycle started from. A session saved by
// someone else in the meantime is left alone.
func (c *Coordinator) fail(gen uint64, cause error) error {
	if cleared, err := c.store.ClearIf(gen); cleared && err != nil {
		cause = errors.Join(cause, err)
	}
	return &RefreshError{Cause: cause}
}
