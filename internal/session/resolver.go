// Package session implements the top-level view resolution state machine.
//
// The resolver maps the auth session (loading flag plus optional user)
// to exactly one of the four views, performing a business lookup when
// a user identity appears. See the transition table on Resolver.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/nhanhataka-sys/replify-dashboard/internal/api"
	"github.com/nhanhataka-sys/replify-dashboard/internal/auth"
	"github.com/nhanhataka-sys/replify-dashboard/internal/domain"
)

// BusinessAPI is the slice of the backend client the resolver needs.
type BusinessAPI interface {
	ResolveBusiness(ctx context.Context, userID string) (*domain.Business, error)
}

// State is the resolver's output: the active view and, on the
// dashboard, the resolved business id.
type State struct {
	View       domain.View
	BusinessID string
}

// Resolver decides which top-level view to show.
//
// Transitions:
//
//	auth loading            -> checking
//	no user                 -> login
//	user present            -> checking, then business lookup:
//	    lookup ok           -> dashboard (carrying the business id)
//	    lookup 404 or error -> onboarding
//	onboarding complete     -> dashboard
//	sign-out                -> login (business id cleared)
//	signup requested        -> onboarding
//
// Routing lookup failures to onboarding instead of an error screen is
// deliberate: "cannot confirm a business exists" is treated the same
// as "no business exists" so the user is never dead-ended. The two
// cases are logged distinctly so operators can tell them apart.
type Resolver struct {
	api    BusinessAPI
	auth   auth.Client
	logger *slog.Logger

	mu          sync.Mutex
	state       State
	generation  uint64
	subscribers map[int]func(State)
	nextSubID   int
	ctx         context.Context
	unsubAuth   func()
}

// NewResolver creates a resolver in the checking state.
func NewResolver(businessAPI BusinessAPI, authClient auth.Client, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		api:         businessAPI,
		auth:        authClient,
		logger:      logger,
		state:       State{View: domain.ViewChecking},
		subscribers: make(map[int]func(State)),
	}
}

// Start subscribes to auth session changes and applies the current
// session. ctx bounds all business lookups the resolver issues.
func (r *Resolver) Start(ctx context.Context) {
	r.mu.Lock()
	r.ctx = ctx
	r.mu.Unlock()

	r.unsubAuth = r.auth.Subscribe(r.apply)
	r.apply(r.auth.Session())
}

// Stop removes the auth subscription.
func (r *Resolver) Stop() {
	if r.unsubAuth != nil {
		r.unsubAuth()
		r.unsubAuth = nil
	}
}

// State returns the current view and business id.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Subscribe registers a callback invoked on every state change.
func (r *Resolver) Subscribe(fn func(State)) (unsubscribe func()) {
	r.mu.Lock()
	id := r.nextSubID
	r.nextSubID++
	r.subscribers[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subscribers, id)
		r.mu.Unlock()
	}
}

// RequestSignup routes to onboarding before any session exists.
func (r *Resolver) RequestSignup() {
	r.setState(State{View: domain.ViewOnboarding})
}

// CompleteOnboarding routes to the dashboard with the business id the
// onboarding flow produced.
func (r *Resolver) CompleteOnboarding(businessID string) {
	r.setState(State{View: domain.ViewDashboard, BusinessID: businessID})
}

// SignOut ends the auth session and routes to login. The cached
// business id is cleared immediately; the auth client's own change
// notification confirms the login view.
func (r *Resolver) SignOut(ctx context.Context) error {
	r.setState(State{View: domain.ViewLogin})
	return r.auth.SignOut(ctx)
}

// apply maps an auth session onto a view, issuing a business lookup
// when a user identity is present. Each call bumps the lookup
// generation so a stale in-flight lookup can't overwrite the result
// of a newer identity change.
func (r *Resolver) apply(s auth.Session) {
	if s.Loading {
		return
	}

	if s.User == nil {
		r.mu.Lock()
		r.generation++
		r.mu.Unlock()
		r.setState(State{View: domain.ViewLogin})
		return
	}

	r.mu.Lock()
	r.generation++
	generation := r.generation
	ctx := r.ctx
	r.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}

	r.setState(State{View: domain.ViewChecking})
	go r.lookup(ctx, generation, s.User.ID)
}

func (r *Resolver) lookup(ctx context.Context, generation uint64, userID string) {
	business, err := r.api.ResolveBusiness(ctx, userID)

	r.mu.Lock()
	if generation != r.generation {
		r.mu.Unlock()
		r.logger.Debug("discarding stale business lookup", "user_id", userID)
		return
	}
	r.mu.Unlock()

	switch {
	case err == nil:
		r.logger.Info("business resolved", "user_id", userID, "business_id", business.ID)
		r.setState(State{View: domain.ViewDashboard, BusinessID: business.ID})
	case errors.Is(err, api.ErrNotFound):
		r.logger.Info("no business registered, routing to onboarding", "user_id", userID)
		r.setState(State{View: domain.ViewOnboarding})
	default:
		// Could be a real outage; route to onboarding anyway but make
		// the failure visible to operators.
		r.logger.Warn("business lookup failed, routing to onboarding", "user_id", userID, "error", err)
		r.setState(State{View: domain.ViewOnboarding})
	}
}

func (r *Resolver) setState(next State) {
	r.mu.Lock()
	if r.state == next {
		r.mu.Unlock()
		return
	}
	r.state = next
	callbacks := make([]func(State), 0, len(r.subscribers))
	for _, fn := range r.subscribers {
		callbacks = append(callbacks, fn)
	}
	r.mu.Unlock()

	r.logger.Debug("view changed", "view", next.View.String())
	for _, fn := range callbacks {
		fn(next)
	}
}
