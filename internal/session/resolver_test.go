package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nhanhataka-sys/replify-dashboard/internal/api"
	"github.com/nhanhataka-sys/replify-dashboard/internal/auth"
	"github.com/nhanhataka-sys/replify-dashboard/internal/domain"
)

// fakeAuth is a controllable auth client: tests push sessions through
// setSession and the resolver reacts via its subscription.
type fakeAuth struct {
	mu          sync.Mutex
	session     auth.Session
	subscribers []func(auth.Session)
}

func newFakeAuth(initial auth.Session) *fakeAuth {
	return &fakeAuth{session: initial}
}

func (f *fakeAuth) setSession(s auth.Session) {
	f.mu.Lock()
	f.session = s
	callbacks := append(([]func(auth.Session))(nil), f.subscribers...)
	f.mu.Unlock()
	for _, fn := range callbacks {
		fn(s)
	}
}

func (f *fakeAuth) SignIn(context.Context, string, string) error { return nil }

func (f *fakeAuth) SignUp(context.Context, string, string) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAuth) SignOut(context.Context) error {
	f.setSession(auth.Session{})
	return nil
}

func (f *fakeAuth) Session() auth.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *fakeAuth) Subscribe(fn func(auth.Session)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribers = append(f.subscribers, fn)
	return func() {}
}

// fakeBusinessAPI answers business lookups, optionally blocking until
// released so tests can interleave identity changes.
type fakeBusinessAPI struct {
	mu       sync.Mutex
	business *domain.Business
	err      error
	block    chan struct{}
	calls    int
}

func (f *fakeBusinessAPI) ResolveBusiness(_ context.Context, _ string) (*domain.Business, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	business, err := f.business, f.err
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return business, err
}

func waitForView(t *testing.T, r *Resolver, view domain.View) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.State().View == view {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("view never became %s, stuck at %s", view, r.State().View)
}

func TestResolverRouting(t *testing.T) {
	user := &domain.User{ID: "u1", Email: "owner@example.com"}

	tests := []struct {
		name      string
		session   auth.Session
		business  *domain.Business
		lookupErr error
		wantView  domain.View
		wantBizID string
	}{
		{
			name:     "loading stays on checking",
			session:  auth.Session{Loading: true},
			wantView: domain.ViewChecking,
		},
		{
			name:     "no user routes to login",
			session:  auth.Session{},
			wantView: domain.ViewLogin,
		},
		{
			name:      "user with business routes to dashboard",
			session:   auth.Session{User: user},
			business:  &domain.Business{ID: "biz-1"},
			wantView:  domain.ViewDashboard,
			wantBizID: "biz-1",
		},
		{
			name:      "user without business routes to onboarding",
			session:   auth.Session{User: user},
			lookupErr: api.ErrNotFound,
			wantView:  domain.ViewOnboarding,
		},
		{
			name:      "lookup transport error routes to onboarding",
			session:   auth.Session{User: user},
			lookupErr: errors.New("connection refused"),
			wantView:  domain.ViewOnboarding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBusinessAPI{business: tt.business, err: tt.lookupErr}
			authClient := newFakeAuth(tt.session)

			r := NewResolver(backend, authClient, nil)
			r.Start(context.Background())
			defer r.Stop()

			waitForView(t, r, tt.wantView)
			if got := r.State().BusinessID; got != tt.wantBizID {
				t.Errorf("BusinessID = %q, want %q", got, tt.wantBizID)
			}
		})
	}
}

func TestResolverChecksWhileLookupInFlight(t *testing.T) {
	backend := &fakeBusinessAPI{business: &domain.Business{ID: "biz-1"}}
	backend.block = make(chan struct{})
	authClient := newFakeAuth(auth.Session{User: &domain.User{ID: "u1"}})

	r := NewResolver(backend, authClient, nil)
	r.Start(context.Background())
	defer r.Stop()

	if got := r.State().View; got != domain.ViewChecking {
		t.Errorf("view during lookup = %s, want checking", got)
	}

	close(backend.block)
	waitForView(t, r, domain.ViewDashboard)
}

func TestSignOutClearsBusinessAndRoutesToLogin(t *testing.T) {
	backend := &fakeBusinessAPI{business: &domain.Business{ID: "biz-1"}}
	authClient := newFakeAuth(auth.Session{User: &domain.User{ID: "u1"}})

	r := NewResolver(backend, authClient, nil)
	r.Start(context.Background())
	defer r.Stop()
	waitForView(t, r, domain.ViewDashboard)

	if err := r.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut: %v", err)
	}

	state := r.State()
	if state.View != domain.ViewLogin {
		t.Errorf("view after sign-out = %s, want login", state.View)
	}
	if state.BusinessID != "" {
		t.Errorf("business id not cleared: %q", state.BusinessID)
	}
}

func TestStaleLookupIsDiscarded(t *testing.T) {
	backend := &fakeBusinessAPI{business: &domain.Business{ID: "biz-1"}}
	backend.block = make(chan struct{})
	authClient := newFakeAuth(auth.Session{User: &domain.User{ID: "u1"}})

	r := NewResolver(backend, authClient, nil)
	r.Start(context.Background())
	defer r.Stop()

	// Sign out while the lookup for u1 is still in flight.
	authClient.setSession(auth.Session{})
	waitForView(t, r, domain.ViewLogin)

	// The stale lookup completes; it must not yank the user back in.
	close(backend.block)
	time.Sleep(50 * time.Millisecond)

	if got := r.State().View; got != domain.ViewLogin {
		t.Errorf("stale lookup applied, view = %s", got)
	}
}

func TestRequestSignupAndCompleteOnboarding(t *testing.T) {
	backend := &fakeBusinessAPI{}
	authClient := newFakeAuth(auth.Session{})

	r := NewResolver(backend, authClient, nil)
	r.Start(context.Background())
	defer r.Stop()
	waitForView(t, r, domain.ViewLogin)

	r.RequestSignup()
	if got := r.State().View; got != domain.ViewOnboarding {
		t.Fatalf("view after signup request = %s, want onboarding", got)
	}

	r.CompleteOnboarding("biz-9")
	state := r.State()
	if state.View != domain.ViewDashboard || state.BusinessID != "biz-9" {
		t.Errorf("state after onboarding = %+v, want dashboard with biz-9", state)
	}
}

func TestSubscriberSeesEveryTransition(t *testing.T) {
	backend := &fakeBusinessAPI{err: api.ErrNotFound}
	authClient := newFakeAuth(auth.Session{Loading: true})

	r := NewResolver(backend, authClient, nil)

	var mu sync.Mutex
	var seen []domain.View
	unsubscribe := r.Subscribe(func(s State) {
		mu.Lock()
		seen = append(seen, s.View)
		mu.Unlock()
	})
	defer unsubscribe()

	r.Start(context.Background())
	defer r.Stop()

	authClient.setSession(auth.Session{User: &domain.User{ID: "u1"}})
	waitForView(t, r, domain.ViewOnboarding)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 || seen[len(seen)-1] != domain.ViewOnboarding {
		t.Errorf("subscriber transitions = %v, want final onboarding", seen)
	}
}
