package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/nhanhataka-sys/replify-dashboard/internal/store"
)

func newTestRepo(t *testing.T) store.Repository {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func authHandler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/signin", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Fatalf("decode credentials: %v", err)
		}
		if creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Invalid login credentials"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"user":         map[string]string{"id": "u1", "email": creds.Email},
			"access_token": "tok-123",
		})
	})
	mux.HandleFunc("/auth/v1/signup", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"user":         map[string]string{"id": "u2", "email": "new@example.com"},
			"access_token": "tok-456",
		})
	})
	mux.HandleFunc("/auth/v1/signout", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			t.Error("sign-out without bearer token")
		}
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func TestSignInUpdatesSessionAndNotifies(t *testing.T) {
	server := httptest.NewServer(authHandler(t))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second, newTestRepo(t), nil)

	var notified []Session
	client.Subscribe(func(s Session) { notified = append(notified, s) })

	if err := client.SignIn(context.Background(), "owner@example.com", "secret"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	session := client.Session()
	if !session.Authenticated() || session.User.ID != "u1" {
		t.Errorf("session = %+v, want user u1", session)
	}
	if len(notified) != 1 || notified[0].User == nil {
		t.Errorf("subscriber notifications = %+v", notified)
	}
}

func TestSignInFailureSurfacesBackendMessage(t *testing.T) {
	server := httptest.NewServer(authHandler(t))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second, newTestRepo(t), nil)

	err := client.SignIn(context.Background(), "owner@example.com", "wrong")
	if err == nil {
		t.Fatal("expected sign-in to fail")
	}
	var authErr *Error
	if !errors.As(err, &authErr) {
		t.Fatalf("error type %T, want *Error", err)
	}
	if authErr.Message != "Invalid login credentials" {
		t.Errorf("message = %q, want backend text verbatim", authErr.Message)
	}
	if client.Session().Authenticated() {
		t.Error("failed sign-in must not produce a session")
	}
}

func TestRestoreRecoversPersistedSession(t *testing.T) {
	server := httptest.NewServer(authHandler(t))
	defer server.Close()

	dbPath := filepath.Join(t.TempDir(), "auth.db")
	repo, err := store.NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	first := NewHTTPClient(server.URL, 5*time.Second, repo, nil)
	if err := first.SignIn(context.Background(), "owner@example.com", "secret"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	repo.Close()

	// A fresh client over the same database restores the identity
	// without talking to the auth service.
	repo2, err := store.NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer repo2.Close()

	second := NewHTTPClient(server.URL, 5*time.Second, repo2, nil)
	if !second.Session().Loading {
		t.Error("session should be loading before Restore")
	}

	second.Restore(context.Background())
	session := second.Session()
	if session.Loading {
		t.Error("Restore must resolve the loading state")
	}
	if !session.Authenticated() || session.User.Email != "owner@example.com" {
		t.Errorf("restored session = %+v", session)
	}
}

func TestRestoreWithoutStoredSession(t *testing.T) {
	client := NewHTTPClient("http://unused", 5*time.Second, newTestRepo(t), nil)

	var notified []Session
	client.Subscribe(func(s Session) { notified = append(notified, s) })

	client.Restore(context.Background())

	session := client.Session()
	if session.Loading || session.Authenticated() {
		t.Errorf("session = %+v, want empty signed-out state", session)
	}
	if len(notified) != 1 {
		t.Errorf("expected one notification, got %d", len(notified))
	}
}

func TestSignOutClearsEverything(t *testing.T) {
	server := httptest.NewServer(authHandler(t))
	defer server.Close()

	repo := newTestRepo(t)
	client := NewHTTPClient(server.URL, 5*time.Second, repo, nil)
	if err := client.SignIn(context.Background(), "owner@example.com", "secret"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if err := client.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut: %v", err)
	}

	if client.Session().Authenticated() {
		t.Error("session should be empty after sign-out")
	}
	stored, err := repo.LoadSession(context.Background())
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if stored != nil {
		t.Errorf("stored session not cleared: %+v", stored)
	}
}

func TestSignOutClearsLocallyWhenBackendIsDown(t *testing.T) {
	server := httptest.NewServer(authHandler(t))
	client := NewHTTPClient(server.URL, time.Second, newTestRepo(t), nil)
	if err := client.SignIn(context.Background(), "owner@example.com", "secret"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	server.Close()

	if err := client.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut should succeed locally: %v", err)
	}
	if client.Session().Authenticated() {
		t.Error("session should be cleared even when the backend is unreachable")
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	server := httptest.NewServer(authHandler(t))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second, newTestRepo(t), nil)

	calls := 0
	unsubscribe := client.Subscribe(func(Session) { calls++ })
	unsubscribe()

	if err := client.SignIn(context.Background(), "owner@example.com", "secret"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if calls != 0 {
		t.Errorf("unsubscribed callback still ran %d times", calls)
	}
}
