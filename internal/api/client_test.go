package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nhanhataka-sys/replify-dashboard/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 5*time.Second, nil)
}

func TestResolveBusiness(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/businesses/me" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("user_id"); got != "u1" {
			t.Errorf("user_id = %q, want u1", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "biz-1"})
	}))

	business, err := client.ResolveBusiness(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ResolveBusiness: %v", err)
	}
	if business.ID != "biz-1" {
		t.Errorf("ID = %q, want biz-1", business.ID)
	}
}

func TestResolveBusinessNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"detail":"not found"}`, http.StatusNotFound)
	}))

	_, err := client.ResolveBusiness(context.Background(), "u1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestListConversationsQuery(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		wantStatus string
		wantHas    bool
	}{
		{"no filter omits status", "", "", false},
		{"filter sets status", "needs_human", "needs_human", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				query := r.URL.Query()
				if got := query.Get("business_id"); got != "biz-1" {
					t.Errorf("business_id = %q", got)
				}
				if _, has := query["status"]; has != tt.wantHas {
					t.Errorf("status param present = %v, want %v", has, tt.wantHas)
				}
				if tt.wantHas && query.Get("status") != tt.wantStatus {
					t.Errorf("status = %q, want %q", query.Get("status"), tt.wantStatus)
				}
				w.Write([]byte(`[{"id":"c1","status":"open"}]`))
			}))

			conversations, err := client.ListConversations(context.Background(), "biz-1", tt.status)
			if err != nil {
				t.Fatalf("ListConversations: %v", err)
			}
			if len(conversations) != 1 || conversations[0].Status != domain.StatusOpen {
				t.Errorf("unexpected conversations: %+v", conversations)
			}
		})
	}
}

func TestSendReplyBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.URL.Path != "/api/conversations/c1/reply" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Message != "on the way" {
			t.Errorf("message = %q", body.Message)
		}
		w.WriteHeader(http.StatusOK)
	}))

	if err := client.SendReply(context.Background(), "c1", "on the way"); err != nil {
		t.Fatalf("SendReply: %v", err)
	}
}

func TestErrorDetailPreservedVerbatim(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{"detail field", http.StatusBadRequest, `{"detail":"message too long"}`, "message too long"},
		{"error field fallback", http.StatusInternalServerError, `{"error":"backend exploded"}`, "backend exploded"},
		{"unparseable body", http.StatusBadGateway, "<html>nope</html>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))

			err := client.SendReply(context.Background(), "c1", "hi")
			if err == nil {
				t.Fatal("expected error")
			}
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("error type %T, want *Error", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if apiErr.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", apiErr.Detail, tt.wantDetail)
			}
		})
	}
}

func TestTakeoverAndResolvePaths(t *testing.T) {
	var paths []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	ctx := context.Background()
	if err := client.Takeover(ctx, "c9"); err != nil {
		t.Fatalf("Takeover: %v", err)
	}
	if err := client.Resolve(ctx, "c9"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := []string{"/api/conversations/c9/takeover", "/api/conversations/c9/resolve"}
	for i, p := range want {
		if paths[i] != p {
			t.Errorf("call %d path = %s, want %s", i, paths[i], p)
		}
	}
}

func TestRegisterBusiness(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/businesses/register" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req RegisterBusinessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Name != "Mama's Kitchen" || req.UserID != "u1" {
			t.Errorf("unexpected request: %+v", req)
		}
		if len(req.Catalogue) != 1 || req.Catalogue[0].Name != "Jollof" {
			t.Errorf("unexpected catalogue: %+v", req.Catalogue)
		}
		json.NewEncoder(w).Encode(map[string]string{"business_id": "biz-7"})
	}))

	id, err := client.RegisterBusiness(context.Background(), &RegisterBusinessRequest{
		UserID: "u1",
		Name:   "Mama's Kitchen",
		Catalogue: []CatalogueItem{
			{Name: "Jollof", Price: "1500"},
		},
	})
	if err != nil {
		t.Fatalf("RegisterBusiness: %v", err)
	}
	if id != "biz-7" {
		t.Errorf("business id = %q, want biz-7", id)
	}
}

func TestErrorMessageFormat(t *testing.T) {
	withDetail := &Error{StatusCode: 400, Detail: "bad input"}
	if got := withDetail.Error(); got != "backend returned 400: bad input" {
		t.Errorf("Error() = %q", got)
	}
	bare := &Error{StatusCode: 502}
	if got := bare.Error(); got != "backend returned 502" {
		t.Errorf("Error() = %q", got)
	}
}
