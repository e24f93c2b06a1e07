package tui

import (
	"testing"

	"github.com/nhanhataka-sys/replify-dashboard/internal/domain"
)

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		status domain.ConversationStatus
		want   string
	}{
		{domain.StatusOpen, "Open"},
		{domain.StatusNeedsHuman, "Urgent"},
		{domain.StatusResolved, "Resolved"},
		{domain.ConversationStatus("weird"), "weird"},
	}
	for _, tt := range tests {
		if got := statusLabel(tt.status); got != tt.want {
			t.Errorf("statusLabel(%s) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestRoleLabel(t *testing.T) {
	tests := []struct {
		role domain.MessageRole
		want string
	}{
		{domain.RoleUser, "Customer"},
		{domain.RoleAssistant, "AI"},
		{domain.RoleHumanAgent, "You"},
	}
	for _, tt := range tests {
		if got := roleLabel(tt.role); got != tt.want {
			t.Errorf("roleLabel(%s) = %q, want %q", tt.role, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"shorter than max", "hello", 10, "hello"},
		{"exactly max", "hello", 5, "hello"},
		{"cut with ellipsis", "hello world", 8, "hello w…"},
		{"max one", "hello", 1, "…"},
		{"zero max", "hello", 0, ""},
		{"multibyte runes", "héllo wörld", 8, "héllo w…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}
