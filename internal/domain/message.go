package domain

import (
	"time"
)

// MessageRole identifies who authored a message.
type MessageRole string

const (
	// RoleUser is the customer on the WhatsApp side.
	RoleUser MessageRole = "user"
	// RoleAssistant is the AI agent.
	RoleAssistant MessageRole = "assistant"
	// RoleHumanAgent is the business operator replying from the dashboard.
	RoleHumanAgent MessageRole = "human_agent"
)

// Message is a single entry in a conversation transcript. Messages
// are immutable once created and belong to exactly one conversation.
type Message struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// FromCustomer reports whether the message came from the customer.
func (m *Message) FromCustomer() bool {
	return m.Role == RoleUser
}
