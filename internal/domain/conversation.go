// Package domain contains core domain types for the Replify dashboard.
package domain

import (
	"time"
)

// ConversationStatus is the lifecycle state of a customer conversation.
type ConversationStatus string

const (
	// StatusOpen means the conversation is active and AI-handled by default.
	StatusOpen ConversationStatus = "open"
	// StatusNeedsHuman means a human agent has taken over or is required.
	StatusNeedsHuman ConversationStatus = "needs_human"
	// StatusResolved means the conversation is closed to further replies.
	StatusResolved ConversationStatus = "resolved"
)

// Conversation is one customer thread as returned by the backend.
// List order is server-determined (most recent first); the client
// never re-sorts.
type Conversation struct {
	ID             string             `json:"id"`
	CustomerName   string             `json:"customer_name,omitempty"`
	CustomerNumber string             `json:"customer_number"`
	Status         ConversationStatus `json:"status"`
	AIHandling     bool               `json:"ai_handling"`
	LastMessage    string             `json:"last_message,omitempty"`
	LastMessageAt  time.Time          `json:"last_message_at"`
}

// DisplayName returns the customer name, falling back to the number.
func (c *Conversation) DisplayName() string {
	if c.CustomerName != "" {
		return c.CustomerName
	}
	return c.CustomerNumber
}

// CanReply reports whether a reply may be composed for this
// conversation. Resolved conversations are closed to replies.
func (c *Conversation) CanReply() bool {
	return c.Status != StatusResolved
}
