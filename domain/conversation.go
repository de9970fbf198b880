package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Conversation is a persisted, identified message history.
// ID and CreatedAt are assigned exactly once, when the conversation is first
// written to the store, and never change afterwards. Messages keep insertion
// order, which is both chronological and display order.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Messages  []Message `json:"messages"`
}

// Title returns the label used in the conversation listing: the first user
// message, truncated to a single line.
func (c Conversation) Title() string {
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			if line, _, found := strings.Cut(m.Content, "\n"); found {
				return line
			}
			return m.Content
		}
	}
	return ""
}

// Summary is the denormalized listing view of a conversation.
// It carries the full message slice so the presentation layer can resume a
// conversation straight from the listing without a second store read.
type Summary struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Messages  []Message
}

// Title mirrors Conversation.Title for listing entries.
func (s Summary) Title() string {
	return Conversation{Messages: s.Messages}.Title()
}
