// Package domain contains core concepts of the chat client.
// This file defines Message and related rules.
// Messages are immutable once created; histories are append-only.
package domain

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents one immutable chat turn.
// Rendered holds the presentable form of Content: identical to Content for
// user messages, renderer output for assistant messages. It is populated
// before the message is exposed to any caller.
type Message struct {
	Role     Role   `json:"role"`
	Content  string `json:"content"`
	Rendered string `json:"rendered"`
}

// NewUserMessage builds a user turn. User text is displayed verbatim.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Rendered: content}
}

// NewAssistantMessage builds an assistant turn with its rendered form.
func NewAssistantMessage(content, rendered string) Message {
	return Message{Role: RoleAssistant, Content: content, Rendered: rendered}
}
