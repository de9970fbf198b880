// Package session orchestrates one send/receive cycle of the active
// conversation and guards against overlapping sends.
//
// Invariants:
//   - at most one request is in flight per session; a second Send is
//     rejected, never queued.
//   - the in-flight flag is always reset before Send returns.
//   - the message history is append-only and alternates user/assistant on
//     the success path.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"chat-ai/ai"
	"chat-ai/domain"
	"chat-ai/errors"
	"chat-ai/render"

	"github.com/google/uuid"
)

// Recorder is the slice of the repository the session needs.
type Recorder interface {
	RecordExchange(id uuid.UUID, newMessages []domain.Message) (uuid.UUID, error)
}

// Session is the in-memory working state of the conversation currently being
// viewed. ActiveID is uuid.Nil for a brand-new, never-persisted conversation
// and transitions to a concrete id exactly once, on first successful
// persistence.
type Session struct {
	recorder Recorder
	client   ai.CompletionClient
	renderer render.Renderer
	log      *slog.Logger

	active   uuid.UUID
	messages []domain.Message
	inFlight atomic.Bool
}

func New(recorder Recorder, client ai.CompletionClient, renderer render.Renderer, log *slog.Logger) *Session {
	return &Session{recorder: recorder, client: client, renderer: renderer, log: log}
}

// StartNew resets the session to an empty, unsaved conversation.
// No store side effects; the previous conversation stays persisted as-is.
func (s *Session) StartNew() {
	s.active = uuid.Nil
	s.messages = nil
	s.inFlight.Store(false)
}

// Resume loads a previously persisted conversation into the session.
func (s *Session) Resume(conv domain.Conversation) {
	s.active = conv.ID
	s.messages = append([]domain.Message(nil), conv.Messages...)
	s.inFlight.Store(false)
}

// Send runs one full exchange: append the user message, call the model with
// the whole history, render and append the reply, persist the new pair.
// It returns the messages added during the call.
//
// On completion failure the user message stays in the history but nothing is
// persisted; the history is ahead of the store until the next successful
// send. On persistence failure both messages stay in the history, same
// divergence. Empty input is rejected before any state changes.
func (s *Session) Send(ctx context.Context, userText string) ([]domain.Message, error) {
	if strings.TrimSpace(userText) == "" {
		return nil, errors.ErrEmptyMessage
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, errors.ErrRequestInFlight
	}
	defer s.inFlight.Store(false)

	userMessage := domain.NewUserMessage(userText)
	s.messages = append(s.messages, userMessage)

	reply, err := s.client.Complete(ctx, s.messages)
	if err != nil {
		s.log.Error("Completion failed, keeping unsent user message", "error", err)
		return []domain.Message{userMessage}, fmt.Errorf("completion failed: %w", err)
	}

	assistantMessage := domain.NewAssistantMessage(reply, s.renderText(reply))
	s.messages = append(s.messages, assistantMessage)

	exchange := []domain.Message{userMessage, assistantMessage}
	id, err := s.recorder.RecordExchange(s.active, exchange)
	if err != nil {
		s.log.Error("Persisting exchange failed, history is ahead of the store", "error", err)
		return exchange, err
	}
	s.active = id
	return exchange, nil
}

// renderText falls back to the raw reply if the renderer errors, so a
// display problem never loses model output.
func (s *Session) renderText(text string) string {
	rendered, err := s.renderer.Render(text)
	if err != nil {
		s.log.Warn("Rendering failed, falling back to raw text", "error", err)
		return text
	}
	return rendered
}

// Messages returns a copy of the current history in display order.
func (s *Session) Messages() []domain.Message {
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// ActiveID returns the backing conversation id, uuid.Nil when unsaved.
func (s *Session) ActiveID() uuid.UUID {
	return s.active
}
