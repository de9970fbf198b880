package session_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"chat-ai/domain"
	"chat-ai/errors"
	"chat-ai/mocks"
	"chat-ai/render"
	"chat-ai/repositories"
	"chat-ai/session"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func openTestRepository(t *testing.T) *repositories.ConversationRepository {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repositories.NewConversationRepository(db, nil, slog.Default(), nil)
}

func TestSend_FirstExchange_CreatesConversation(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	client := mocks.NewMockCompletionClient(ctrl)
	repository := openTestRepository(t)
	chat := session.New(repository, client, render.Plain{}, slog.Default())

	client.EXPECT().Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, history []domain.Message) (string, error) {
			// The just-appended user message is part of the request context.
			if len(history) != 1 || history[0].Content != "Hi" {
				return "", fmt.Errorf("unexpected history: %+v", history)
			}
			return "Hello!", nil
		})

	added, err := chat.Send(context.Background(), "Hi")
	req.NoError(err)
	req.Len(added, 2)

	messages := chat.Messages()
	req.Equal([]domain.Message{
		domain.NewUserMessage("Hi"),
		domain.NewAssistantMessage("Hello!", "Hello!"),
	}, messages)

	id := chat.ActiveID()
	req.NotEqual(uuid.Nil, id)
	stored, err := repository.Get(id)
	req.NoError(err)
	req.False(stored.CreatedAt.IsZero())
	req.Equal(messages, stored.Messages)
}

func TestSend_AfterResume_ExtendsSameConversation(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	client := mocks.NewMockCompletionClient(ctrl)
	repository := openTestRepository(t)

	seeded, err := repository.RecordExchange(uuid.Nil, []domain.Message{
		domain.NewUserMessage("Hi"),
		domain.NewAssistantMessage("Hello!", "Hello!"),
	})
	req.NoError(err)
	before, err := repository.Get(seeded)
	req.NoError(err)

	chat := session.New(repository, client, render.Plain{}, slog.Default())
	chat.Resume(before)
	client.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("ok", nil)

	_, err = chat.Send(context.Background(), "more")
	req.NoError(err)
	req.Equal(seeded, chat.ActiveID())

	after, err := repository.Get(seeded)
	req.NoError(err)
	req.Len(after.Messages, 4)
	req.Equal(before.CreatedAt, after.CreatedAt)
}

func TestSend_CompletionFailure_KeepsUserMessage(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	client := mocks.NewMockCompletionClient(ctrl)
	recorder := mocks.NewMockIConversationRepository(ctrl)
	chat := session.New(recorder, client, render.Plain{}, slog.Default())

	client.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("", fmt.Errorf("boom"))
	// No persistence on the failure path.
	recorder.EXPECT().RecordExchange(gomock.Any(), gomock.Any()).Times(0)

	_, err := chat.Send(context.Background(), "test")
	req.ErrorContains(err, "completion failed")
	req.Equal([]domain.Message{domain.NewUserMessage("test")}, chat.Messages())
	req.Equal(uuid.Nil, chat.ActiveID())

	// The in-flight flag was released: the next send goes through.
	client.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("recovered", nil)
	recorder.EXPECT().RecordExchange(uuid.Nil, gomock.Any()).Return(uuid.New(), nil)
	_, err = chat.Send(context.Background(), "retry")
	req.NoError(err)
}

func TestSend_RejectsOverlappingSend(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	client := mocks.NewMockCompletionClient(ctrl)
	recorder := mocks.NewMockIConversationRepository(ctrl)
	chat := session.New(recorder, client, render.Plain{}, slog.Default())

	started := make(chan struct{})
	release := make(chan struct{})
	client.EXPECT().Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, []domain.Message) (string, error) {
			close(started)
			<-release
			return "done", nil
		})
	recorder.EXPECT().RecordExchange(gomock.Any(), gomock.Any()).Return(uuid.New(), nil)

	firstDone := make(chan error, 1)
	go func() {
		_, err := chat.Send(context.Background(), "slow")
		firstDone <- err
	}()
	<-started

	// Rejected, not queued: no second client call, no state change.
	_, err := chat.Send(context.Background(), "eager")
	req.ErrorIs(err, errors.ErrRequestInFlight)

	close(release)
	req.NoError(<-firstDone)
	messages := chat.Messages()
	req.Len(messages, 2)
	req.Equal("slow", messages[0].Content)
}

func TestSend_EmptyInput_Rejected(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	client := mocks.NewMockCompletionClient(ctrl)
	recorder := mocks.NewMockIConversationRepository(ctrl)
	chat := session.New(recorder, client, render.Plain{}, slog.Default())

	for _, input := range []string{"", "   ", "\n\t"} {
		_, err := chat.Send(context.Background(), input)
		req.ErrorIs(err, errors.ErrEmptyMessage)
	}
	req.Empty(chat.Messages())
}

func TestSend_OrderingAlternatesOverManyExchanges(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	client := mocks.NewMockCompletionClient(ctrl)
	repository := openTestRepository(t)
	chat := session.New(repository, client, render.Plain{}, slog.Default())

	for i := 0; i < 3; i++ {
		client.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(fmt.Sprintf("reply %d", i), nil)
		_, err := chat.Send(context.Background(), fmt.Sprintf("question %d", i))
		req.NoError(err)
	}

	messages := chat.Messages()
	req.Len(messages, 6)
	for i := 0; i < 3; i++ {
		req.Equal(domain.RoleUser, messages[2*i].Role)
		req.Equal(fmt.Sprintf("question %d", i), messages[2*i].Content)
		req.Equal(domain.RoleAssistant, messages[2*i+1].Role)
		req.Equal(fmt.Sprintf("reply %d", i), messages[2*i+1].Content)
	}

	// Identity assigned exactly once, then reused.
	id := chat.ActiveID()
	req.NotEqual(uuid.Nil, id)
	stored, err := repository.Get(id)
	req.NoError(err)
	req.Equal(messages, stored.Messages)
	req.Len(repository.Listing(), 1)
}

func TestStartNew_ResetsWithoutTouchingStore(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	client := mocks.NewMockCompletionClient(ctrl)
	repository := openTestRepository(t)
	chat := session.New(repository, client, render.Plain{}, slog.Default())

	client.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("Hello!", nil)
	_, err := chat.Send(context.Background(), "Hi")
	req.NoError(err)
	saved := chat.ActiveID()

	chat.StartNew()
	req.Equal(uuid.Nil, chat.ActiveID())
	req.Empty(chat.Messages())

	// The previous conversation is still persisted untouched.
	stored, err := repository.Get(saved)
	req.NoError(err)
	req.Len(stored.Messages, 2)
}

func TestSend_PersistFailure_KeepsHistoryAheadOfStore(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	client := mocks.NewMockCompletionClient(ctrl)
	recorder := mocks.NewMockIConversationRepository(ctrl)
	chat := session.New(recorder, client, render.Plain{}, slog.Default())

	client.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("Hello!", nil)
	recorder.EXPECT().RecordExchange(uuid.Nil, gomock.Any()).Return(uuid.Nil, fmt.Errorf("disk full"))

	_, err := chat.Send(context.Background(), "Hi")
	req.ErrorContains(err, "disk full")
	// Both messages stay in memory; the id was never assigned.
	req.Len(chat.Messages(), 2)
	req.Equal(uuid.Nil, chat.ActiveID())
}
