package projection

import (
	"testing"
	"time"

	"chat-ai/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func summary(createdAt time.Time, userText string) domain.Summary {
	return domain.Summary{
		ID:        uuid.New(),
		CreatedAt: createdAt,
		Messages:  []domain.Message{domain.NewUserMessage(userText)},
	}
}

func Test_Prepend_Puts_Newest_First(t *testing.T) {
	req := require.New(t)
	index := NewIndex()
	now := time.Now().UTC()

	older := summary(now, "older")
	newer := summary(now.Add(time.Minute), "newer")
	index.Prepend(older)
	index.Prepend(newer)

	entries := index.Entries()
	req.Len(entries, 2)
	req.Equal(newer.ID, entries[0].ID)
	req.Equal(older.ID, entries[1].ID)
}

func Test_Apply_Updates_Content_In_Place(t *testing.T) {
	req := require.New(t)
	index := NewIndex()
	now := time.Now().UTC()

	first := summary(now, "first")
	second := summary(now.Add(time.Minute), "second")
	index.Prepend(first)
	index.Prepend(second)

	grown := append(first.Messages, domain.NewAssistantMessage("ok", "ok"))
	index.Apply(first.ID, grown)

	entries := index.Entries()
	req.Equal(second.ID, entries[0].ID)
	req.Equal(first.ID, entries[1].ID)
	req.Len(entries[1].Messages, 2)
}

func Test_Merge_Keeps_Existing_And_Sorts_New(t *testing.T) {
	req := require.New(t)
	index := NewIndex()
	now := time.Now().UTC()

	// Created by a send that raced the startup scan.
	fresh := summary(now.Add(time.Hour), "fresh")
	index.Prepend(fresh)

	scannedOld := summary(now, "old")
	scannedNew := summary(now.Add(2*time.Minute), "newer")
	index.Merge([]domain.Summary{scannedOld, scannedNew, {ID: fresh.ID, CreatedAt: fresh.CreatedAt}})

	entries := index.Entries()
	req.Len(entries, 3)
	req.Equal(fresh.ID, entries[0].ID)
	req.Equal(scannedNew.ID, entries[1].ID)
	req.Equal(scannedOld.ID, entries[2].ID)
	// The racing entry kept its content, not the scanned copy.
	req.Len(entries[0].Messages, 1)
}

func Test_Entries_Returns_A_Copy(t *testing.T) {
	req := require.New(t)
	index := NewIndex()
	index.Prepend(summary(time.Now().UTC(), "only"))

	entries := index.Entries()
	entries[0].Messages = nil
	req.Len(index.Entries()[0].Messages, 1)
}
