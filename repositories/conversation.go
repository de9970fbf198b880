//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"chat-ai/domain"
	"chat-ai/errors"
	"chat-ai/projection"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const convKeyPrefix = "conv:"

type IConversationRepository interface {
	RecordExchange(id uuid.UUID, newMessages []domain.Message) (uuid.UUID, error)
	LoadAll(ctx context.Context) ([]domain.Summary, error)
	Get(id uuid.UUID) (domain.Conversation, error)
	Listing() []domain.Summary
}

// ConversationRepository persists conversations in BadgerDB and keeps the
// in-memory listing and the search index in step with every write.
// Identity is assigned here, on first write, never by the session.
type ConversationRepository struct {
	db     *badger.DB
	search *SearchRepository
	index  *projection.Index
	log    *slog.Logger
	limit  *int
}

// NewConversationRepository wires the repository. search may be nil when no
// full-text index is configured (the history viewer runs without one).
func NewConversationRepository(db *badger.DB, search *SearchRepository, log *slog.Logger, limit *int) *ConversationRepository {
	return &ConversationRepository{
		db:     db,
		search: search,
		index:  projection.NewIndex(),
		log:    log,
		limit:  limit,
	}
}

// record is the stored value; the conversation id lives in the key only.
type record struct {
	CreatedAt time.Time        `json:"created_time"`
	Messages  []domain.Message `json:"messages"`
}

func convKey(id uuid.UUID) []byte {
	return []byte(convKeyPrefix + id.String())
}

// RecordExchange writes one completed user/assistant exchange through to the
// store and returns the conversation id, minting it on first write.
//
// A nil id creates the conversation: fresh uuid, creation time captured once,
// and the listing entry is prepended (most recent first). A known id appends
// to the stored history; the listing entry is updated in place and keeps its
// position. An unknown non-nil id is a fatal inconsistency for the operation
// and yields ErrConversationNotFound.
func (r *ConversationRepository) RecordExchange(id uuid.UUID, newMessages []domain.Message) (uuid.UUID, error) {
	if id == uuid.Nil {
		return r.create(newMessages)
	}
	if err := r.append(id, newMessages); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *ConversationRepository) create(messages []domain.Message) (uuid.UUID, error) {
	id := uuid.New()
	rec := record{CreatedAt: time.Now().UTC(), Messages: messages}
	bytes, err := encodeRecord(rec)
	if err != nil {
		return uuid.Nil, err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(convKey(id), bytes)
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("storing conversation %s: %w", id, err)
	}

	r.index.Prepend(domain.Summary{ID: id, CreatedAt: rec.CreatedAt, Messages: messages})
	r.indexForSearch(id, messages)
	r.log.Debug("Conversation created", "id", id, "messages", len(messages))
	return id, nil
}

func (r *ConversationRepository) append(id uuid.UUID, newMessages []domain.Message) error {
	var updated []domain.Message
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(convKey(id))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", errors.ErrConversationNotFound, id)
		}
		if err != nil {
			return err
		}
		var rec record
		if err = item.Value(func(value []byte) error {
			rec, err = decodeRecord(value)
			return err
		}); err != nil {
			return err
		}
		rec.Messages = append(rec.Messages, newMessages...)
		updated = rec.Messages
		bytes, err := encodeRecord(rec)
		if err != nil {
			return err
		}
		return txn.Set(convKey(id), bytes)
	})
	if err != nil {
		return err
	}

	// The entry keeps its listing position on append; only its content moves.
	r.index.Apply(id, updated)
	r.indexForSearch(id, newMessages)
	r.log.Debug("Conversation extended", "id", id, "total", len(updated))
	return nil
}

// indexForSearch feeds the search index. Search is derived data: a failure
// here is logged and never fails the durable write.
func (r *ConversationRepository) indexForSearch(id uuid.UUID, messages []domain.Message) {
	if r.search == nil {
		return
	}
	if err := r.search.Index(id, messages); err != nil {
		r.log.Warn("Search indexing failed", "id", id, "error", err)
	}
}

// LoadAll scans every stored conversation and rebuilds the listing, most
// recent first. It is an O(conversations) full scan, run once at startup.
// A store-level scan failure aborts the whole listing; a single malformed
// record is skipped and logged so one bad entry cannot empty the sidebar.
func (r *ConversationRepository) LoadAll(_ context.Context) ([]domain.Summary, error) {
	var convs []domain.Conversation
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = true
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(convKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id, err := uuid.Parse(string(item.Key()[len(prefix):]))
			if err != nil {
				r.log.Warn("Skipping entry with malformed key", "key", string(item.Key()))
				continue
			}
			err = item.Value(func(value []byte) error {
				rec, err := decodeRecord(value)
				if err != nil {
					r.log.Warn("Skipping malformed conversation record", "id", id, "error", err)
					return nil
				}
				convs = append(convs, domain.Conversation{ID: id, CreatedAt: rec.CreatedAt, Messages: rec.Messages})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.log.Error("Loading conversation listing failed", "error", err)
		return nil, fmt.Errorf("loading conversations: %w", err)
	}

	r.index.Merge(lo.Map(convs, func(c domain.Conversation, _ int) domain.Summary {
		return domain.Summary{ID: c.ID, CreatedAt: c.CreatedAt, Messages: c.Messages}
	}))
	return r.Listing(), nil
}

// Get reads a single conversation by id.
func (r *ConversationRepository) Get(id uuid.UUID) (domain.Conversation, error) {
	var rec record
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(convKey(id))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", errors.ErrConversationNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			rec, err = decodeRecord(value)
			return err
		})
	})
	if err != nil {
		return domain.Conversation{}, err
	}
	return domain.Conversation{ID: id, CreatedAt: rec.CreatedAt, Messages: rec.Messages}, nil
}

// Listing returns the current in-memory listing, capped to the configured
// limit when one is set.
func (r *ConversationRepository) Listing() []domain.Summary {
	entries := r.index.Entries()
	if r.limit != nil && len(entries) > *r.limit {
		entries = entries[:*r.limit]
	}
	return entries
}
