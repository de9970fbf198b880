package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chat-ai/domain"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

// SearchRepository maintains a Bluge full-text index over stored messages so
// old conversations can be found by content instead of scrolling the listing.
type SearchRepository struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchRepository(writer *bluge.Writer, log *slog.Logger) *SearchRepository {
	return &SearchRepository{writer: writer, log: log}
}

// Hit is one search result: the conversation it belongs to and the matched
// message text.
type Hit struct {
	ConversationID uuid.UUID
	Role           domain.Role
	Content        string
}

// Index adds one document per message.
// The doc id is "msg:{conversation}:{timestamp}:{uuid}": the padded timestamp
// plus uuid disambiguates messages indexed within the same exchange.
func (s *SearchRepository) Index(convID uuid.UUID, messages []domain.Message) error {
	batch := bluge.NewBatch()
	now := time.Now().UnixNano()
	for i, m := range messages {
		docID := fmt.Sprintf("msg:%s:%019d:%s", convID, now+int64(i), uuid.New())
		doc := bluge.NewDocument(docID).
			AddField(bluge.NewKeywordField("conversation_id", convID.String()).StoreValue()).
			AddField(bluge.NewKeywordField("role", string(m.Role)).StoreValue()).
			AddField(bluge.NewTextField("content", m.Content).StoreValue())
		batch.Update(doc.ID(), doc)
	}
	return s.writer.Batch(batch)
}

// Search runs a match query over message content and returns up to limit hits.
func (s *SearchRepository) Search(ctx context.Context, terms string, limit int) ([]Hit, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("opening search reader: %w", err)
	}
	defer func() { _ = reader.Close() }()

	query := bluge.NewMatchQuery(terms).SetField("content")
	request := bluge.NewTopNSearch(limit, query)

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", terms, err)
	}

	var hits []Hit
	match, err := iterator.Next()
	for err == nil && match != nil {
		var hit Hit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "conversation_id":
				if id, parseErr := uuid.Parse(string(value)); parseErr == nil {
					hit.ConversationID = id
				}
			case "role":
				hit.Role = domain.Role(value)
			case "content":
				hit.Content = string(value)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		if hit.ConversationID == uuid.Nil {
			s.log.Warn("Dropping search hit without conversation id")
		} else {
			hits = append(hits, hit)
		}
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}
