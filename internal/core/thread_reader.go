package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-dm/internal/apperr"
	"github.com/vovakirdan/wirechat-dm/internal/store"
	"github.com/vovakirdan/wirechat-dm/internal/utils"
)

// ThreadReader returns the ordered messages of a conversation to its members.
type ThreadReader struct {
	conversations store.ConversationStore
	messages      store.MessageStore
	log           *zerolog.Logger
}

// NewThreadReader creates a new ThreadReader.
func NewThreadReader(conversations store.ConversationStore, messages store.MessageStore, logger *zerolog.Logger) *ThreadReader {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ThreadReader{
		conversations: conversations,
		messages:      messages,
		log:           logger,
	}
}

// GetMessageThread returns every message of the conversation, oldest first.
// The requester must be a participant; membership is checked by the
// ConversationStore at read time.
func (r *ThreadReader) GetMessageThread(ctx context.Context, requesterID int64, conversationID string) ([]*store.Message, error) {
	if !utils.ValidID(conversationID) {
		return nil, apperr.Validation("conversationId is malformed")
	}

	if _, err := r.conversations.GetConversation(ctx, requesterID, conversationID); err != nil {
		return nil, err
	}

	messages, err := r.messages.ListThread(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []*store.Message{}
	}

	r.log.Debug().
		Str("conversation_id", conversationID).
		Int64("requester_id", requesterID).
		Int("message_count", len(messages)).
		Msg("message thread read")

	return messages, nil
}
