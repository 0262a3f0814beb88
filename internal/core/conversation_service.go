package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/wirechat-dm/internal/apperr"
	"github.com/vovakirdan/wirechat-dm/internal/store"
	"github.com/vovakirdan/wirechat-dm/internal/utils"
)

// CreateConversationRequest lists the users to add next to the creator.
type CreateConversationRequest struct {
	ParticipantIDs []int64 `validate:"required,min=1,dive,gt=0"`
}

// ConversationService creates and lists conversations.
type ConversationService struct {
	users         store.UserStore
	conversations store.ConversationStore
	log           *zerolog.Logger

	now   func() time.Time
	newID func() string
}

// NewConversationService creates a new ConversationService.
func NewConversationService(users store.UserStore, conversations store.ConversationStore, logger *zerolog.Logger) *ConversationService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ConversationService{
		users:         users,
		conversations: conversations,
		log:           logger,
		now:           func() time.Time { return time.Now().UTC() },
		newID:         utils.NewID,
	}
}

// Create opens a conversation between the creator and the requested users.
// The creator is always a participant; duplicates collapse.
func (s *ConversationService) Create(ctx context.Context, creatorID int64, req CreateConversationRequest) (*store.Conversation, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	participants := lo.Uniq(append([]int64{creatorID}, req.ParticipantIDs...))
	if len(participants) < 2 {
		return nil, apperr.Validation("a conversation needs at least 2 distinct participants")
	}

	for _, id := range participants {
		if _, err := s.users.GetUserByID(ctx, id); err != nil {
			return nil, err
		}
	}

	conv := &store.Conversation{
		ID:           s.newID(),
		Participants: participants,
		CreatedAt:    s.now(),
	}
	if err := s.conversations.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("conversation_id", conv.ID).
		Int64("creator_id", creatorID).
		Int("participant_count", len(participants)).
		Msg("conversation created")

	return conv, nil
}

// List returns the conversations the user participates in.
func (s *ConversationService) List(ctx context.Context, userID int64) ([]*store.Conversation, error) {
	convs, err := s.conversations.ListConversations(ctx, userID)
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []*store.Conversation{}
	}
	return convs, nil
}
