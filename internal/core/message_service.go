package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/wirechat-dm/internal/apperr"
	"github.com/vovakirdan/wirechat-dm/internal/store"
	"github.com/vovakirdan/wirechat-dm/internal/utils"
)

// DefaultMaxContentLength caps message content when no limit is configured.
const DefaultMaxContentLength = 4096

// Sender is the authenticated identity sending a message.
type Sender struct {
	ID          int64
	DisplayName string
}

// SendMessageRequest is the typed input of MessageService.SendMessage.
type SendMessageRequest struct {
	ConversationID string `validate:"required,uuid"`
	Content        string `validate:"required"`
}

// NotificationResult is the outcome of notifying one recipient.
type NotificationResult struct {
	RecipientID  int64
	Notification *store.Notification
	Err          error
}

// SendResult is the persisted message plus the per-recipient fan-out outcome.
type SendResult struct {
	Message       *store.Message
	Notifications []NotificationResult
}

// Failed returns the fan-out entries whose write failed.
func (r *SendResult) Failed() []NotificationResult {
	return lo.Filter(r.Notifications, func(n NotificationResult, _ int) bool {
		return n.Err != nil
	})
}

// MessageService runs the send pipeline: validate, authorize, append, fan out.
type MessageService struct {
	messages      store.MessageStore
	conversations store.ConversationStore
	notifications store.NotificationStore
	log           *zerolog.Logger

	maxContentLength int
	now              func() time.Time
	newID            func() string
}

// Option customizes a MessageService.
type Option func(*MessageService)

// WithMaxContentLength overrides the content length limit in bytes.
func WithMaxContentLength(n int) Option {
	return func(s *MessageService) {
		if n > 0 {
			s.maxContentLength = n
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *MessageService) { s.now = now }
}

// WithIDGenerator overrides the id source.
func WithIDGenerator(newID func() string) Option {
	return func(s *MessageService) { s.newID = newID }
}

// NewMessageService creates a new MessageService.
func NewMessageService(
	messages store.MessageStore,
	conversations store.ConversationStore,
	notifications store.NotificationStore,
	logger *zerolog.Logger,
	opts ...Option,
) *MessageService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &MessageService{
		messages:         messages,
		conversations:    conversations,
		notifications:    notifications,
		log:              logger,
		maxContentLength: DefaultMaxContentLength,
		now:              func() time.Time { return time.Now().UTC() },
		newID:            utils.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendMessage persists a message into a conversation and notifies every other participant.
//
// Membership is checked before the append, so a non-member never creates a
// message. Store errors are returned unmodified. Notification failures are
// isolated per recipient and reported in the result, never as the returned error.
func (s *MessageService) SendMessage(ctx context.Context, sender Sender, req SendMessageRequest) (*SendResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	conv, err := s.conversations.GetConversation(ctx, sender.ID, req.ConversationID)
	if err != nil {
		return nil, err
	}

	msg := &store.Message{
		ID:             s.newID(),
		ConversationID: conv.ID,
		SenderID:       sender.ID,
		Content:        req.Content,
		CreatedAt:      s.now(),
	}
	if err := s.messages.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("message_id", msg.ID).
		Str("conversation_id", msg.ConversationID).
		Int64("sender_id", sender.ID).
		Msg("message persisted")

	// The message is durable; the fan-out must not be cut short by the caller going away.
	fanoutCtx := context.WithoutCancel(ctx)

	return &SendResult{
		Message:       msg,
		Notifications: s.fanOut(fanoutCtx, sender, msg, Recipients(conv, sender.ID)),
	}, nil
}

// Recipients returns the conversation participants minus the sender, deduplicated.
func Recipients(conv *store.Conversation, senderID int64) []int64 {
	return lo.Uniq(lo.Without(conv.Participants, senderID))
}

func (s *MessageService) fanOut(ctx context.Context, sender Sender, msg *store.Message, recipients []int64) []NotificationResult {
	body := fmt.Sprintf("%s sent you a message.", displayName(sender))

	results := make([]NotificationResult, 0, len(recipients))
	for _, recipientID := range recipients {
		n := &store.Notification{
			ID:          s.newID(),
			RecipientID: recipientID,
			Message:     body,
			Type:        store.NotificationTypeMessage,
			CreatedAt:   s.now(),
		}

		if err := s.notifications.CreateNotification(ctx, n); err != nil {
			s.log.Warn().Err(err).
				Int64("recipient_id", recipientID).
				Str("message_id", msg.ID).
				Str("conversation_id", msg.ConversationID).
				Msg("failed to create notification")
			results = append(results, NotificationResult{RecipientID: recipientID, Err: err})
			continue
		}
		results = append(results, NotificationResult{RecipientID: recipientID, Notification: n})
	}

	return results
}

func (s *MessageService) validate(req SendMessageRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Content) == "" {
		return apperr.Validation("content is required")
	}
	if len(req.Content) > s.maxContentLength {
		return apperr.Validation("content exceeds %d bytes", s.maxContentLength)
	}
	return nil
}

func displayName(sender Sender) string {
	if name := strings.TrimSpace(sender.DisplayName); name != "" {
		return name
	}
	return fmt.Sprintf("user %d", sender.ID)
}
