package http

import (
	"time"

	"github.com/samber/lo"

	"github.com/vovakirdan/wirechat-dm/internal/apperr"
	"github.com/vovakirdan/wirechat-dm/internal/core"
	"github.com/vovakirdan/wirechat-dm/internal/store"
)

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       int64     `json:"senderId"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ConversationResponse represents a conversation in API responses.
type ConversationResponse struct {
	ID           string    `json:"id"`
	Participants []int64   `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NotificationResponse represents a notification in API responses.
type NotificationResponse struct {
	ID          string    `json:"id"`
	RecipientID int64     `json:"recipientId"`
	Message     string    `json:"notificationMessage"`
	Type        string    `json:"notificationType"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DeliveryResponse reports the fan-out outcome for one recipient.
type DeliveryResponse struct {
	RecipientID    int64  `json:"recipientId"`
	NotificationID string `json:"notificationId,omitempty"`
	Error          string `json:"error,omitempty"`
}

func toUserResponse(u *store.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func toMessageResponse(m *store.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

func toMessageResponses(msgs []*store.Message) []MessageResponse {
	return lo.Map(msgs, func(m *store.Message, _ int) MessageResponse {
		return toMessageResponse(m)
	})
}

func toConversationResponse(conv *store.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:           conv.ID,
		Participants: conv.Participants,
		CreatedAt:    conv.CreatedAt,
	}
}

func toConversationResponses(convs []*store.Conversation) []ConversationResponse {
	return lo.Map(convs, func(c *store.Conversation, _ int) ConversationResponse {
		return toConversationResponse(c)
	})
}

func toNotificationResponses(notes []*store.Notification) []NotificationResponse {
	return lo.Map(notes, func(n *store.Notification, _ int) NotificationResponse {
		return NotificationResponse{
			ID:          n.ID,
			RecipientID: n.RecipientID,
			Message:     n.Message,
			Type:        string(n.Type),
			Read:        n.Read,
			CreatedAt:   n.CreatedAt,
		}
	})
}

// Delivery errors are reported by code only; causes stay in the server log.
func toDeliveryResponses(results []core.NotificationResult) []DeliveryResponse {
	return lo.Map(results, func(r core.NotificationResult, _ int) DeliveryResponse {
		out := DeliveryResponse{RecipientID: r.RecipientID}
		if r.Err != nil {
			out.Error = apperr.Code(r.Err)
			return out
		}
		if r.Notification != nil {
			out.NotificationID = r.Notification.ID
		}
		return out
	})
}
