//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_store.go -package=mocks

package store

import (
	"context"
	"time"
)

// User represents an account in the system.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Conversation groups a fixed set of participants.
type Conversation struct {
	ID           string // UUID
	Participants []int64
	CreatedAt    time.Time
}

// HasParticipant reports whether userID is a member of the conversation.
func (c *Conversation) HasParticipant(userID int64) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// Message represents a persisted direct message. Immutable once created.
type Message struct {
	ID             string // UUID
	ConversationID string
	SenderID       int64
	Content        string
	CreatedAt      time.Time
}

// NotificationType defines what triggered a notification.
type NotificationType string

const (
	NotificationTypeMessage NotificationType = "MESSAGE"
)

// Notification is a durable record addressed to a single recipient.
type Notification struct {
	ID          string // UUID
	RecipientID int64
	Message     string
	Type        NotificationType
	CreatedAt   time.Time
	Read        bool
}

// UserStore handles account persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByLogin retrieves a user by username or email.
	GetUserByLogin(ctx context.Context, usernameOrEmail string) (*User, error)

	// DeleteUser removes a user together with their sent messages,
	// notifications and conversation memberships.
	DeleteUser(ctx context.Context, id int64) error
}

// ConversationStore owns conversation records.
type ConversationStore interface {
	// CreateConversation persists a conversation and its participants.
	CreateConversation(ctx context.Context, conv *Conversation) error

	// GetConversation returns the conversation if requesterID is a participant.
	// Fails with apperr.ErrNotFound if it does not exist and apperr.ErrAuthorization
	// if the requester is not a member.
	GetConversation(ctx context.Context, requesterID int64, conversationID string) (*Conversation, error)

	// ListConversations lists conversations the user participates in, newest first.
	ListConversations(ctx context.Context, userID int64) ([]*Conversation, error)
}

// MessageStore owns message records.
type MessageStore interface {
	// AppendMessage durably appends a message to its conversation.
	AppendMessage(ctx context.Context, msg *Message) error

	// ListThread returns all messages of a conversation ordered by creation
	// time ascending, ties broken by insertion order.
	ListThread(ctx context.Context, conversationID string) ([]*Message, error)
}

// NotificationStore owns notification records.
type NotificationStore interface {
	// CreateNotification persists a single notification.
	CreateNotification(ctx context.Context, n *Notification) error

	// ListNotifications lists notifications for a recipient, newest first.
	ListNotifications(ctx context.Context, recipientID int64, unreadOnly bool) ([]*Notification, error)

	// MarkNotificationRead flags a recipient's notification as read.
	MarkNotificationRead(ctx context.Context, recipientID int64, notificationID string) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	ConversationStore
	MessageStore
	NotificationStore

	// Migrate applies the schema if it is not present yet.
	Migrate(ctx context.Context) error

	// Close closes the underlying database connection.
	Close() error
}
