package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vovakirdan/wirechat-dm/internal/apperr"
	"github.com/vovakirdan/wirechat-dm/internal/store"
)

const uniqueViolation = "23505"

// Schema creates every table the store uses. Statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS conversations (
	id         UUID PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS conversation_participants (
	conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	user_id         BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	PRIMARY KEY (conversation_id, user_id)
);

CREATE TABLE IF NOT EXISTS messages (
	seq             BIGSERIAL PRIMARY KEY,
	id              UUID NOT NULL UNIQUE,
	conversation_id UUID NOT NULL REFERENCES conversations(id),
	sender_id       BIGINT NOT NULL,
	content         TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	seq          BIGSERIAL PRIMARY KEY,
	id           UUID NOT NULL UNIQUE,
	recipient_id BIGINT NOT NULL,
	message      TEXT NOT NULL,
	type         TEXT NOT NULL,
	is_read      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at, seq);
CREATE INDEX IF NOT EXISTS idx_participants_user ON conversation_participants(user_id);
CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, created_at DESC);
`

// PostgresStore implements store.Store on top of a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*PostgresStore)(nil)

// New connects to databaseURL and verifies the connection.
func New(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Migrate applies the schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// ==== UserStore implementation ====

func (s *PostgresStore) CreateUser(ctx context.Context, username, email, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, username, email, password_hash, created_at
	`
	user, err := scanUser(s.pool.QueryRow(ctx, query, username, email, passwordHash))
	if err != nil && isUniqueViolation(err) {
		return nil, store.ErrDuplicate
	}
	return user, err
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE id = $1
	`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

func (s *PostgresStore) GetUserByLogin(ctx context.Context, usernameOrEmail string) (*store.User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE username = $1 OR email = $1
		LIMIT 1
	`
	return scanUser(s.pool.QueryRow(ctx, query, usernameOrEmail))
}

func scanUser(row pgx.Row) (*store.User, error) {
	var user store.User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		if isUniqueViolation(err) {
			return nil, err
		}
		return nil, apperr.Persistence("query user", err)
	}
	return &user, nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperr.Persistence("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // no-op after commit
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE sender_id = $1`, id); err != nil {
		return apperr.Persistence("delete user messages", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM notifications WHERE recipient_id = $1`, id); err != nil {
		return apperr.Persistence("delete user notifications", err)
	}
	// conversation_participants rows go with ON DELETE CASCADE.
	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return apperr.Persistence("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user not found")
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Persistence("commit transaction", err)
	}
	return nil
}

// ==== ConversationStore implementation ====

func (s *PostgresStore) CreateConversation(ctx context.Context, conv *store.Conversation) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperr.Persistence("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // no-op after commit
	}()

	if _, err := tx.Exec(ctx,
		`INSERT INTO conversations (id, created_at) VALUES ($1, $2)`,
		conv.ID, conv.CreatedAt,
	); err != nil {
		return apperr.Persistence("insert conversation", err)
	}

	batch := &pgx.Batch{}
	for _, userID := range conv.Participants {
		batch.Queue(`
			INSERT INTO conversation_participants (conversation_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, conv.ID, userID)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return apperr.Persistence("add participants", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Persistence("commit transaction", err)
	}
	return nil
}

func (s *PostgresStore) GetConversation(ctx context.Context, requesterID int64, conversationID string) (*store.Conversation, error) {
	query := `
		SELECT c.id::text, c.created_at,
		       COALESCE(array_agg(p.user_id ORDER BY p.user_id) FILTER (WHERE p.user_id IS NOT NULL), '{}')
		FROM conversations c
		LEFT JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE c.id = $1
		GROUP BY c.id, c.created_at
	`
	var conv store.Conversation
	err := s.pool.QueryRow(ctx, query, conversationID).Scan(&conv.ID, &conv.CreatedAt, &conv.Participants)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("conversation %s not found", conversationID)
		}
		return nil, apperr.Persistence("query conversation", err)
	}

	if !conv.HasParticipant(requesterID) {
		return nil, apperr.Authorization("user %d is not a participant of conversation %s", requesterID, conversationID)
	}
	return &conv, nil
}

func (s *PostgresStore) ListConversations(ctx context.Context, userID int64) ([]*store.Conversation, error) {
	query := `
		SELECT c.id::text, c.created_at, array_agg(p.user_id ORDER BY p.user_id)
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE c.id IN (SELECT conversation_id FROM conversation_participants WHERE user_id = $1)
		GROUP BY c.id, c.created_at
		ORDER BY c.created_at DESC
	`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, apperr.Persistence("query conversations", err)
	}
	defer rows.Close()

	var convs []*store.Conversation
	for rows.Next() {
		var conv store.Conversation
		if err := rows.Scan(&conv.ID, &conv.CreatedAt, &conv.Participants); err != nil {
			return nil, apperr.Persistence("scan conversation", err)
		}
		convs = append(convs, &conv)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("iterate conversations", err)
	}
	return convs, nil
}

// ==== MessageStore implementation ====

func (s *PostgresStore) AppendMessage(ctx context.Context, msg *store.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.pool.Exec(ctx, query, msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.CreatedAt); err != nil {
		return apperr.Persistence("insert message", err)
	}
	return nil
}

func (s *PostgresStore) ListThread(ctx context.Context, conversationID string) ([]*store.Message, error) {
	query := `
		SELECT id::text, conversation_id::text, sender_id, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, seq ASC
	`
	rows, err := s.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, apperr.Persistence("query messages", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, apperr.Persistence("scan message", err)
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("iterate messages", err)
	}
	return messages, nil
}

// ==== NotificationStore implementation ====

func (s *PostgresStore) CreateNotification(ctx context.Context, n *store.Notification) error {
	query := `
		INSERT INTO notifications (id, recipient_id, message, type, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.pool.Exec(ctx, query, n.ID, n.RecipientID, n.Message, string(n.Type), n.Read, n.CreatedAt); err != nil {
		return apperr.Persistence("insert notification", err)
	}
	return nil
}

func (s *PostgresStore) ListNotifications(ctx context.Context, recipientID int64, unreadOnly bool) ([]*store.Notification, error) {
	query := `
		SELECT id::text, recipient_id, message, type, is_read, created_at
		FROM notifications
		WHERE recipient_id = $1 AND (NOT $2 OR is_read = FALSE)
		ORDER BY created_at DESC, seq DESC
	`
	rows, err := s.pool.Query(ctx, query, recipientID, unreadOnly)
	if err != nil {
		return nil, apperr.Persistence("query notifications", err)
	}
	defer rows.Close()

	notifications := make([]*store.Notification, 0)
	for rows.Next() {
		var n store.Notification
		var notifType string
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Message, &notifType, &n.Read, &n.CreatedAt); err != nil {
			return nil, apperr.Persistence("scan notification", err)
		}
		n.Type = store.NotificationType(notifType)
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("iterate notifications", err)
	}
	return notifications, nil
}

func (s *PostgresStore) MarkNotificationRead(ctx context.Context, recipientID int64, notificationID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`,
		notificationID, recipientID,
	)
	if err != nil {
		return apperr.Persistence("update notification", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification %s not found", notificationID)
	}
	return nil
}
