package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/wirechat-dm/internal/apperr"
	"github.com/vovakirdan/wirechat-dm/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteStore)(nil)

// New creates a new SQLite store.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &SQLiteStore{db: db}, nil
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema against an in-memory database.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Set connection pool limits before setup so :memory: stays a single database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate applies the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, email, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, username, email, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, apperr.Persistence("insert user", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, apperr.Persistence("get last insert id", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE id = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByLogin retrieves a user by username or email.
func (s *SQLiteStore) GetUserByLogin(ctx context.Context, usernameOrEmail string) (*store.User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE username = ? OR email = ?
		LIMIT 1
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, usernameOrEmail, usernameOrEmail))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var user store.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Persistence("query user", err)
	}

	return &user, nil
}

// DeleteUser removes a user and everything the account owns.
func (s *SQLiteStore) DeleteUser(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Persistence("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	cascade := []string{
		`DELETE FROM messages WHERE sender_id = ?`,
		`DELETE FROM notifications WHERE recipient_id = ?`,
		`DELETE FROM conversation_participants WHERE user_id = ?`,
	}
	for _, query := range cascade {
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			return apperr.Persistence("delete user data", err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return apperr.Persistence("delete user", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperr.Persistence("get rows affected", err)
	}
	if rows == 0 {
		return apperr.NotFound("user not found")
	}

	if err := tx.Commit(); err != nil {
		return apperr.Persistence("commit transaction", err)
	}
	return nil
}

// ==== ConversationStore implementation ====

// CreateConversation persists a conversation and its participants in one transaction.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv *store.Conversation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Persistence("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO conversations (id, created_at) VALUES (?, ?)`,
		conv.ID, conv.CreatedAt,
	); err != nil {
		return apperr.Persistence("insert conversation", err)
	}

	memberQuery := `
		INSERT OR IGNORE INTO conversation_participants (conversation_id, user_id)
		VALUES (?, ?)
	`
	for _, userID := range conv.Participants {
		if _, err := tx.ExecContext(ctx, memberQuery, conv.ID, userID); err != nil {
			return apperr.Persistence(fmt.Sprintf("add participant %d", userID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Persistence("commit transaction", err)
	}
	return nil
}

// GetConversation returns the conversation if requesterID is one of its participants.
func (s *SQLiteStore) GetConversation(ctx context.Context, requesterID int64, conversationID string) (*store.Conversation, error) {
	var conv store.Conversation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM conversations WHERE id = ?`,
		conversationID,
	).Scan(&conv.ID, &conv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("conversation %s not found", conversationID)
		}
		return nil, apperr.Persistence("query conversation", err)
	}

	conv.Participants, err = s.listParticipants(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	if !conv.HasParticipant(requesterID) {
		return nil, apperr.Authorization("user %d is not a participant of conversation %s", requesterID, conversationID)
	}

	return &conv, nil
}

// ListConversations lists conversations the user participates in, newest first.
func (s *SQLiteStore) ListConversations(ctx context.Context, userID int64) ([]*store.Conversation, error) {
	query := `
		SELECT c.id, c.created_at
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE p.user_id = ?
		ORDER BY c.created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperr.Persistence("query conversations", err)
	}

	var convs []*store.Conversation
	for rows.Next() {
		var conv store.Conversation
		if err := rows.Scan(&conv.ID, &conv.CreatedAt); err != nil {
			rows.Close()
			return nil, apperr.Persistence("scan conversation", err)
		}
		convs = append(convs, &conv)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, apperr.Persistence("iterate conversations", err)
	}
	// Release the single connection before loading participants.
	rows.Close()

	for _, conv := range convs {
		conv.Participants, err = s.listParticipants(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
	}

	return convs, nil
}

func (s *SQLiteStore) listParticipants(ctx context.Context, conversationID string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM conversation_participants WHERE conversation_id = ? ORDER BY user_id ASC`,
		conversationID,
	)
	if err != nil {
		return nil, apperr.Persistence("query participants", err)
	}
	defer rows.Close()

	var participants []int64
	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return nil, apperr.Persistence("scan participant", err)
		}
		participants = append(participants, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("iterate participants", err)
	}

	return participants, nil
}

// ==== MessageStore implementation ====

// AppendMessage persists a message to storage.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *store.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.CreatedAt); err != nil {
		return apperr.Persistence("insert message", err)
	}
	return nil
}

// ListThread retrieves every message of a conversation in chronological order.
func (s *SQLiteStore) ListThread(ctx context.Context, conversationID string) ([]*store.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, content, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query, conversationID)
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

// CreateNotification persists a single notification.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n *store.Notification) error {
	query := `
		INSERT INTO notifications (id, recipient_id, message, type, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, n.ID, n.RecipientID, n.Message, string(n.Type), n.Read, n.CreatedAt); err != nil {
		return apperr.Persistence("insert notification", err)
	}
	return nil
}

// ListNotifications lists notifications for a recipient, newest first.
func (s *SQLiteStore) ListNotifications(ctx context.Context, recipientID int64, unreadOnly bool) ([]*store.Notification, error) {
	query := `
		SELECT id, recipient_id, message, type, is_read, created_at
		FROM notifications
		WHERE recipient_id = ?
	`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, seq DESC`

	rows, err := s.db.QueryContext(ctx, query, recipientID)
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

// MarkNotificationRead flags a recipient's notification as read.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, recipientID int64, notificationID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND recipient_id = ?`,
		notificationID, recipientID,
	)
	if err != nil {
		return apperr.Persistence("update notification", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperr.Persistence("get rows affected", err)
	}
	if rows == 0 {
		return apperr.NotFound("notification %s not found", notificationID)
	}
	return nil
}
