package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-dm/internal/apperr"
	"github.com/vovakirdan/wirechat-dm/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUsers(t *testing.T, s *SQLiteStore, names ...string) []int64 {
	t.Helper()

	ids := make([]int64, 0, len(names))
	for _, name := range names {
		u, err := s.CreateUser(context.Background(), name, name+"@example.com", "hash")
		if err != nil {
			t.Fatalf("failed to create user %s: %v", name, err)
		}
		ids = append(ids, u.ID)
	}
	return ids
}

func TestCreateUserDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUsers(t, s, "alice")

	if _, err := s.CreateUser(ctx, "alice", "other@example.com", "hash"); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for username, got %v", err)
	}
	if _, err := s.CreateUser(ctx, "alice2", "alice@example.com", "hash"); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for email, got %v", err)
	}
}

func TestGetUserByLogin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedUsers(t, s, "alice")

	byName, err := s.GetUserByLogin(ctx, "alice")
	if err != nil {
		t.Fatalf("lookup by username: %v", err)
	}
	byEmail, err := s.GetUserByLogin(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("lookup by email: %v", err)
	}
	if byName.ID != ids[0] || byEmail.ID != ids[0] {
		t.Fatalf("expected user %d, got %d and %d", ids[0], byName.ID, byEmail.ID)
	}

	if _, err := s.GetUserByLogin(ctx, "nobody"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetConversationAuthorization(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedUsers(t, s, "alice", "bob", "mallory")

	conv := &store.Conversation{
		ID:           "6f9619ff-8b86-d011-b42d-00c04fc964ff",
		Participants: []int64{ids[0], ids[1]},
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	got, err := s.GetConversation(ctx, ids[1], conv.ID)
	if err != nil {
		t.Fatalf("expected member access, got %v", err)
	}
	if len(got.Participants) != 2 || !got.HasParticipant(ids[0]) || !got.HasParticipant(ids[1]) {
		t.Fatalf("unexpected participants: %v", got.Participants)
	}

	if _, err := s.GetConversation(ctx, ids[2], conv.ID); !errors.Is(err, apperr.ErrAuthorization) {
		t.Fatalf("expected ErrAuthorization for non-member, got %v", err)
	}

	if _, err := s.GetConversation(ctx, ids[0], "00000000-0000-0000-0000-000000000000"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListThreadOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedUsers(t, s, "alice", "bob")

	convID := "6f9619ff-8b86-d011-b42d-00c04fc964ff"
	if err := s.CreateConversation(ctx, &store.Conversation{
		ID:           convID,
		Participants: ids,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	inserts := []struct {
		id string
		at time.Time
	}{
		{"m-late", base.Add(2 * time.Second)},
		{"m-first", base},
		{"m-tie-a", base.Add(time.Second)},
		{"m-tie-b", base.Add(time.Second)},
	}
	for _, in := range inserts {
		msg := &store.Message{ID: in.id, ConversationID: convID, SenderID: ids[0], Content: in.id, CreatedAt: in.at}
		if err := s.AppendMessage(ctx, msg); err != nil {
			t.Fatalf("append %s: %v", in.id, err)
		}
	}

	thread, err := s.ListThread(ctx, convID)
	if err != nil {
		t.Fatalf("list thread: %v", err)
	}

	expected := []string{"m-first", "m-tie-a", "m-tie-b", "m-late"}
	if len(thread) != len(expected) {
		t.Fatalf("expected %d messages, got %d", len(expected), len(thread))
	}
	for i, id := range expected {
		if thread[i].ID != id {
			t.Errorf("expected %s at index %d, got %s", id, i, thread[i].ID)
		}
	}

	empty, err := s.ListThread(ctx, "11111111-1111-1111-1111-111111111111")
	if err != nil {
		t.Fatalf("list empty thread: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", empty)
	}
}

func TestNotificationsLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedUsers(t, s, "alice", "bob")

	now := time.Now().UTC()
	for i, id := range []string{"n-1", "n-2"} {
		n := &store.Notification{
			ID:          id,
			RecipientID: ids[1],
			Message:     "alice sent you a message.",
			Type:        store.NotificationTypeMessage,
			CreatedAt:   now.Add(time.Duration(i) * time.Second),
		}
		if err := s.CreateNotification(ctx, n); err != nil {
			t.Fatalf("create notification: %v", err)
		}
	}

	all, err := s.ListNotifications(ctx, ids[1], false)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(all) != 2 || all[0].ID != "n-2" {
		t.Fatalf("expected newest first, got %+v", all)
	}
	if all[0].Type != store.NotificationTypeMessage || all[0].Read {
		t.Fatalf("unexpected notification %+v", all[0])
	}

	if err := s.MarkNotificationRead(ctx, ids[1], "n-1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	// Someone else's notification is invisible.
	if err := s.MarkNotificationRead(ctx, ids[0], "n-2"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	unread, err := s.ListNotifications(ctx, ids[1], true)
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 1 || unread[0].ID != "n-2" {
		t.Fatalf("expected only n-2 unread, got %+v", unread)
	}
}

func TestDeleteUserCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedUsers(t, s, "alice", "bob")

	convID := "6f9619ff-8b86-d011-b42d-00c04fc964ff"
	if err := s.CreateConversation(ctx, &store.Conversation{ID: convID, Participants: ids, CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	if err := s.AppendMessage(ctx, &store.Message{ID: "m-1", ConversationID: convID, SenderID: ids[0], Content: "hi", CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.AppendMessage(ctx, &store.Message{ID: "m-2", ConversationID: convID, SenderID: ids[1], Content: "hey", CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := s.DeleteUser(ctx, ids[0]); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	if _, err := s.GetUserByID(ctx, ids[0]); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected deleted user to be gone, got %v", err)
	}

	conv, err := s.GetConversation(ctx, ids[1], convID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if conv.HasParticipant(ids[0]) {
		t.Fatalf("expected membership to be removed")
	}

	thread, err := s.ListThread(ctx, convID)
	if err != nil {
		t.Fatalf("list thread: %v", err)
	}
	if len(thread) != 1 || thread[0].ID != "m-2" {
		t.Fatalf("expected only bob's message to remain, got %+v", thread)
	}

	if err := s.DeleteUser(ctx, ids[0]); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
