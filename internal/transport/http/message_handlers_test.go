package http

import (
	"net/http"
	"strings"
	"testing"

	"github.com/vovakirdan/wirechat-dm/internal/apperr"
	"github.com/vovakirdan/wirechat-dm/internal/config"
)

const testConvID = "5b1c7a52-9f0e-4c3d-8a6b-2e1f0d9c8b7a"

func TestSendAndThread(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.registerUser(t, "alice")
	bob, bobToken := env.registerUser(t, "bob")
	dave, _ := env.registerUser(t, "dave")
	env.createConversation(t, testConvID, alice, bob, dave)

	resp := env.do(t, http.MethodPost, "/send", aliceToken, SendRequest{ConversationID: testConvID, Content: "hi"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	sent := decode[SendResponse](t, resp)
	if sent.Message.Content != "hi" || sent.Message.SenderID != alice || sent.Message.ConversationID != testConvID {
		t.Errorf("unexpected message %+v", sent.Message)
	}
	if len(sent.Notifications) != 2 {
		t.Fatalf("expected 2 deliveries, got %+v", sent.Notifications)
	}
	for _, d := range sent.Notifications {
		if d.Error != "" || d.NotificationID == "" {
			t.Errorf("unexpected delivery %+v", d)
		}
		if d.RecipientID == alice {
			t.Errorf("sender must not be notified")
		}
	}

	resp = env.do(t, http.MethodGet, "/thread/"+testConvID, bobToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	thread := decode[ThreadResponse](t, resp)
	if thread.Message != "message thread recieved" {
		t.Errorf("unexpected status message %q", thread.Message)
	}
	if len(thread.Messages) != 1 || thread.Messages[0].ID != sent.Message.ID {
		t.Fatalf("expected the sent message in the thread, got %+v", thread.Messages)
	}

	resp = env.do(t, http.MethodGet, "/notifications?unread=true", bobToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	inbox := decode[map[string][]NotificationResponse](t, resp)["notifications"]
	if len(inbox) != 1 || inbox[0].Message != "alice sent you a message." || inbox[0].Type != "MESSAGE" {
		t.Fatalf("unexpected inbox %+v", inbox)
	}

	resp = env.do(t, http.MethodPost, "/notifications/"+inbox[0].ID+"/read", bobToken, nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", resp.Code, resp.Body.String())
	}
	resp = env.do(t, http.MethodGet, "/notifications?unread=true", bobToken, nil)
	if inbox := decode[map[string][]NotificationResponse](t, resp)["notifications"]; len(inbox) != 0 {
		t.Fatalf("expected empty unread inbox, got %+v", inbox)
	}
}

func TestSendErrors(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.MaxContentLength = 16 })
	alice, aliceToken := env.registerUser(t, "alice")
	bob, _ := env.registerUser(t, "bob")
	_, eveToken := env.registerUser(t, "eve")
	env.createConversation(t, testConvID, alice, bob)

	tests := []struct {
		name   string
		token  string
		body   any
		status int
		code   string
	}{
		{"non member", eveToken, SendRequest{ConversationID: testConvID, Content: "hi"}, http.StatusForbidden, apperr.CodeAuthorization},
		{"empty content", aliceToken, SendRequest{ConversationID: testConvID}, http.StatusBadRequest, apperr.CodeValidation},
		{"too long", aliceToken, SendRequest{ConversationID: testConvID, Content: strings.Repeat("a", 17)}, http.StatusBadRequest, apperr.CodeValidation},
		{"malformed id", aliceToken, SendRequest{ConversationID: "C123", Content: "hi"}, http.StatusBadRequest, apperr.CodeValidation},
		{"unknown conversation", aliceToken, SendRequest{ConversationID: "00000000-0000-0000-0000-000000000000", Content: "hi"}, http.StatusNotFound, apperr.CodeNotFound},
		{"malformed json", aliceToken, `{"conversationId":`, http.StatusBadRequest, apperr.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/send", tt.token, tt.body)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, resp.Code, resp.Body.String())
			}
			if body := decode[ErrorResponse](t, resp); body.Code != tt.code {
				t.Errorf("expected code %q, got %+v", tt.code, body)
			}
		})
	}

	// Nothing above may have written a message.
	resp := env.do(t, http.MethodGet, "/thread/"+testConvID, aliceToken, nil)
	if thread := decode[ThreadResponse](t, resp); len(thread.Messages) != 0 {
		t.Fatalf("expected empty thread, got %+v", thread.Messages)
	}
}

func TestThreadErrors(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.registerUser(t, "alice")
	bob, _ := env.registerUser(t, "bob")
	_, eveToken := env.registerUser(t, "eve")
	env.createConversation(t, testConvID, alice, bob)

	if resp := env.do(t, http.MethodGet, "/thread/"+testConvID, eveToken, nil); resp.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d: %s", resp.Code, resp.Body.String())
	}
	if resp := env.do(t, http.MethodGet, "/thread/not-an-id", eveToken, nil); resp.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", resp.Code, resp.Body.String())
	}
	if resp := env.do(t, http.MethodGet, "/thread/"+testConvID, "", nil); resp.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", resp.Code)
	}
}

func TestSendRateLimit(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.SendRateLimit = 2 })
	alice, aliceToken := env.registerUser(t, "alice")
	bob, bobToken := env.registerUser(t, "bob")
	env.createConversation(t, testConvID, alice, bob)

	body := SendRequest{ConversationID: testConvID, Content: "hi"}
	for i := 0; i < 2; i++ {
		if resp := env.do(t, http.MethodPost, "/send", aliceToken, body); resp.Code != http.StatusOK {
			t.Fatalf("send %d: expected status 200, got %d: %s", i, resp.Code, resp.Body.String())
		}
	}
	if resp := env.do(t, http.MethodPost, "/send", aliceToken, body); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d: %s", resp.Code, resp.Body.String())
	}
	// Budgets are per user.
	if resp := env.do(t, http.MethodPost, "/send", bobToken, body); resp.Code != http.StatusOK {
		t.Fatalf("expected bob to be allowed, got %d: %s", resp.Code, resp.Body.String())
	}
}
