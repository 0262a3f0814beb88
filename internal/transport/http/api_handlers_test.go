package http

import (
	"net/http"
	"testing"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/register", "", RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "password123"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	registered := decode[RegisterResponse](t, resp)
	if registered.User.Username != "alice" || registered.User.ID == 0 {
		t.Fatalf("unexpected user %+v", registered.User)
	}
	if registered.Message != "user created successfully" {
		t.Errorf("unexpected message %q", registered.Message)
	}

	resp = env.do(t, http.MethodPost, "/register", "", RegisterRequest{Username: "alice", Email: "again@example.com", Password: "password123"})
	if resp.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = env.do(t, http.MethodPost, "/register", "", RegisterRequest{Username: "bob"})
	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = env.do(t, http.MethodPost, "/login", "", LoginRequest{UsernameOrEmail: "alice@example.com", Password: "password123"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	login := decode[LoginResponse](t, resp)
	if login.Token == "" {
		t.Fatalf("expected token")
	}

	resp = env.do(t, http.MethodPost, "/login", "", LoginRequest{UsernameOrEmail: "alice", Password: "wrong-password"})
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = env.do(t, http.MethodGet, "/conversations", login.Token, nil)
	if resp.Code != http.StatusOK {
		t.Errorf("expected token to authenticate, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestDeleteAccount(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.registerUser(t, "alice")
	bob, _ := env.registerUser(t, "bob")

	resp := env.do(t, http.MethodPost, "/delete-account", aliceToken, DeleteAccountRequest{UserID: bob, UsernameOrEmail: "bob", Password: "password123"})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for someone else's account, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = env.do(t, http.MethodPost, "/delete-account", aliceToken, DeleteAccountRequest{UserID: alice, UsernameOrEmail: "alice", Password: "password123"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if body := decode[MessageOnlyResponse](t, resp); body.Message != "goodbye alice ;(" {
		t.Errorf("unexpected message %q", body.Message)
	}

	resp = env.do(t, http.MethodPost, "/login", "", LoginRequest{UsernameOrEmail: "alice", Password: "password123"})
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("expected deleted account to be unable to login, got %d", resp.Code)
	}
}

func TestConversationsEndpoints(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.registerUser(t, "alice")
	bob, bobToken := env.registerUser(t, "bob")

	resp := env.do(t, http.MethodPost, "/conversations", aliceToken, CreateConversationRequest{Participants: []int64{bob}})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	created := decode[map[string]ConversationResponse](t, resp)["conversation"]
	if len(created.Participants) != 2 {
		t.Fatalf("expected creator plus bob, got %+v", created.Participants)
	}

	resp = env.do(t, http.MethodGet, "/conversations", bobToken, nil)
	listed := decode[map[string][]ConversationResponse](t, resp)["conversations"]
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("expected bob to see the conversation, got %+v", listed)
	}

	resp = env.do(t, http.MethodPost, "/conversations", aliceToken, CreateConversationRequest{Participants: []int64{9999}})
	if resp.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for unknown participant, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = env.do(t, http.MethodPost, "/conversations", aliceToken, `{}`)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", resp.Code, resp.Body.String())
	}
}
