package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-dm/internal/core"
)

// MessageHandlers serves the send and thread endpoints.
type MessageHandlers struct {
	messages *core.MessageService
	threads  *core.ThreadReader
	log      *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(messages *core.MessageService, threads *core.ThreadReader, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		messages: messages,
		threads:  threads,
		log:      logger,
	}
}

// SendRequest represents the send request body.
type SendRequest struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
}

// SendResponse carries the stored message and per-recipient delivery results.
type SendResponse struct {
	Message       MessageResponse    `json:"message"`
	Notifications []DeliveryResponse `json:"notifications"`
}

// ThreadResponse carries a conversation's messages in order.
type ThreadResponse struct {
	Message  string            `json:"message"`
	Messages []MessageResponse `json:"messages"`
}

// Send stores a message and notifies the other participants.
// POST /send
func (h *MessageHandlers) Send(c *gin.Context) {
	sender, ok := currentSender(c, h.log)
	if !ok {
		return
	}

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid send request")
		badRequest(c, "invalid request body")
		return
	}

	res, err := h.messages.SendMessage(c.Request.Context(), sender, core.SendMessageRequest{
		ConversationID: req.ConversationID,
		Content:        req.Content,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	if failed := res.Failed(); len(failed) > 0 {
		h.log.Warn().
			Str("message_id", res.Message.ID).
			Int("failed", len(failed)).
			Int("recipients", len(res.Notifications)).
			Msg("message sent with undelivered notifications")
	}

	c.JSON(http.StatusOK, SendResponse{
		Message:       toMessageResponse(res.Message),
		Notifications: toDeliveryResponses(res.Notifications),
	})
}

// Thread returns every message of a conversation the caller belongs to.
// GET /thread/:conversationId
func (h *MessageHandlers) Thread(c *gin.Context) {
	requester, ok := currentSender(c, h.log)
	if !ok {
		return
	}

	thread, err := h.threads.GetMessageThread(c.Request.Context(), requester.ID, c.Param("conversationId"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, ThreadResponse{
		Message:  "message thread recieved",
		Messages: toMessageResponses(thread),
	})
}
