package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-dm/internal/core"
)

// ConversationHandlers serves conversation management endpoints.
type ConversationHandlers struct {
	conversations *core.ConversationService
	log           *zerolog.Logger
}

// NewConversationHandlers creates a new conversation handlers instance.
func NewConversationHandlers(conversations *core.ConversationService, logger *zerolog.Logger) *ConversationHandlers {
	return &ConversationHandlers{
		conversations: conversations,
		log:           logger,
	}
}

// CreateConversationRequest represents the create conversation request body.
type CreateConversationRequest struct {
	Participants []int64 `json:"participants" binding:"required"`
}

// Create starts a conversation between the caller and the listed users.
// POST /conversations
func (h *ConversationHandlers) Create(c *gin.Context) {
	caller, ok := currentSender(c, h.log)
	if !ok {
		return
	}

	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create conversation request")
		badRequest(c, "participants are required")
		return
	}

	conv, err := h.conversations.Create(c.Request.Context(), caller.ID, core.CreateConversationRequest{
		ParticipantIDs: req.Participants,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"conversation": toConversationResponse(conv)})
}

// List returns the caller's conversations.
// GET /conversations
func (h *ConversationHandlers) List(c *gin.Context) {
	caller, ok := currentSender(c, h.log)
	if !ok {
		return
	}

	convs, err := h.conversations.List(c.Request.Context(), caller.ID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": toConversationResponses(convs)})
}
