package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-dm/internal/store"
	"github.com/vovakirdan/wirechat-dm/internal/utils"
)

// NotificationHandlers serves the caller's notification inbox.
type NotificationHandlers struct {
	store store.NotificationStore
	log   *zerolog.Logger
}

// NewNotificationHandlers creates a new notification handlers instance.
func NewNotificationHandlers(st store.NotificationStore, logger *zerolog.Logger) *NotificationHandlers {
	return &NotificationHandlers{
		store: st,
		log:   logger,
	}
}

// List returns the caller's notifications, newest first.
// GET /notifications?unread=true
func (h *NotificationHandlers) List(c *gin.Context) {
	caller, ok := currentSender(c, h.log)
	if !ok {
		return
	}

	unreadOnly := false
	if raw := c.Query("unread"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "unread must be a boolean")
			return
		}
		unreadOnly = parsed
	}

	notes, err := h.store.ListNotifications(c.Request.Context(), caller.ID, unreadOnly)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": toNotificationResponses(notes)})
}

// MarkRead flags one of the caller's notifications as read.
// POST /notifications/:id/read
func (h *NotificationHandlers) MarkRead(c *gin.Context) {
	caller, ok := currentSender(c, h.log)
	if !ok {
		return
	}

	id := c.Param("id")
	if !utils.ValidID(id) {
		badRequest(c, "invalid notification id")
		return
	}

	if err := h.store.MarkNotificationRead(c.Request.Context(), caller.ID, id); err != nil {
		writeError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}
