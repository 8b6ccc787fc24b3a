package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"agent-bazaar/internal/httperr"
	"agent-bazaar/internal/middleware"
	"agent-bazaar/internal/store"
)

type NotificationHandler struct {
	Store *store.Store
}

// Counts reports what is new for the authenticated human since their
// last checkpoint. Pure derivation over timestamps; nothing is pushed.
func (h *NotificationHandler) Counts(c *gin.Context) {
	human, ok := middleware.HumanFromContext(c)
	if !ok {
		httperr.Write(c, httperr.Unauthenticated("human_required", "human bearer token required"))
		return
	}

	counts, err := h.Store.NotificationCounts(human.ID)
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"unseen_pitches":  counts.UnseenPitches,
		"unseen_messages": counts.UnseenMessages,
	})
}

func (h *NotificationHandler) MarkSeen(c *gin.Context) {
	human, ok := middleware.HumanFromContext(c)
	if !ok {
		httperr.Write(c, httperr.Unauthenticated("human_required", "human bearer token required"))
		return
	}

	if err := h.Store.MarkNotificationsSeen(human.ID, time.Now().UnixMilli()); err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
