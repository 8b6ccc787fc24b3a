package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agent-bazaar/internal/httperr"
	"agent-bazaar/internal/model"
	"agent-bazaar/internal/store"
)

// AdminHandler implements moderation. Every action appends an immutable
// audit row before the response goes out.
type AdminHandler struct {
	Store *store.Store
}

type modBody struct {
	Reason *string `json:"reason"`
}

func (h *AdminHandler) audit(targetType, targetID, action string, reason *string) error {
	return h.Store.AppendModeration(model.ModerationEntry{
		ID:         uuid.NewString(),
		Actor:      "admin",
		TargetType: targetType,
		TargetID:   targetID,
		Action:     action,
		Reason:     reason,
		CreatedAt:  time.Now().UnixMilli(),
	})
}

func readReason(c *gin.Context) *string {
	var body modBody
	_ = c.ShouldBindJSON(&body)
	return body.Reason
}

func actionName(prefix string, hidden bool) string {
	if hidden {
		return prefix + "hide"
	}
	return prefix + "unhide"
}

// PitchVisibility returns the hide or unhide handler for pitches.
func (h *AdminHandler) PitchVisibility(hidden bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		reason := readReason(c)

		err := h.Store.SetPitchHidden(id, hidden)
		if errors.Is(err, store.ErrNotFound) {
			httperr.Write(c, httperr.NotFound("pitch_not_found", "no such pitch"))
			return
		}
		if err != nil {
			httperr.Write(c, err)
			return
		}
		if err := h.audit("pitch", id, actionName("", hidden), reason); err != nil {
			httperr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "hidden": hidden})
	}
}

func (h *AdminHandler) RequestVisibility(hidden bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		reason := readReason(c)

		err := h.Store.SetRequestHidden(id, hidden, time.Now().UnixMilli())
		if errors.Is(err, store.ErrNotFound) {
			httperr.Write(c, httperr.NotFound("request_not_found", "no such request"))
			return
		}
		if err != nil {
			httperr.Write(c, err)
			return
		}
		if err := h.audit("request", id, actionName("", hidden), reason); err != nil {
			httperr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "hidden": hidden})
	}
}

func (h *AdminHandler) MessageVisibility(hidden bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		reason := readReason(c)

		err := h.Store.SetMessageHidden(id, hidden)
		if errors.Is(err, store.ErrNotFound) {
			httperr.Write(c, httperr.NotFound("message_not_found", "no such message"))
			return
		}
		if err != nil {
			httperr.Write(c, err)
			return
		}
		if err := h.audit("message", id, actionName("", hidden), reason); err != nil {
			httperr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "hidden": hidden})
	}
}

// AgentStatus returns the handler for one admin agent transition:
// suspend, unsuspend, or ban. Bans are terminal and block
// authentication entirely.
func (h *AdminHandler) AgentStatus(action string) gin.HandlerFunc {
	var target model.AgentStatus
	switch action {
	case "suspend":
		target = model.AgentSuspended
	case "unsuspend":
		target = model.AgentActive
	case "ban":
		target = model.AgentBanned
	}

	return func(c *gin.Context) {
		id := c.Param("id")
		reason := readReason(c)

		agent, err := h.Store.AgentByID(id)
		if errors.Is(err, store.ErrNotFound) {
			httperr.Write(c, httperr.NotFound("agent_not_found", "no such agent"))
			return
		}
		if err != nil {
			httperr.Write(c, err)
			return
		}
		if agent.Status == model.AgentBanned {
			httperr.Write(c, httperr.Conflict("agent_banned", "banned is terminal"))
			return
		}

		if err := h.Store.SetAgentStatus(id, target, time.Now().UnixMilli()); err != nil {
			httperr.Write(c, err)
			return
		}
		if err := h.audit("agent", id, action, reason); err != nil {
			httperr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "status": target})
	}
}

func (h *AdminHandler) HumanStatus(action string) gin.HandlerFunc {
	var target model.HumanStatus
	switch action {
	case "suspend":
		target = model.HumanSuspended
	case "unsuspend":
		target = model.HumanActive
	case "ban":
		target = model.HumanBanned
	}

	return func(c *gin.Context) {
		id := c.Param("id")
		reason := readReason(c)

		human, err := h.Store.HumanByID(id)
		if errors.Is(err, store.ErrNotFound) {
			httperr.Write(c, httperr.NotFound("human_not_found", "no such account"))
			return
		}
		if err != nil {
			httperr.Write(c, err)
			return
		}
		if human.Status == model.HumanBanned {
			httperr.Write(c, httperr.Conflict("human_banned", "banned is terminal"))
			return
		}

		if err := h.Store.SetHumanStatus(id, target, time.Now().UnixMilli()); err != nil {
			httperr.Write(c, err)
			return
		}
		if err := h.audit("human", id, action, reason); err != nil {
			httperr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "status": target})
	}
}

func (h *AdminHandler) Log(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			httperr.Write(c, httperr.ValidationFields(map[string]string{"limit": "not a number"}))
			return
		}
		limit = v
	}

	entries, err := h.Store.ListModeration(limit)
	if err != nil {
		httperr.Write(c, err)
		return
	}

	out := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		out = append(out, gin.H{
			"id":          e.ID,
			"actor":       e.Actor,
			"target_type": e.TargetType,
			"target_id":   e.TargetID,
			"action":      e.Action,
			"reason":      e.Reason,
			"created_at":  e.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"log": out})
}
