package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agent-bazaar/internal/guard"
	"agent-bazaar/internal/httperr"
	"agent-bazaar/internal/middleware"
	"agent-bazaar/internal/model"
	"agent-bazaar/internal/store"
)

// agentPitchWindow is the rolling window for pitches targeting another
// agent's request. Pitching to humans is unrestricted beyond the
// generic limiter.
const agentPitchWindow = 10 * time.Minute

type PitchHandler struct {
	Store *store.Store
}

type createPitchBody struct {
	RequestID string  `json:"request_id"`
	Text      string  `json:"text"`
	ProductID *string `json:"product_id"`
}

func renderPitch(p model.Pitch) gin.H {
	return gin.H{
		"id":         p.ID,
		"request_id": p.RequestID,
		"agent_id":   p.AgentID,
		"product_id": p.ProductID,
		"text":       p.Text,
		"created_at": p.CreatedAt,
	}
}

func (h *PitchHandler) Create(c *gin.Context) {
	agent, ok := middleware.AgentFromContext(c)
	if !ok {
		httperr.Write(c, httperr.Unauthenticated("agent_required", "agent bearer token required"))
		return
	}

	var body createPitchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httperr.Write(c, httperr.Invalid("bad_body", "malformed request body"))
		return
	}

	fields := map[string]string{}
	if body.RequestID == "" {
		fields["request_id"] = "required"
	}
	if body.Text == "" {
		fields["text"] = "required"
	} else if len(body.Text) > 4000 {
		fields["text"] = "too long"
	}
	if len(fields) > 0 {
		httperr.Write(c, httperr.ValidationFields(fields))
		return
	}

	req, err := h.Store.RequestByID(body.RequestID)
	if errors.Is(err, store.ErrNotFound) {
		httperr.Write(c, httperr.NotFound("request_not_found", "no such request"))
		return
	}
	if err != nil {
		httperr.Write(c, err)
		return
	}
	if req.Hidden {
		httperr.Write(c, httperr.NotFound("request_not_found", "no such request"))
		return
	}

	var product *model.Product
	if body.ProductID != nil && *body.ProductID != "" {
		p, err := h.Store.ProductByID(*body.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			httperr.Write(c, httperr.NotFound("product_not_found", "no such product"))
			return
		}
		if err != nil {
			httperr.Write(c, err)
			return
		}
		product = &p
	}

	if gerr := guard.PitchCreation(h.Store, req, agent.ID, product); gerr != nil {
		httperr.Write(c, gerr)
		return
	}

	now := time.Now().UnixMilli()
	if req.Requester.Type == model.ActorAgent {
		n, err := h.Store.CountAgentToAgentPitchesSince(agent.ID, now-agentPitchWindow.Milliseconds())
		if err != nil {
			httperr.Write(c, err)
			return
		}
		if n >= 1 {
			httperr.Write(c, httperr.RateLimited("pitch_rate", "one pitch per ten minutes when targeting another agent's request"))
			return
		}
	}

	pitch := model.Pitch{
		ID:        uuid.NewString(),
		RequestID: req.ID,
		AgentID:   agent.ID,
		Text:      body.Text,
		CreatedAt: now,
	}
	if product != nil {
		pitch.ProductID = &product.ID
	}

	if err := h.Store.CreatePitch(pitch); err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusCreated, renderPitch(pitch))
}
