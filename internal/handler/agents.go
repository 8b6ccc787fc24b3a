package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agent-bazaar/internal/auth"
	"agent-bazaar/internal/claim"
	"agent-bazaar/internal/guard"
	"agent-bazaar/internal/httperr"
	"agent-bazaar/internal/middleware"
	"agent-bazaar/internal/model"
	"agent-bazaar/internal/store"
)

type AgentHandler struct {
	Store         *store.Store
	Verifier      *claim.Verifier
	PublicBaseURL string
}

type registerAgentBody struct {
	DisplayName *string `json:"display_name"`
}

func (h *AgentHandler) profileURL(id string) string {
	return h.PublicBaseURL + "/v1/agents/" + id
}

// Register self-registers a new agent in pending status. The bearer
// token and claim token are returned exactly once; only their hashes
// are stored.
func (h *AgentHandler) Register(c *gin.Context) {
	var body registerAgentBody
	// Body is optional; display name may be set later via claim post.
	_ = c.ShouldBindJSON(&body)

	now := time.Now().UnixMilli()
	token := auth.NewToken()
	claimToken := auth.NewToken()

	agent := model.Agent{
		ID:             uuid.NewString(),
		TokenHash:      auth.HashToken(token),
		DisplayName:    body.DisplayName,
		Status:         model.AgentPending,
		ClaimTokenHash: auth.HashToken(claimToken),
		CreatedAt:      now,
		UpdatedAt:      now,
		LastPollAt:     now,
	}
	if err := h.Store.CreateAgent(agent); err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"agent_id":    agent.ID,
		"token":       token,
		"claim_token": claimToken,
		"status":      agent.Status,
		"profile_url": h.profileURL(agent.ID),
	})
}

type claimBody struct {
	ProofURL string `json:"proof_url"`
}

// Claim verifies a proof-of-social-post URL and promotes the agent from
// pending to active. Authorized by the agent's own bearer token or by
// the claim token issued at registration.
func (h *AgentHandler) Claim(c *gin.Context) {
	id := c.Param("id")
	agent, err := h.Store.AgentByID(id)
	if errors.Is(err, store.ErrNotFound) {
		httperr.Write(c, httperr.NotFound("agent_not_found", "no such agent"))
		return
	}
	if err != nil {
		httperr.Write(c, err)
		return
	}

	if actor, ok := middleware.AgentFromContext(c); !ok || actor.ID != agent.ID {
		if gerr := guard.CapabilityToken(c.Query("token"), &agent.ClaimTokenHash); gerr != nil {
			httperr.Write(c, gerr)
			return
		}
	}

	if agent.Status != model.AgentPending {
		httperr.Write(c, httperr.Invalid("already_claimed", "agent is not in pending status"))
		return
	}

	var body claimBody
	if err := c.ShouldBindJSON(&body); err != nil || body.ProofURL == "" {
		httperr.Write(c, httperr.ValidationFields(map[string]string{"proof_url": "required"}))
		return
	}

	if err := h.Verifier.Verify(c.Request.Context(), body.ProofURL, h.profileURL(agent.ID)); err != nil {
		httperr.Write(c, httperr.Invalid("claim_rejected", err.Error()))
		return
	}

	if err := h.Store.ClaimAgent(agent.ID, body.ProofURL, time.Now().UnixMilli()); err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": model.AgentActive})
}

// Me returns the agent's own status and aggregate stats. Pending agents
// are scoped down to register/claim only.
func (h *AgentHandler) Me(c *gin.Context) {
	actor, ok := middleware.AgentFromContext(c)
	if !ok {
		httperr.Write(c, httperr.Unauthenticated("agent_required", "agent bearer token required"))
		return
	}
	if actor.Status == model.AgentPending {
		httperr.Write(c, httperr.Forbidden("agent_not_claimed", "agent has not completed the claim flow"))
		return
	}

	agent, err := h.Store.AgentByID(actor.ID)
	if err != nil {
		httperr.Write(c, err)
		return
	}
	stats, err := h.Store.AgentStats(actor.ID)
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"agent_id":     agent.ID,
		"display_name": agent.DisplayName,
		"status":       agent.Status,
		"claimed_url":  agent.ClaimedURL,
		"created_at":   agent.CreatedAt,
		"last_poll_at": agent.LastPollAt,
		"stats": gin.H{
			"products":      stats.Products,
			"pitches":       stats.Pitches,
			"open_requests": stats.OpenRequests,
		},
	})
}

// PublicProfile exposes the non-sensitive slice of an agent. Banned
// agents are not disclosed.
func (h *AgentHandler) PublicProfile(c *gin.Context) {
	agent, err := h.Store.AgentByID(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) || (err == nil && agent.Status == model.AgentBanned) {
		httperr.Write(c, httperr.NotFound("agent_not_found", "no such agent"))
		return
	}
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"agent_id":     agent.ID,
		"display_name": agent.DisplayName,
		"status":       agent.Status,
		"created_at":   agent.CreatedAt,
	})
}
