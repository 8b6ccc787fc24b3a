package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"agent-bazaar/internal/auth"
	"agent-bazaar/internal/guard"
	"agent-bazaar/internal/httperr"
	"agent-bazaar/internal/middleware"
	"agent-bazaar/internal/model"
	"agent-bazaar/internal/store"
)

// agentRequestWindow is the rolling window for the one-request-per-hour
// rule applied to agent-authored requests.
const agentRequestWindow = time.Hour

type RequestHandler struct {
	Store *store.Store
}

type createRequestBody struct {
	Text      string  `json:"text"`
	BudgetMin *string `json:"budget_min"`
	BudgetMax *string `json:"budget_max"`
}

func parseBudget(raw *string, field string, fields map[string]string) *decimal.Decimal {
	if raw == nil || *raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(*raw)
	if err != nil {
		fields[field] = "not a number"
		return nil
	}
	if d.IsNegative() {
		fields[field] = "must not be negative"
		return nil
	}
	return &d
}

// agentMayAct rejects agents outside the active state on write paths:
// pending agents are scoped to register/claim, suspended agents keep
// their identity but lose write access.
func agentMayAct(agent middleware.AgentContext) *httperr.Error {
	switch agent.Status {
	case model.AgentPending:
		return httperr.Forbidden("agent_not_claimed", "agent has not completed the claim flow")
	case model.AgentSuspended:
		return httperr.Forbidden("agent_suspended", "agent is suspended")
	}
	return nil
}

func renderRequest(r model.Request) gin.H {
	return gin.H{
		"id":         r.ID,
		"requester":  r.Requester,
		"text":       r.Text,
		"budget_min": r.BudgetMin,
		"budget_max": r.BudgetMax,
		"status":     r.Status,
		"created_at": r.CreatedAt,
		"updated_at": r.UpdatedAt,
	}
}

// Create accepts a new request from an active human, a claimed agent,
// or an anonymous caller with no account at all. Human-authored
// requests (including anonymous ones) receive a delete capability
// token; agent-authored ones are governed by the agent's bearer token
// and a one-per-hour rule instead.
func (h *RequestHandler) Create(c *gin.Context) {
	var body createRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httperr.Write(c, httperr.Invalid("bad_body", "malformed request body"))
		return
	}

	fields := map[string]string{}
	if body.Text == "" {
		fields["text"] = "required"
	} else if len(body.Text) > 4000 {
		fields["text"] = "too long"
	}
	budgetMin := parseBudget(body.BudgetMin, "budget_min", fields)
	budgetMax := parseBudget(body.BudgetMax, "budget_max", fields)
	if budgetMin != nil && budgetMax != nil && budgetMin.GreaterThan(*budgetMax) {
		fields["budget_min"] = "exceeds budget_max"
	}
	if len(fields) > 0 {
		httperr.Write(c, httperr.ValidationFields(fields))
		return
	}

	now := time.Now().UnixMilli()
	req := model.Request{
		ID:        uuid.NewString(),
		Text:      body.Text,
		BudgetMin: budgetMin,
		BudgetMax: budgetMax,
		Status:    model.RequestOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var deleteToken string
	if agent, ok := middleware.AgentFromContext(c); ok {
		if gerr := agentMayAct(agent); gerr != nil {
			httperr.Write(c, gerr)
			return
		}
		n, err := h.Store.CountAgentRequestsSince(agent.ID, now-agentRequestWindow.Milliseconds())
		if err != nil {
			httperr.Write(c, err)
			return
		}
		if n >= 1 {
			httperr.Write(c, httperr.RateLimited("request_rate", "agents may open one request per hour"))
			return
		}
		req.Requester = model.AgentRef(agent.ID)
	} else {
		if human, ok := middleware.HumanFromContext(c); ok {
			if human.Status != model.HumanActive {
				httperr.Write(c, httperr.Forbidden("account_not_claimed", "account must be claimed first; POST /v1/humans/{id}/claim"))
				return
			}
			req.Requester = model.HumanRef(human.ID)
		} else {
			req.Requester = model.ActorRef{Type: model.ActorHuman}
		}
		deleteToken = auth.NewToken()
		hash := auth.HashToken(deleteToken)
		req.DeleteTokenHash = &hash
	}

	if err := h.Store.CreateRequest(req); err != nil {
		httperr.Write(c, err)
		return
	}

	resp := renderRequest(req)
	if deleteToken != "" {
		resp["delete_token"] = deleteToken
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *RequestHandler) List(c *gin.Context) {
	requests, err := h.Store.ListOpenRequests(50)
	if err != nil {
		httperr.Write(c, err)
		return
	}
	out := make([]gin.H, 0, len(requests))
	for _, r := range requests {
		out = append(out, renderRequest(r))
	}
	c.JSON(http.StatusOK, gin.H{"requests": out})
}

func (h *RequestHandler) Get(c *gin.Context) {
	req, err := h.Store.RequestByID(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		httperr.Write(c, httperr.NotFound("request_not_found", "no such request"))
		return
	}
	if err != nil {
		httperr.Write(c, err)
		return
	}

	admin := middleware.IsAdmin(c)
	if req.Hidden && !admin {
		httperr.Write(c, httperr.NotFound("request_not_found", "no such request"))
		return
	}

	pitches, err := h.Store.ListPitchesForRequest(req.ID, admin)
	if err != nil {
		httperr.Write(c, err)
		return
	}
	pitchOut := make([]gin.H, 0, len(pitches))
	for _, p := range pitches {
		pitchOut = append(pitchOut, renderPitch(p))
	}

	resp := renderRequest(req)
	resp["pitches"] = pitchOut
	c.JSON(http.StatusOK, resp)
}

// authorizeRequestMutation implements the two mutation paths: bearer
// identity for agent-authored requests, capability token for
// human-authored (including anonymous) ones.
func (h *RequestHandler) authorizeRequestMutation(c *gin.Context, req model.Request) *httperr.Error {
	if req.Requester.Type == model.ActorAgent {
		agent, ok := middleware.AgentFromContext(c)
		if !ok {
			return httperr.Unauthenticated("agent_required", "agent bearer token required")
		}
		if !req.Requester.Is(model.ActorAgent, agent.ID) {
			return httperr.Forbidden("not_owner", "request belongs to another agent")
		}
		return nil
	}
	return guard.CapabilityToken(c.Query("token"), req.DeleteTokenHash)
}

type patchRequestBody struct {
	Status model.RequestStatus `json:"status"`
}

// UpdateStatus transitions an open request to muted, resolved, or
// deleted.
func (h *RequestHandler) UpdateStatus(c *gin.Context) {
	req, err := h.Store.RequestByID(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		httperr.Write(c, httperr.NotFound("request_not_found", "no such request"))
		return
	}
	if err != nil {
		httperr.Write(c, err)
		return
	}

	if gerr := h.authorizeRequestMutation(c, req); gerr != nil {
		httperr.Write(c, gerr)
		return
	}

	var body patchRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httperr.Write(c, httperr.Invalid("bad_body", "malformed request body"))
		return
	}
	switch body.Status {
	case model.RequestMuted, model.RequestResolved, model.RequestDeleted:
	default:
		httperr.Write(c, httperr.ValidationFields(map[string]string{"status": "must be muted, resolved, or deleted"}))
		return
	}

	err = h.Store.SetRequestStatus(req.ID, body.Status, time.Now().UnixMilli())
	if errors.Is(err, store.ErrNotFound) {
		httperr.Write(c, httperr.Conflict("request_not_open", "request already left the open state"))
		return
	}
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": req.ID, "status": body.Status})
}

// Delete soft-deletes: the row is retained under the deleted status.
func (h *RequestHandler) Delete(c *gin.Context) {
	req, err := h.Store.RequestByID(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		httperr.Write(c, httperr.NotFound("request_not_found", "no such request"))
		return
	}
	if err != nil {
		httperr.Write(c, err)
		return
	}

	if gerr := h.authorizeRequestMutation(c, req); gerr != nil {
		httperr.Write(c, gerr)
		return
	}

	err = h.Store.SetRequestStatus(req.ID, model.RequestDeleted, time.Now().UnixMilli())
	if errors.Is(err, store.ErrNotFound) {
		httperr.Write(c, httperr.Conflict("request_not_open", "request already left the open state"))
		return
	}
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": req.ID, "status": model.RequestDeleted})
}

type blockBody struct {
	AgentID string `json:"agent_id"`
}

// BlockAgent lets a request's human author block an agent from within
// the request, authorized by the same capability token. Blocking is
// directional and currently has no removal path.
func (h *RequestHandler) BlockAgent(c *gin.Context) {
	req, err := h.Store.RequestByID(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		httperr.Write(c, httperr.NotFound("request_not_found", "no such request"))
		return
	}
	if err != nil {
		httperr.Write(c, err)
		return
	}

	if req.Requester.Type != model.ActorHuman {
		httperr.Write(c, httperr.Forbidden("not_blockable", "only human-authored requests can block agents"))
		return
	}
	if req.Requester.Anonymous() {
		httperr.Write(c, httperr.Invalid("anonymous_requester", "anonymous requests have no account to hold a block"))
		return
	}

	if gerr := guard.CapabilityToken(c.Query("token"), req.DeleteTokenHash); gerr != nil {
		httperr.Write(c, gerr)
		return
	}

	var body blockBody
	if err := c.ShouldBindJSON(&body); err != nil || body.AgentID == "" {
		httperr.Write(c, httperr.ValidationFields(map[string]string{"agent_id": "required"}))
		return
	}
	if _, err := h.Store.AgentByID(body.AgentID); errors.Is(err, store.ErrNotFound) {
		httperr.Write(c, httperr.NotFound("agent_not_found", "no such agent"))
		return
	} else if err != nil {
		httperr.Write(c, err)
		return
	}

	err = h.Store.AddBlock(req.Requester, model.AgentRef(body.AgentID), time.Now().UnixMilli())
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"blocked": body.AgentID})
}
