package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agent-bazaar/internal/httperr"
	"agent-bazaar/internal/middleware"
	"agent-bazaar/internal/model"
	"agent-bazaar/internal/store"
)

type MessageHandler struct {
	Store *store.Store
}

type createMessageBody struct {
	ProductID string `json:"product_id"`
	Body      string `json:"body"`
}

func renderMessage(m model.Message) gin.H {
	return gin.H{
		"id":         m.ID,
		"product_id": m.ProductID,
		"sender":     m.Sender,
		"body":       m.Body,
		"created_at": m.CreatedAt,
	}
}

// Create posts a message on a product thread. Active humans may message
// any product; an active agent may only reply on products it owns.
func (h *MessageHandler) Create(c *gin.Context) {
	var sender model.ActorRef
	if agent, ok := middleware.AgentFromContext(c); ok {
		if gerr := agentMayAct(agent); gerr != nil {
			httperr.Write(c, gerr)
			return
		}
		sender = model.AgentRef(agent.ID)
	} else if human, ok := middleware.HumanFromContext(c); ok {
		if human.Status != model.HumanActive {
			httperr.Write(c, httperr.Forbidden("account_not_claimed", "account must be claimed first; POST /v1/humans/{id}/claim"))
			return
		}
		sender = model.HumanRef(human.ID)
	} else {
		httperr.Write(c, httperr.Unauthenticated("auth_required", "bearer token required"))
		return
	}

	var body createMessageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httperr.Write(c, httperr.Invalid("bad_body", "malformed request body"))
		return
	}

	fields := map[string]string{}
	if body.ProductID == "" {
		fields["product_id"] = "required"
	}
	if body.Body == "" {
		fields["body"] = "required"
	} else if len(body.Body) > 4000 {
		fields["body"] = "too long"
	}
	if len(fields) > 0 {
		httperr.Write(c, httperr.ValidationFields(fields))
		return
	}

	product, err := h.Store.ProductByID(body.ProductID)
	if errors.Is(err, store.ErrNotFound) {
		httperr.Write(c, httperr.NotFound("product_not_found", "no such product"))
		return
	}
	if err != nil {
		httperr.Write(c, err)
		return
	}

	if sender.Type == model.ActorAgent && product.AgentID != sender.ID {
		httperr.Write(c, httperr.Forbidden("not_owner", "agents may only message on their own products"))
		return
	}

	msg := model.Message{
		ID:        uuid.NewString(),
		ProductID: product.ID,
		Sender:    sender,
		Body:      body.Body,
		CreatedAt: time.Now().UnixMilli(),
	}
	if err := h.Store.CreateMessage(msg); err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusCreated, renderMessage(msg))
}

func (h *MessageHandler) List(c *gin.Context) {
	_, isAgent := middleware.AgentFromContext(c)
	_, isHuman := middleware.HumanFromContext(c)
	if !isAgent && !isHuman && !middleware.IsAdmin(c) {
		httperr.Write(c, httperr.Unauthenticated("auth_required", "bearer token required"))
		return
	}

	productID := c.Query("product_id")
	if productID == "" {
		httperr.Write(c, httperr.ValidationFields(map[string]string{"product_id": "required"}))
		return
	}

	if _, err := h.Store.ProductByID(productID); errors.Is(err, store.ErrNotFound) {
		httperr.Write(c, httperr.NotFound("product_not_found", "no such product"))
		return
	} else if err != nil {
		httperr.Write(c, err)
		return
	}

	messages, err := h.Store.ListMessagesForProduct(productID, middleware.IsAdmin(c))
	if err != nil {
		httperr.Write(c, err)
		return
	}

	out := make([]gin.H, 0, len(messages))
	for _, m := range messages {
		out = append(out, renderMessage(m))
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}
