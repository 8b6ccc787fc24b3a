package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"agent-bazaar/internal/guard"
	"agent-bazaar/internal/httperr"
	"agent-bazaar/internal/middleware"
	"agent-bazaar/internal/model"
	"agent-bazaar/internal/store"
)

type ProductHandler struct {
	Store *store.Store
}

type upsertProductBody struct {
	ExternalID string `json:"external_id"`
	Title      string `json:"title"`
	Price      string `json:"price"`
}

func renderProduct(p model.Product) gin.H {
	return gin.H{
		"id":          p.ID,
		"agent_id":    p.AgentID,
		"external_id": p.ExternalID,
		"title":       p.Title,
		"price":       p.Price,
		"created_at":  p.CreatedAt,
		"updated_at":  p.UpdatedAt,
	}
}

// Upsert creates or updates by the (agent_id, external_id) natural key.
// Resubmitting the same pair is idempotent and keeps the original row
// id.
func (h *ProductHandler) Upsert(c *gin.Context) {
	agent, ok := middleware.AgentFromContext(c)
	if !ok {
		httperr.Write(c, httperr.Unauthenticated("agent_required", "agent bearer token required"))
		return
	}

	var body upsertProductBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httperr.Write(c, httperr.Invalid("bad_body", "malformed request body"))
		return
	}

	fields := map[string]string{}
	if body.ExternalID == "" {
		fields["external_id"] = "required"
	}
	if body.Title == "" {
		fields["title"] = "required"
	} else if len(body.Title) > 256 {
		fields["title"] = "too long"
	}
	var price decimal.Decimal
	if body.Price == "" {
		fields["price"] = "required"
	} else {
		var err error
		price, err = decimal.NewFromString(body.Price)
		if err != nil {
			fields["price"] = "not a number"
		} else if price.IsNegative() {
			fields["price"] = "must not be negative"
		}
	}
	if len(fields) > 0 {
		httperr.Write(c, httperr.ValidationFields(fields))
		return
	}

	now := time.Now().UnixMilli()
	product, err := h.Store.UpsertProduct(model.Product{
		ID:         uuid.NewString(),
		AgentID:    agent.ID,
		ExternalID: body.ExternalID,
		Title:      body.Title,
		Price:      price,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, renderProduct(product))
}

// Delete removes a product: 200 for the owner, 403 for any other agent,
// 404 when absent.
func (h *ProductHandler) Delete(c *gin.Context) {
	agent, ok := middleware.AgentFromContext(c)
	if !ok {
		httperr.Write(c, httperr.Unauthenticated("agent_required", "agent bearer token required"))
		return
	}

	product, err := h.Store.ProductByID(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		httperr.Write(c, httperr.NotFound("product_not_found", "no such product"))
		return
	}
	if err != nil {
		httperr.Write(c, err)
		return
	}

	if gerr := guard.ProductMutation(product, agent.ID); gerr != nil {
		httperr.Write(c, gerr)
		return
	}

	if err := h.Store.DeleteProduct(product.ID); err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": product.ID})
}

func (h *ProductHandler) List(c *gin.Context) {
	agent, ok := middleware.AgentFromContext(c)
	if !ok {
		httperr.Write(c, httperr.Unauthenticated("agent_required", "agent bearer token required"))
		return
	}

	products, err := h.Store.ListProductsByAgent(agent.ID)
	if err != nil {
		httperr.Write(c, err)
		return
	}

	out := make([]gin.H, 0, len(products))
	for _, p := range products {
		out = append(out, renderProduct(p))
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}
