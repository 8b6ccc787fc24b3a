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

type HumanHandler struct {
	Store         *store.Store
	Verifier      *claim.Verifier
	PublicBaseURL string
}

type registerHumanBody struct {
	DisplayName string  `json:"display_name"`
	Password    *string `json:"password"`
}

func (h *HumanHandler) profileURL(id string) string {
	return h.PublicBaseURL + "/v1/humans/" + id
}

func (h *HumanHandler) Register(c *gin.Context) {
	var body registerHumanBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httperr.Write(c, httperr.Invalid("bad_body", "malformed request body"))
		return
	}

	fields := map[string]string{}
	if body.DisplayName == "" {
		fields["display_name"] = "required"
	} else if len(body.DisplayName) > 64 {
		fields["display_name"] = "too long"
	}
	if body.Password != nil && len(*body.Password) < 8 {
		fields["password"] = "must be at least 8 characters"
	}
	if len(fields) > 0 {
		httperr.Write(c, httperr.ValidationFields(fields))
		return
	}

	var passwordHash *string
	if body.Password != nil {
		hashed, err := auth.HashPassword(*body.Password)
		if err != nil {
			httperr.Write(c, err)
			return
		}
		passwordHash = &hashed
	}

	now := time.Now().UnixMilli()
	token := auth.NewToken()
	claimToken := auth.NewToken()

	human := model.Human{
		ID:             uuid.NewString(),
		TokenHash:      auth.HashToken(token),
		DisplayName:    body.DisplayName,
		PasswordHash:   passwordHash,
		Status:         model.HumanPending,
		ClaimTokenHash: auth.HashToken(claimToken),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := h.Store.CreateHuman(human)
	if errors.Is(err, store.ErrConflict) {
		httperr.Write(c, httperr.Conflict("display_name_taken", "display name is already in use"))
		return
	}
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"human_id":    human.ID,
		"token":       token,
		"claim_token": claimToken,
		"status":      human.Status,
	})
}

// Claim promotes a pending or legacy human to active after proof
// verification, mirroring the agent claim flow.
func (h *HumanHandler) Claim(c *gin.Context) {
	id := c.Param("id")
	human, err := h.Store.HumanByID(id)
	if errors.Is(err, store.ErrNotFound) {
		httperr.Write(c, httperr.NotFound("human_not_found", "no such account"))
		return
	}
	if err != nil {
		httperr.Write(c, err)
		return
	}

	if actor, ok := middleware.HumanFromContext(c); !ok || actor.ID != human.ID {
		if gerr := guard.CapabilityToken(c.Query("token"), &human.ClaimTokenHash); gerr != nil {
			httperr.Write(c, gerr)
			return
		}
	}

	if !human.Status.CanClaim() {
		httperr.Write(c, httperr.Invalid("already_claimed", "account is not awaiting a claim"))
		return
	}

	var body claimBody
	if err := c.ShouldBindJSON(&body); err != nil || body.ProofURL == "" {
		httperr.Write(c, httperr.ValidationFields(map[string]string{"proof_url": "required"}))
		return
	}

	if err := h.Verifier.Verify(c.Request.Context(), body.ProofURL, h.profileURL(human.ID)); err != nil {
		httperr.Write(c, httperr.Invalid("claim_rejected", err.Error()))
		return
	}

	if err := h.Store.ClaimHuman(human.ID, body.ProofURL, time.Now().UnixMilli()); err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": model.HumanActive})
}

type loginBody struct {
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// Login authenticates with display name and password and issues a fresh
// bearer token, invalidating the previous one.
func (h *HumanHandler) Login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil || body.DisplayName == "" || body.Password == "" {
		httperr.Write(c, httperr.ValidationFields(map[string]string{
			"display_name": "required",
			"password":     "required",
		}))
		return
	}

	human, err := h.Store.HumanByDisplayName(body.DisplayName)
	if errors.Is(err, store.ErrNotFound) {
		httperr.Write(c, httperr.Unauthenticated("invalid_credentials", "unknown account or wrong password"))
		return
	}
	if err != nil {
		httperr.Write(c, err)
		return
	}

	if human.Status == model.HumanBanned || human.PasswordHash == nil || !auth.CheckPassword(body.Password, *human.PasswordHash) {
		httperr.Write(c, httperr.Unauthenticated("invalid_credentials", "unknown account or wrong password"))
		return
	}

	token := auth.NewToken()
	if err := h.Store.RotateHumanToken(human.ID, auth.HashToken(token), time.Now().UnixMilli()); err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"human_id": human.ID, "token": token, "status": human.Status})
}

func (h *HumanHandler) Me(c *gin.Context) {
	actor, ok := middleware.HumanFromContext(c)
	if !ok {
		httperr.Write(c, httperr.Unauthenticated("human_required", "human bearer token required"))
		return
	}

	human, err := h.Store.HumanByID(actor.ID)
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"human_id":     human.ID,
		"display_name": human.DisplayName,
		"status":       human.Status,
		"created_at":   human.CreatedAt,
	})
}
