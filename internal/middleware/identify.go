package middleware

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"agent-bazaar/internal/auth"
	"agent-bazaar/internal/httperr"
	"agent-bazaar/internal/model"
	"agent-bazaar/internal/store"
)

const (
	agentContextKey = "actorAgent"
	humanContextKey = "actorHuman"
	adminContextKey = "actorAdmin"
)

// AgentContext is the resolved identity attached to a request carrying
// an agent bearer token.
type AgentContext struct {
	ID          string
	DisplayName *string
	Status      model.AgentStatus
	LastPollAt  int64
}

type HumanContext struct {
	ID          string
	DisplayName string
	Status      model.HumanStatus
}

func AgentFromContext(c *gin.Context) (AgentContext, bool) {
	v, ok := c.Get(agentContextKey)
	if !ok {
		return AgentContext{}, false
	}
	a, ok := v.(AgentContext)
	return a, ok
}

func HumanFromContext(c *gin.Context) (HumanContext, bool) {
	v, ok := c.Get(humanContextKey)
	if !ok {
		return HumanContext{}, false
	}
	h, ok := v.(HumanContext)
	return h, ok
}

func IsAdmin(c *gin.Context) bool {
	v, ok := c.Get(adminContextKey)
	return ok && v == true
}

// Identify resolves the Authorization header to exactly one of admin,
// agent, human, or anonymous. Absence of credentials is a normal state,
// never an error. Raw tokens are hashed before lookup and never logged;
// a token matching an agent short-circuits the human lookup.
func Identify(st *store.Store, adminSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.Next()
			return
		}
		token := parts[1]

		if auth.VerifyAdminSecret(token, adminSecret) {
			c.Set(adminContextKey, true)
			c.Next()
			return
		}

		hash := auth.HashToken(token)

		agent, err := st.AgentByTokenHash(hash)
		if err == nil {
			c.Set(agentContextKey, AgentContext{
				ID:          agent.ID,
				DisplayName: agent.DisplayName,
				Status:      agent.Status,
				LastPollAt:  agent.LastPollAt,
			})
			if err := st.TouchAgentPoll(agent.ID, time.Now().UnixMilli()); err != nil {
				log.Printf("touch agent poll %s: %v", agent.ID, err)
			}
			c.Next()
			return
		}
		if !errors.Is(err, store.ErrNotFound) {
			httperr.Write(c, err)
			c.Abort()
			return
		}

		human, err := st.HumanByTokenHash(hash)
		if err == nil {
			c.Set(humanContextKey, HumanContext{
				ID:          human.ID,
				DisplayName: human.DisplayName,
				Status:      human.Status,
			})
			c.Next()
			return
		}
		if !errors.Is(err, store.ErrNotFound) {
			httperr.Write(c, err)
			c.Abort()
			return
		}

		// Unknown token: fall through as anonymous. Endpoints that need
		// an identity reject with 401 at their own gate.
		c.Next()
	}
}

func RequireAgent() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := AgentFromContext(c); !ok {
			httperr.Write(c, httperr.Unauthenticated("agent_required", "agent bearer token required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireClaimedAgent scopes an authenticated agent to the claimed,
// unsuspended state. A pending agent resolves its identity fine but may
// only register and claim; everything else is forbidden, not
// unauthorized.
func RequireClaimedAgent() gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := AgentFromContext(c)
		if !ok {
			httperr.Write(c, httperr.Unauthenticated("agent_required", "agent bearer token required"))
			c.Abort()
			return
		}
		switch agent.Status {
		case model.AgentPending:
			httperr.Write(c, httperr.Forbidden("agent_not_claimed", "agent has not completed the claim flow"))
			c.Abort()
			return
		case model.AgentSuspended:
			httperr.Write(c, httperr.Forbidden("agent_suspended", "agent is suspended"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func RequireHuman() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := HumanFromContext(c); !ok {
			httperr.Write(c, httperr.Unauthenticated("human_required", "human bearer token required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireActiveHuman rejects pending and legacy accounts with an
// actionable pointer at the claim flow; only active humans may mutate.
func RequireActiveHuman() gin.HandlerFunc {
	return func(c *gin.Context) {
		human, ok := HumanFromContext(c)
		if !ok {
			httperr.Write(c, httperr.Unauthenticated("human_required", "human bearer token required"))
			c.Abort()
			return
		}
		switch human.Status {
		case model.HumanPending, model.HumanLegacy:
			httperr.Write(c, httperr.Forbidden("account_not_claimed", "account must be claimed first; POST /v1/humans/{id}/claim"))
			c.Abort()
			return
		case model.HumanSuspended:
			httperr.Write(c, httperr.Forbidden("account_suspended", "account is suspended"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			httperr.Write(c, httperr.Unauthenticated("admin_required", "admin credential required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
