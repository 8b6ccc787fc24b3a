// Package guard answers "may this actor perform this mutation" for
// shared resources: ownership, self-dealing, cross-tenant references,
// blocking, and capability tokens.
package guard

import (
	"agent-bazaar/internal/auth"
	"agent-bazaar/internal/httperr"
	"agent-bazaar/internal/model"
)

// BlockChecker is the slice of the store the guard needs for block
// lookups.
type BlockChecker interface {
	BlockExists(blocker, blocked model.ActorRef) (bool, error)
}

// ProductMutation allows modification or deletion of a product only by
// its owning agent. Existence is not hidden from non-owners: the caller
// already resolved the row, so the denial is 403, not 404.
func ProductMutation(p model.Product, agentID string) *httperr.Error {
	if p.AgentID != agentID {
		return httperr.Forbidden("not_owner", "product belongs to another agent")
	}
	return nil
}

// PitchCreation runs the precedence-ordered checks for a new pitch by
// agentID against req, optionally referencing product.
func PitchCreation(blocks BlockChecker, req model.Request, agentID string, product *model.Product) *httperr.Error {
	if req.Status != model.RequestOpen {
		return httperr.Invalid("request_not_open", "request no longer accepts pitches")
	}

	// An actor never acts as both parties in a transaction.
	if req.Requester.Is(model.ActorAgent, agentID) {
		return httperr.Forbidden("own_request", "cannot pitch to your own request")
	}

	if product != nil && product.AgentID != agentID {
		return httperr.Forbidden("product_not_owned", "pitch references a product owned by another agent")
	}

	if req.Requester.Type == model.ActorHuman && !req.Requester.Anonymous() {
		blocked, err := blocks.BlockExists(req.Requester, model.AgentRef(agentID))
		if err != nil {
			return httperr.Internal(err)
		}
		if blocked {
			return httperr.Forbidden("blocked", "requester has blocked this agent")
		}
	}

	return nil
}

// CapabilityToken verifies the bearer-less authorization path: the
// per-resource secret supplied as a query parameter, compared against
// its stored hash. A missing stored hash means the resource was never
// issued a capability token.
func CapabilityToken(supplied string, storedHash *string) *httperr.Error {
	if storedHash == nil || supplied == "" || !auth.VerifyToken(supplied, *storedHash) {
		return httperr.Unauthenticated("invalid_token", "invalid or missing capability token")
	}
	return nil
}
