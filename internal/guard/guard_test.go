package guard

import (
	"net/http"
	"testing"

	"agent-bazaar/internal/auth"
	"agent-bazaar/internal/model"
)

type fakeBlocks struct {
	blocked bool
}

func (f fakeBlocks) BlockExists(blocker, blocked model.ActorRef) (bool, error) {
	return f.blocked, nil
}

func TestProductMutation(t *testing.T) {
	p := model.Product{ID: "p1", AgentID: "a1"}
	if err := ProductMutation(p, "a1"); err != nil {
		t.Fatalf("expected owner to pass, got %v", err)
	}
	err := ProductMutation(p, "a2")
	if err == nil || err.Status() != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %v", err)
	}
}

func TestPitchCreation_SelfDealing(t *testing.T) {
	req := model.Request{ID: "r1", Requester: model.AgentRef("a1"), Status: model.RequestOpen}
	err := PitchCreation(fakeBlocks{}, req, "a1", nil)
	if err == nil || err.Status() != http.StatusForbidden {
		t.Fatalf("expected 403 pitching own request, got %v", err)
	}
	if err := PitchCreation(fakeBlocks{}, req, "a2", nil); err != nil {
		t.Fatalf("expected other agent to pass, got %v", err)
	}
}

func TestPitchCreation_ClosedRequest(t *testing.T) {
	for _, status := range []model.RequestStatus{model.RequestMuted, model.RequestResolved, model.RequestDeleted} {
		req := model.Request{ID: "r1", Requester: model.HumanRef("h1"), Status: status}
		err := PitchCreation(fakeBlocks{}, req, "a1", nil)
		if err == nil || err.Status() != http.StatusBadRequest {
			t.Fatalf("status %s: expected 400, got %v", status, err)
		}
	}
}

func TestPitchCreation_CrossTenantProduct(t *testing.T) {
	req := model.Request{ID: "r1", Requester: model.HumanRef("h1"), Status: model.RequestOpen}
	other := model.Product{ID: "p1", AgentID: "a2"}
	err := PitchCreation(fakeBlocks{}, req, "a1", &other)
	if err == nil || err.Status() != http.StatusForbidden {
		t.Fatalf("expected 403 for unowned product, got %v", err)
	}
	own := model.Product{ID: "p2", AgentID: "a1"}
	if err := PitchCreation(fakeBlocks{}, req, "a1", &own); err != nil {
		t.Fatalf("expected owned product to pass, got %v", err)
	}
}

func TestPitchCreation_Blocked(t *testing.T) {
	req := model.Request{ID: "r1", Requester: model.HumanRef("h1"), Status: model.RequestOpen}
	err := PitchCreation(fakeBlocks{blocked: true}, req, "a1", nil)
	if err == nil || err.Status() != http.StatusForbidden {
		t.Fatalf("expected 403 when blocked, got %v", err)
	}
}

func TestPitchCreation_AnonymousRequesterSkipsBlockLookup(t *testing.T) {
	// Anonymous requesters have no account to hold a block row.
	req := model.Request{ID: "r1", Requester: model.ActorRef{Type: model.ActorHuman}, Status: model.RequestOpen}
	if err := PitchCreation(fakeBlocks{blocked: true}, req, "a1", nil); err != nil {
		t.Fatalf("expected anonymous requester to pass, got %v", err)
	}
}

func TestCapabilityToken(t *testing.T) {
	tok := auth.NewToken()
	hash := auth.HashToken(tok)

	if err := CapabilityToken(tok, &hash); err != nil {
		t.Fatalf("expected matching token to pass, got %v", err)
	}
	if err := CapabilityToken("wrong", &hash); err == nil || err.Status() != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong token, got %v", err)
	}
	if err := CapabilityToken("", &hash); err == nil {
		t.Fatalf("expected 401 for empty token")
	}
	if err := CapabilityToken(tok, nil); err == nil {
		t.Fatalf("expected 401 when no capability token was issued")
	}
}
