package store

import (
	"testing"

	"agent-bazaar/internal/model"
)

func TestRequestStatusTransitionsOnlyFromOpen(t *testing.T) {
	s := openTestStore(t)
	seedHuman(t, s, "h1", "ada", model.HumanActive)
	seedRequest(t, s, "r1", model.HumanRef("h1"), 1000)

	if err := s.SetRequestStatus("r1", model.RequestResolved, 2000); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	r, _ := s.RequestByID("r1")
	if r.Status != model.RequestResolved {
		t.Fatalf("status = %s, want resolved", r.Status)
	}

	// Resolved is terminal: a second transition finds no open row.
	if err := s.SetRequestStatus("r1", model.RequestMuted, 3000); err != ErrNotFound {
		t.Fatalf("transition out of resolved = %v, want ErrNotFound", err)
	}
	r, _ = s.RequestByID("r1")
	if r.Status != model.RequestResolved {
		t.Fatalf("status changed after failed transition: %s", r.Status)
	}
}

func TestListOpenRequestsFiltersStatusAndHidden(t *testing.T) {
	s := openTestStore(t)
	seedHuman(t, s, "h1", "ada", model.HumanActive)
	seedRequest(t, s, "r1", model.HumanRef("h1"), 1000)
	seedRequest(t, s, "r2", model.HumanRef("h1"), 2000)
	seedRequest(t, s, "r3", model.HumanRef("h1"), 3000)

	if err := s.SetRequestStatus("r1", model.RequestDeleted, 4000); err != nil {
		t.Fatalf("delete r1: %v", err)
	}
	if err := s.SetRequestHidden("r2", true, 4000); err != nil {
		t.Fatalf("hide r2: %v", err)
	}

	open, err := s.ListOpenRequests(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(open) != 1 || open[0].ID != "r3" {
		t.Fatalf("open list = %v, want only r3", open)
	}
}

func TestAnonymousRequesterRoundTrip(t *testing.T) {
	s := openTestStore(t)
	seedRequest(t, s, "r1", model.ActorRef{Type: model.ActorHuman}, 1000)

	r, err := s.RequestByID("r1")
	if err != nil {
		t.Fatalf("RequestByID: %v", err)
	}
	if !r.Requester.Anonymous() {
		t.Fatalf("requester = %v, want anonymous", r.Requester)
	}
	if r.Requester.Type != model.ActorHuman {
		t.Fatalf("requester type = %s, want human", r.Requester.Type)
	}
}

func TestCountAgentRequestsSince(t *testing.T) {
	s := openTestStore(t)
	seedAgent(t, s, "a1", model.AgentActive)
	seedAgent(t, s, "a2", model.AgentActive)
	seedHuman(t, s, "h1", "ada", model.HumanActive)

	seedRequest(t, s, "r1", model.AgentRef("a1"), 1000)
	seedRequest(t, s, "r2", model.AgentRef("a1"), 5000)
	seedRequest(t, s, "r3", model.AgentRef("a2"), 5000)
	seedRequest(t, s, "r4", model.HumanRef("h1"), 5000)

	n, err := s.CountAgentRequestsSince("a1", 2000)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

func TestCountAgentToAgentPitchesSince(t *testing.T) {
	s := openTestStore(t)
	seedAgent(t, s, "a1", model.AgentActive)
	seedAgent(t, s, "a2", model.AgentActive)
	seedHuman(t, s, "h1", "ada", model.HumanActive)

	agentReq := seedRequest(t, s, "r1", model.AgentRef("a2"), 1000)
	humanReq := seedRequest(t, s, "r2", model.HumanRef("h1"), 1000)

	mustPitch := func(id, reqID string, at int64) {
		t.Helper()
		err := s.CreatePitch(model.Pitch{ID: id, RequestID: reqID, AgentID: "a1", Text: "hi", CreatedAt: at})
		if err != nil {
			t.Fatalf("pitch %s: %v", id, err)
		}
	}
	mustPitch("p1", agentReq.ID, 2000)
	mustPitch("p2", humanReq.ID, 2500)
	mustPitch("p3", agentReq.ID, 500)

	// Only the pitch against the agent-authored request inside the
	// window counts.
	n, err := s.CountAgentToAgentPitchesSince("a1", 1000)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

func TestBlocks(t *testing.T) {
	s := openTestStore(t)
	seedHuman(t, s, "h1", "ada", model.HumanActive)
	seedAgent(t, s, "a1", model.AgentActive)

	blocker := model.HumanRef("h1")
	blocked := model.AgentRef("a1")

	exists, err := s.BlockExists(blocker, blocked)
	if err != nil || exists {
		t.Fatalf("exists before add = %v, %v", exists, err)
	}

	if err := s.AddBlock(blocker, blocked, 1000); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	if err := s.AddBlock(blocker, blocked, 2000); err != nil {
		t.Fatalf("repeat AddBlock should be a no-op: %v", err)
	}

	exists, err = s.BlockExists(blocker, blocked)
	if err != nil || !exists {
		t.Fatalf("exists after add = %v, %v", exists, err)
	}

	// Blocks are directed.
	exists, _ = s.BlockExists(blocked, blocker)
	if exists {
		t.Fatal("reverse direction should not exist")
	}
}
