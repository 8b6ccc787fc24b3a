package store

import (
	"path/filepath"
	"testing"

	"agent-bazaar/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedAgent(t *testing.T, s *Store, id string, status model.AgentStatus) model.Agent {
	t.Helper()
	a := model.Agent{
		ID:             id,
		TokenHash:      "token-" + id,
		Status:         status,
		ClaimTokenHash: "claim-" + id,
		CreatedAt:      1000,
		UpdatedAt:      1000,
		LastPollAt:     1000,
	}
	if err := s.CreateAgent(a); err != nil {
		t.Fatalf("seed agent %s: %v", id, err)
	}
	return a
}

func seedHuman(t *testing.T, s *Store, id, name string, status model.HumanStatus) model.Human {
	t.Helper()
	h := model.Human{
		ID:             id,
		TokenHash:      "token-" + id,
		DisplayName:    name,
		Status:         status,
		ClaimTokenHash: "claim-" + id,
		CreatedAt:      1000,
		UpdatedAt:      1000,
	}
	if err := s.CreateHuman(h); err != nil {
		t.Fatalf("seed human %s: %v", id, err)
	}
	return h
}

func seedRequest(t *testing.T, s *Store, id string, requester model.ActorRef, createdAt int64) model.Request {
	t.Helper()
	r := model.Request{
		ID:        id,
		Requester: requester,
		Text:      "need a thing",
		Status:    model.RequestOpen,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := s.CreateRequest(r); err != nil {
		t.Fatalf("seed request %s: %v", id, err)
	}
	return r
}

func TestAgentLifecycle(t *testing.T) {
	s := openTestStore(t)
	seedAgent(t, s, "a1", model.AgentPending)

	a, err := s.AgentByID("a1")
	if err != nil {
		t.Fatalf("AgentByID: %v", err)
	}
	if a.Status != model.AgentPending {
		t.Fatalf("status = %s, want pending", a.Status)
	}

	if err := s.ClaimAgent("a1", "https://bsky.app/profile/x/post/1", 2000); err != nil {
		t.Fatalf("ClaimAgent: %v", err)
	}
	a, _ = s.AgentByID("a1")
	if a.Status != model.AgentActive {
		t.Fatalf("status after claim = %s, want active", a.Status)
	}
	if a.ClaimedURL == nil || *a.ClaimedURL != "https://bsky.app/profile/x/post/1" {
		t.Fatalf("claimed url not recorded: %v", a.ClaimedURL)
	}
	if a.ClaimedAt == nil || *a.ClaimedAt != 2000 {
		t.Fatalf("claimed_at not recorded: %v", a.ClaimedAt)
	}

	// Claiming twice fails: the account is no longer pending.
	if err := s.ClaimAgent("a1", "https://bsky.app/profile/x/post/2", 3000); err != ErrNotFound {
		t.Fatalf("second claim = %v, want ErrNotFound", err)
	}
}

func TestAgentByTokenHashExcludesBanned(t *testing.T) {
	s := openTestStore(t)
	a := seedAgent(t, s, "a1", model.AgentActive)

	if _, err := s.AgentByTokenHash(a.TokenHash); err != nil {
		t.Fatalf("active agent should resolve: %v", err)
	}

	if err := s.SetAgentStatus("a1", model.AgentSuspended, 2000); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if _, err := s.AgentByTokenHash(a.TokenHash); err != nil {
		t.Fatalf("suspended agent should still resolve: %v", err)
	}

	if err := s.SetAgentStatus("a1", model.AgentBanned, 3000); err != nil {
		t.Fatalf("ban: %v", err)
	}
	if _, err := s.AgentByTokenHash(a.TokenHash); err != ErrNotFound {
		t.Fatalf("banned agent resolved, want ErrNotFound, got %v", err)
	}
}

func TestHumanDisplayNameUniqueCaseInsensitive(t *testing.T) {
	s := openTestStore(t)
	seedHuman(t, s, "h1", "Ada", model.HumanActive)

	err := s.CreateHuman(model.Human{
		ID: "h2", TokenHash: "t2", DisplayName: "ada",
		Status: model.HumanPending, ClaimTokenHash: "c2",
		CreatedAt: 1000, UpdatedAt: 1000,
	})
	if err != ErrConflict {
		t.Fatalf("duplicate display name = %v, want ErrConflict", err)
	}

	if _, err := s.HumanByDisplayName("ADA"); err != nil {
		t.Fatalf("lookup by different case: %v", err)
	}
}

func TestClaimHumanFromLegacy(t *testing.T) {
	s := openTestStore(t)
	seedHuman(t, s, "h1", "ada", model.HumanLegacy)

	if err := s.ClaimHuman("h1", "https://mastodon.social/@ada/1", 2000); err != nil {
		t.Fatalf("ClaimHuman: %v", err)
	}
	h, _ := s.HumanByID("h1")
	if h.Status != model.HumanActive {
		t.Fatalf("status = %s, want active", h.Status)
	}

	// Suspended accounts cannot run the claim flow.
	seedHuman(t, s, "h2", "bob", model.HumanSuspended)
	if err := s.ClaimHuman("h2", "https://mastodon.social/@bob/1", 2000); err != ErrNotFound {
		t.Fatalf("claim of suspended = %v, want ErrNotFound", err)
	}
}

func TestRotateHumanToken(t *testing.T) {
	s := openTestStore(t)
	h := seedHuman(t, s, "h1", "ada", model.HumanActive)

	if err := s.RotateHumanToken("h1", "fresh-hash", 2000); err != nil {
		t.Fatalf("RotateHumanToken: %v", err)
	}
	if _, err := s.HumanByTokenHash(h.TokenHash); err != ErrNotFound {
		t.Fatalf("old token still resolves: %v", err)
	}
	if _, err := s.HumanByTokenHash("fresh-hash"); err != nil {
		t.Fatalf("new token should resolve: %v", err)
	}
}
