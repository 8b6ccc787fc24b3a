package store

import (
	"testing"

	"github.com/shopspring/decimal"

	"agent-bazaar/internal/model"
)

func TestUpsertProductIdempotent(t *testing.T) {
	s := openTestStore(t)
	seedAgent(t, s, "a1", model.AgentActive)

	first, err := s.UpsertProduct(model.Product{
		ID: "p1", AgentID: "a1", ExternalID: "sku-1",
		Title: "Widget", Price: decimal.RequireFromString("9.99"),
		CreatedAt: 1000, UpdatedAt: 1000,
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// Same natural key with a new candidate id: the row updates in
	// place and keeps the original id.
	second, err := s.UpsertProduct(model.Product{
		ID: "p2", AgentID: "a1", ExternalID: "sku-1",
		Title: "Widget v2", Price: decimal.RequireFromString("12.50"),
		CreatedAt: 2000, UpdatedAt: 2000,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("id changed on upsert: %s -> %s", first.ID, second.ID)
	}
	if second.Title != "Widget v2" {
		t.Fatalf("title = %q, want updated title", second.Title)
	}
	if !second.Price.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("price = %s, want 12.50", second.Price)
	}

	products, err := s.ListProductsByAgent("a1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("got %d products, want 1", len(products))
	}
}

func TestUpsertProductScopedPerAgent(t *testing.T) {
	s := openTestStore(t)
	seedAgent(t, s, "a1", model.AgentActive)
	seedAgent(t, s, "a2", model.AgentActive)

	p1, err := s.UpsertProduct(model.Product{
		ID: "p1", AgentID: "a1", ExternalID: "sku-1",
		Title: "Mine", Price: decimal.RequireFromString("1"),
		CreatedAt: 1000, UpdatedAt: 1000,
	})
	if err != nil {
		t.Fatalf("a1 upsert: %v", err)
	}
	p2, err := s.UpsertProduct(model.Product{
		ID: "p2", AgentID: "a2", ExternalID: "sku-1",
		Title: "Theirs", Price: decimal.RequireFromString("2"),
		CreatedAt: 1000, UpdatedAt: 1000,
	})
	if err != nil {
		t.Fatalf("a2 upsert: %v", err)
	}
	if p1.ID == p2.ID {
		t.Fatal("shared external_id collided across agents")
	}

	got, _ := s.ProductByID(p1.ID)
	if got.Title != "Mine" {
		t.Fatalf("a1 product overwritten: %q", got.Title)
	}
}

func TestDeleteProduct(t *testing.T) {
	s := openTestStore(t)
	seedAgent(t, s, "a1", model.AgentActive)
	p, err := s.UpsertProduct(model.Product{
		ID: "p1", AgentID: "a1", ExternalID: "sku-1",
		Title: "Widget", Price: decimal.RequireFromString("1"),
		CreatedAt: 1000, UpdatedAt: 1000,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := s.DeleteProduct(p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.ProductByID(p.ID); err != ErrNotFound {
		t.Fatalf("deleted product lookup = %v, want ErrNotFound", err)
	}
	if err := s.DeleteProduct(p.ID); err != ErrNotFound {
		t.Fatalf("second delete = %v, want ErrNotFound", err)
	}
}

func TestDeleteReferencedProduct(t *testing.T) {
	s := openTestStore(t)
	seedAgent(t, s, "a1", model.AgentActive)
	seedHuman(t, s, "h1", "ada", model.HumanActive)
	seedRequest(t, s, "r1", model.HumanRef("h1"), 1000)

	p, err := s.UpsertProduct(model.Product{
		ID: "p1", AgentID: "a1", ExternalID: "sku-1",
		Title: "Widget", Price: decimal.RequireFromString("1"),
		CreatedAt: 1000, UpdatedAt: 1000,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	err = s.CreatePitch(model.Pitch{ID: "pi1", RequestID: "r1", AgentID: "a1", ProductID: &p.ID, Text: "buy it", CreatedAt: 2000})
	if err != nil {
		t.Fatalf("pitch: %v", err)
	}
	err = s.CreateMessage(model.Message{ID: "m1", ProductID: p.ID, Sender: model.HumanRef("h1"), Body: "hi", CreatedAt: 2000})
	if err != nil {
		t.Fatalf("message: %v", err)
	}

	if err := s.DeleteProduct(p.ID); err != nil {
		t.Fatalf("delete referenced product: %v", err)
	}
	if _, err := s.ProductByID(p.ID); err != ErrNotFound {
		t.Fatalf("product lookup = %v, want ErrNotFound", err)
	}

	// The pitch survives without its product reference.
	pitch, err := s.PitchByID("pi1")
	if err != nil {
		t.Fatalf("pitch lookup: %v", err)
	}
	if pitch.ProductID != nil {
		t.Fatalf("pitch still references deleted product: %v", *pitch.ProductID)
	}

	// The message thread goes with the product.
	msgs, err := s.ListMessagesForProduct(p.ID, true)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("got %d thread messages, want 0", len(msgs))
	}
}
