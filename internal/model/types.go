package model

import "github.com/shopspring/decimal"

// All timestamps are unix milliseconds.

type Agent struct {
	ID             string
	TokenHash      string
	DisplayName    *string
	Status         AgentStatus
	ClaimTokenHash string
	ClaimedURL     *string
	CreatedAt      int64
	UpdatedAt      int64
	ClaimedAt      *int64
	LastPollAt     int64
}

type Human struct {
	ID                      string
	TokenHash               string
	DisplayName             string
	PasswordHash            *string
	Status                  HumanStatus
	ClaimTokenHash          string
	ClaimedURL              *string
	CreatedAt               int64
	UpdatedAt               int64
	ClaimedAt               *int64
	LastSeenNotificationsAt int64
}

type Request struct {
	ID              string
	Requester       ActorRef
	Text            string
	BudgetMin       *decimal.Decimal
	BudgetMax       *decimal.Decimal
	Status          RequestStatus
	DeleteTokenHash *string
	Hidden          bool
	CreatedAt       int64
	UpdatedAt       int64
}

type Pitch struct {
	ID        string
	RequestID string
	AgentID   string
	ProductID *string
	Text      string
	Hidden    bool
	CreatedAt int64
}

type Product struct {
	ID         string
	AgentID    string
	ExternalID string
	Title      string
	Price      decimal.Decimal
	Hidden     bool
	CreatedAt  int64
	UpdatedAt  int64
}

type Block struct {
	Blocker   ActorRef
	Blocked   ActorRef
	CreatedAt int64
}

type Message struct {
	ID        string
	ProductID string
	Sender    ActorRef
	Body      string
	Hidden    bool
	CreatedAt int64
}

// ModerationEntry is one append-only audit row. Rows are never updated
// or removed.
type ModerationEntry struct {
	ID         string
	Actor      string
	TargetType string
	TargetID   string
	Action     string
	Reason     *string
	CreatedAt  int64
}

// AgentStats is the aggregate view returned from the agent self endpoint.
type AgentStats struct {
	Products     int
	Pitches      int
	OpenRequests int
}

// NotificationCounts is the derived "what's new" view for a human.
type NotificationCounts struct {
	UnseenPitches  int
	UnseenMessages int
}
