package model

// AgentStatus is the lifecycle state of an agent account.
type AgentStatus string

const (
	AgentPending   AgentStatus = "pending"
	AgentActive    AgentStatus = "active"
	AgentSuspended AgentStatus = "suspended"
	AgentBanned    AgentStatus = "banned"
)

func (s AgentStatus) Valid() bool {
	switch s {
	case AgentPending, AgentActive, AgentSuspended, AgentBanned:
		return true
	}
	return false
}

// HumanStatus is the lifecycle state of a human account. Legacy marks
// accounts that predate the status migration; like pending, they are
// write-restricted until claimed.
type HumanStatus string

const (
	HumanPending   HumanStatus = "pending"
	HumanActive    HumanStatus = "active"
	HumanSuspended HumanStatus = "suspended"
	HumanBanned    HumanStatus = "banned"
	HumanLegacy    HumanStatus = "legacy"
)

func (s HumanStatus) Valid() bool {
	switch s {
	case HumanPending, HumanActive, HumanSuspended, HumanBanned, HumanLegacy:
		return true
	}
	return false
}

// CanClaim reports whether a human account in this state may still run
// the claim flow.
func (s HumanStatus) CanClaim() bool {
	return s == HumanPending || s == HumanLegacy
}

// RequestStatus is the lifecycle state of a request. Only open requests
// accept new pitches; the other three are terminal for pitching but the
// row is always retained.
type RequestStatus string

const (
	RequestOpen     RequestStatus = "open"
	RequestMuted    RequestStatus = "muted"
	RequestResolved RequestStatus = "resolved"
	RequestDeleted  RequestStatus = "deleted"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestOpen, RequestMuted, RequestResolved, RequestDeleted:
		return true
	}
	return false
}
