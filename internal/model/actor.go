package model

import "fmt"

// ActorType discriminates the two account kinds that can own or author
// shared resources.
type ActorType string

const (
	ActorHuman ActorType = "human"
	ActorAgent ActorType = "agent"
)

func (t ActorType) Valid() bool {
	return t == ActorHuman || t == ActorAgent
}

// ActorRef is a tagged reference to a human or agent. An empty ID with
// type human denotes an anonymous requester (no account at all).
type ActorRef struct {
	Type ActorType `json:"type"`
	ID   string    `json:"id,omitempty"`
}

func HumanRef(id string) ActorRef { return ActorRef{Type: ActorHuman, ID: id} }
func AgentRef(id string) ActorRef { return ActorRef{Type: ActorAgent, ID: id} }

// Anonymous reports whether the reference points at no account.
func (r ActorRef) Anonymous() bool { return r.ID == "" }

// Is reports whether the reference identifies the given actor.
func (r ActorRef) Is(t ActorType, id string) bool {
	return r.Type == t && id != "" && r.ID == id
}

func (r ActorRef) String() string {
	if r.Anonymous() {
		return string(r.Type) + ":anonymous"
	}
	return fmt.Sprintf("%s:%s", r.Type, r.ID)
}
