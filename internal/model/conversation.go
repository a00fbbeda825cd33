// Package model defines the normalized conversation records shared by the
// provider adapters, the search pipeline, and the output layers.
// Records are built once during parsing and never mutated afterward.
package model

import (
	"fmt"
	"time"
)

// Role identifies the speaker of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ParseRole maps s onto a canonical role. The second return is false when s
// is not one of the canonical names; adapters handle provider-specific
// vocabulary (e.g. "human") before calling this.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleAssistant, RoleSystem:
		return Role(s), true
	default:
		return "", false
	}
}

// MetadataKeyOriginalRole records a provider role value that was coerced to
// a canonical one. Metadata is provider-specific and non-contractual: search
// and sort logic never read it.
const MetadataKeyOriginalRole = "original_role"

// UntitledTitle is substituted for empty source titles.
const UntitledTitle = "Untitled"

// Message is one turn in a conversation.
type Message struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Role      Role           `json:"role"`
	Timestamp time.Time      `json:"timestamp"` // UTC; falls back to the conversation's CreatedAt when the source omits it
	ParentID  *string        `json:"parent_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Conversation is one exported thread. Messages is never empty: sources with
// zero parseable messages get a single placeholder message instead.
type Conversation struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	CreatedAt time.Time      `json:"created_at"` // UTC
	UpdatedAt *time.Time     `json:"updated_at,omitempty"`
	Messages  []Message      `json:"messages"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// PlaceholderMessage is the synthetic message substituted when a source
// conversation has no parseable messages.
func PlaceholderMessage(at time.Time) Message {
	return Message{
		ID:        "placeholder",
		Content:   "[Empty conversation]",
		Role:      RoleSystem,
		Timestamp: at,
	}
}

// MessageCount returns the number of messages in the conversation.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// Message returns the message with the given id, or nil.
func (c *Conversation) Message(id string) *Message {
	for i := range c.Messages {
		if c.Messages[i].ID == id {
			return &c.Messages[i]
		}
	}
	return nil
}

// RootMessages returns the messages with no parent, in message order.
// Flat-schema providers produce only roots.
func (c *Conversation) RootMessages() []Message {
	var roots []Message
	for _, m := range c.Messages {
		if m.ParentID == nil {
			roots = append(roots, m)
		}
	}
	return roots
}

// Children returns the messages whose ParentID references id, in message order.
func (c *Conversation) Children(id string) []Message {
	var children []Message
	for _, m := range c.Messages {
		if m.ParentID != nil && *m.ParentID == id {
			children = append(children, m)
		}
	}
	return children
}

// ThreadToRoot returns the parent chain ending at id, oldest first (root at
// index 0, the id'd message last). Returns nil when id is unknown.
func (c *Conversation) ThreadToRoot(id string) []Message {
	msg := c.Message(id)
	if msg == nil {
		return nil
	}

	var chain []Message
	seen := map[string]bool{} // guards against malformed parent cycles
	for msg != nil && !seen[msg.ID] {
		seen[msg.ID] = true
		chain = append(chain, *msg)
		if msg.ParentID == nil {
			break
		}
		msg = c.Message(*msg.ParentID)
	}

	// Reverse into oldest-first order.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Threads returns every root-to-leaf path through the message tree, roots in
// message order. A message with no children is a leaf; for flat providers
// each message is its own single-element thread.
func (c *Conversation) Threads() [][]Message {
	var threads [][]Message
	for _, root := range c.RootMessages() {
		threads = append(threads, c.walkThreads(root, nil, map[string]bool{})...)
	}
	return threads
}

func (c *Conversation) walkThreads(m Message, prefix []Message, seen map[string]bool) [][]Message {
	if seen[m.ID] {
		return nil
	}
	seen[m.ID] = true

	path := make([]Message, len(prefix), len(prefix)+1)
	copy(path, prefix)
	path = append(path, m)

	children := c.Children(m.ID)
	if len(children) == 0 {
		return [][]Message{path}
	}

	var threads [][]Message
	for _, child := range children {
		threads = append(threads, c.walkThreads(child, path, seen)...)
	}
	if len(threads) == 0 {
		// Every child was already visited: treat this node as a leaf.
		threads = [][]Message{path}
	}
	return threads
}

// Validate checks the normalized-record invariants. Adapters call it once
// per parsed conversation to decide between yielding and skipping.
func (c *Conversation) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("conversation has empty id")
	}
	if c.Title == "" {
		return fmt.Errorf("conversation %s has empty title", c.ID)
	}
	if c.CreatedAt.IsZero() {
		return fmt.Errorf("conversation %s has no created_at", c.ID)
	}
	if len(c.Messages) == 0 {
		return fmt.Errorf("conversation %s has no messages", c.ID)
	}
	if c.UpdatedAt != nil && c.UpdatedAt.Before(c.CreatedAt) {
		return fmt.Errorf("conversation %s updated_at precedes created_at", c.ID)
	}
	for i := range c.Messages {
		if c.Messages[i].ID == "" {
			return fmt.Errorf("conversation %s message %d has empty id", c.ID, i)
		}
		if c.Messages[i].Timestamp.IsZero() {
			return fmt.Errorf("conversation %s message %s has no timestamp", c.ID, c.Messages[i].ID)
		}
	}
	return nil
}
