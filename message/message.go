// Package message defines the wire-level Message type that flows between
// nodes of an executing graph, and a typed StructuredMessage view over it.
package message

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleAgent     Role = "agent"
)

// Message is the canonical unit of communication between nodes. Content is
// the wire form: when structured, it is a JSON-encoded payload whose
// conventional schema is {user, goal, steps[], response?, ...}.
type Message struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	From      string         `json:"from"`
	To        string         `json:"to,omitempty"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// New creates a Message with a fresh time-unique identifier.
func New(role Role, from, to, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		From:      from,
		To:        to,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// User builds a user-role message addressed to the given node.
func User(content, to string) Message {
	return New(RoleUser, "user", to, content)
}

// Tool builds a tool-role message from the given tool name.
func Tool(toolName, content string) Message {
	return New(RoleTool, toolName, "", content)
}

// Agent builds an agent-role message from the given agent name.
func Agent(agentName, to, content string) Message {
	return New(RoleAgent, agentName, to, content)
}

// Encode renders v as a Message's content, JSON-encoding the payload.
func Encode(role Role, from, to string, v any) (Message, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Message{}, fmt.Errorf("message: encode payload: %w", err)
	}
	m := New(role, from, to, string(raw))
	return m, nil
}

// StructuredMessage is a typed view over a Message whose content parses as T.
type StructuredMessage[T any] struct {
	Message Message
	Payload T
}

// Decode parses m.Content as JSON into a StructuredMessage[T].
func Decode[T any](m Message) (StructuredMessage[T], error) {
	var payload T
	if err := json.Unmarshal([]byte(m.Content), &payload); err != nil {
		return StructuredMessage[T]{}, fmt.Errorf("message: decode content: %w", err)
	}
	return StructuredMessage[T]{Message: m, Payload: payload}, nil
}

// TryDecodeJSON attempts to parse raw as JSON into a generic map. It never
// panics: invalid JSON yields an error, never a crash.
func TryDecodeJSON(raw string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Payload is the conventional structured content shape agents and tools
// exchange: {user, goal, steps[], response?, last_agent?, ...extra}.
type Payload struct {
	User      string         `json:"user,omitempty"`
	Goal      string         `json:"goal,omitempty"`
	Raw       string         `json:"raw,omitempty"`
	Response  string         `json:"response,omitempty"`
	LastAgent string         `json:"last_agent,omitempty"`
	Steps     []Step         `json:"steps,omitempty"`
	Extra     map[string]any `json:"-"`
}

// Step records one agent's contribution to a Payload's history.
type Step struct {
	Agent  string `json:"agent"`
	Intent string `json:"intent,omitempty"`
	Driver string `json:"driver,omitempty"`
	Model  string `json:"model,omitempty"`
}

// MarshalJSON flattens Extra alongside the named fields.
func (p Payload) MarshalJSON() ([]byte, error) {
	type alias Payload
	base, err := json.Marshal(alias(p))
	if err != nil {
		return nil, err
	}
	if len(p.Extra) == 0 {
		return base, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range p.Extra {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		merged[k] = raw
	}
	return json.Marshal(merged)
}

// UnmarshalJSON captures any field not in the named set into Extra.
func (p *Payload) UnmarshalJSON(data []byte) error {
	type alias Payload
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = Payload(a)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	known := map[string]bool{
		"user": true, "goal": true, "raw": true, "response": true,
		"last_agent": true, "steps": true,
	}
	extra := make(map[string]any)
	for k, v := range raw {
		if known[k] {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			continue
		}
		extra[k] = val
	}
	if len(extra) > 0 {
		p.Extra = extra
	}
	return nil
}
