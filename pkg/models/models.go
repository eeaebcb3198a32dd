package models

import (
	"fmt"
	"strings"
	"time"
)

// Platform interaction models

// Interaction is one post/mention visible to the agent on the platform.
// It is created by the platform and read-only to this process. IDs are
// opaque strings; the platform guarantees that a newer interaction compares
// lexicographically greater than an older one.
type Interaction struct {
	ID             string    `json:"id" db:"id"`
	AuthorID       string    `json:"author_id" db:"author_id"`
	AuthorHandle   string    `json:"author_handle" db:"author_handle"`
	AuthorName     string    `json:"author_name" db:"author_name"`
	Text           string    `json:"text" db:"text"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	ParentID       string    `json:"parent_id,omitempty" db:"parent_id"`
	URL            string    `json:"url,omitempty" db:"url"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// ConversationContext is the ordered ancestor chain of an interaction,
// root first, newest last. It is the prompt input for both the decision
// gate and the response generator.
type ConversationContext []Interaction

// Render formats the thread as plain text for prompting. The agent's own
// posts are labelled so the model can tell the sides apart.
func (c ConversationContext) Render(agentHandle string) string {
	var b strings.Builder
	for _, in := range c {
		handle := in.AuthorHandle
		if handle == "" {
			handle = in.AuthorID
		}
		marker := ""
		if strings.EqualFold(handle, agentHandle) {
			marker = " (you)"
		}
		fmt.Fprintf(&b, "@%s%s (%s): %s\n\n", handle, marker, in.CreatedAt.Format("2006-01-02 15:04"), in.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Last returns the newest interaction in the thread, or nil for an empty one.
func (c ConversationContext) Last() *Interaction {
	if len(c) == 0 {
		return nil
	}
	return &c[len(c)-1]
}

// Decision models

// Decision is the three-way outcome of the decision gate.
type Decision int

const (
	// DecisionIgnore means the agent stays silent. This is the default when
	// the completion backend returns nothing usable.
	DecisionIgnore Decision = iota
	// DecisionRespond means the agent should generate and post a reply.
	DecisionRespond
	// DecisionStop means the human signalled the exchange is over.
	DecisionStop
)

// String returns the token form used in prompts and logs.
func (d Decision) String() string {
	switch d {
	case DecisionRespond:
		return "RESPOND"
	case DecisionStop:
		return "STOP"
	default:
		return "IGNORE"
	}
}

// ParseDecision scans completion output for one of the decision tokens.
// The earliest token in the output wins. ok is false when no token is
// present; callers treat that as IGNORE.
func ParseDecision(output string) (Decision, bool) {
	upper := strings.ToUpper(output)
	bestPos := -1
	best := DecisionIgnore
	for _, cand := range []struct {
		token string
		d     Decision
	}{
		{"RESPOND", DecisionRespond},
		{"IGNORE", DecisionIgnore},
		{"STOP", DecisionStop},
	} {
		if pos := strings.Index(upper, cand.token); pos >= 0 && (bestPos < 0 || pos < bestPos) {
			bestPos = pos
			best = cand.d
		}
	}
	if bestPos < 0 {
		return DecisionIgnore, false
	}
	return best, true
}

// Dispatch models

// ResponseUnit is one platform-length-bounded chunk of a multi-part reply.
// Index is the zero-based position in the chain; InteractionID is the id the
// platform assigned to the posted chunk; InReplyTo is the id the chunk was
// posted under (the original mention for the first chunk, the previous
// chunk's posted id after that).
type ResponseUnit struct {
	Index         int    `json:"index"`
	InteractionID string `json:"interaction_id"`
	InReplyTo     string `json:"in_reply_to"`
	Text          string `json:"text"`
}

// Memory models

// Memory kinds stored by the agent.
const (
	MemoryKindInteraction = "interaction"
	MemoryKindResponse    = "response"
	MemoryKindEvaluation  = "evaluation"
)

// Memory is the durable record of a processed interaction or a sent
// response unit. ID is deterministic for a given SourceID so creation is
// idempotent: re-processing a seen interaction finds the existing row
// instead of inserting a duplicate.
type Memory struct {
	ID        string    `json:"id" db:"id"`
	RoomID    string    `json:"room_id" db:"room_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Kind      string    `json:"kind" db:"kind"`
	Text      string    `json:"text" db:"text"`
	SourceID  string    `json:"source_id" db:"source_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AgentIdentity is the persona the agent speaks as. Bio, adjectives and
// topics feed the prompt templates; UserID and Handle drive the
// self-exclusion rule in the interaction loop.
type AgentIdentity struct {
	UserID     string   `json:"user_id"`
	Handle     string   `json:"handle"`
	Name       string   `json:"name"`
	Bio        string   `json:"bio"`
	Adjectives []string `json:"adjectives,omitempty"`
	Topics     []string `json:"topics,omitempty"`
}

// IsSelf reports whether the interaction was authored by the agent itself.
func (a AgentIdentity) IsSelf(in Interaction) bool {
	if a.UserID != "" && in.AuthorID == a.UserID {
		return true
	}
	return a.Handle != "" && strings.EqualFold(in.AuthorHandle, a.Handle)
}
