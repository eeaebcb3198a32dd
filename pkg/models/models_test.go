package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDecision(t *testing.T) {
	cases := []struct {
		name   string
		output string
		want   Decision
		ok     bool
	}{
		{"bare respond", "RESPOND", DecisionRespond, true},
		{"bare ignore", "IGNORE", DecisionIgnore, true},
		{"bare stop", "STOP", DecisionStop, true},
		{"lowercase", "respond", DecisionRespond, true},
		{"embedded in prose", "I think the agent should RESPOND here.", DecisionRespond, true},
		{"earliest token wins", "IGNORE (not RESPOND)", DecisionIgnore, true},
		{"empty output", "", DecisionIgnore, false},
		{"no token", "maybe? hard to say", DecisionIgnore, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseDecision(tc.output)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestConversationContextRender(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	thread := ConversationContext{
		{AuthorHandle: "alice", Text: "hey @eliza what do you think?", CreatedAt: at},
		{AuthorHandle: "eliza", Text: "thinking about it", CreatedAt: at.Add(time.Minute)},
	}

	rendered := thread.Render("eliza")
	assert.Contains(t, rendered, "@alice (2024-05-01 12:30): hey @eliza what do you think?")
	assert.Contains(t, rendered, "@eliza (you)")

	assert.Equal(t, "thinking about it", thread.Last().Text)
	assert.Nil(t, ConversationContext{}.Last())
}

func TestAgentIdentityIsSelf(t *testing.T) {
	id := AgentIdentity{UserID: "u-1", Handle: "eliza"}

	assert.True(t, id.IsSelf(Interaction{AuthorID: "u-1"}))
	assert.True(t, id.IsSelf(Interaction{AuthorID: "u-9", AuthorHandle: "Eliza"}))
	assert.False(t, id.IsSelf(Interaction{AuthorID: "u-9", AuthorHandle: "alice"}))
}
