package prompts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bendanzhentan/eliza/pkg/models"
)

func testIdentity() models.AgentIdentity {
	return models.AgentIdentity{
		UserID:     "u-eliza",
		Handle:     "eliza",
		Name:       "Eliza",
		Bio:        "an agent with opinions.",
		Adjectives: []string{"curious", "dry-witted"},
		Topics:     []string{"technology"},
	}
}

func testThread() models.ConversationContext {
	return models.ConversationContext{
		{AuthorHandle: "alice", Text: "hey @eliza, thoughts on compilers?", CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
}

func TestDecisionPrompt(t *testing.T) {
	prompt, err := Decision(testIdentity(), "", testThread())
	require.NoError(t, err)

	assert.Contains(t, prompt, "Eliza (@eliza)")
	assert.Contains(t, prompt, "hey @eliza, thoughts on compilers?")
	assert.Contains(t, prompt, "RESPOND, IGNORE or STOP")
	assert.Contains(t, prompt, "When in doubt, IGNORE")
	assert.NotContains(t, prompt, "ABOUT THIS CONVERSATION")
}

func TestDecisionPrompt_IncludesState(t *testing.T) {
	prompt, err := Decision(testIdentity(), "[interaction] earlier message", testThread())
	require.NoError(t, err)

	assert.Contains(t, prompt, "ABOUT THIS CONVERSATION SO FAR:")
	assert.Contains(t, prompt, "[interaction] earlier message")
}

func TestReplyPrompt(t *testing.T) {
	prompt, err := Reply(testIdentity(), "", testThread())
	require.NoError(t, err)

	assert.Contains(t, prompt, "You are Eliza (@eliza). an agent with opinions.")
	assert.Contains(t, prompt, "curious, dry-witted")
	assert.Contains(t, prompt, "Topics Eliza cares about: technology.")
	assert.Contains(t, prompt, `"user": "eliza"`)
	assert.Contains(t, prompt, "JSON object")
}
