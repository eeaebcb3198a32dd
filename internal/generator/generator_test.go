package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bendanzhentan/eliza/internal/completion"
	"github.com/bendanzhentan/eliza/internal/errs"
	"github.com/bendanzhentan/eliza/pkg/models"
)

func genIdentity() models.AgentIdentity {
	return models.AgentIdentity{UserID: "u-eliza", Handle: "eliza", Name: "Eliza", Bio: "an agent."}
}

func genThread() models.ConversationContext {
	return models.ConversationContext{
		{ID: "100", AuthorHandle: "alice", Text: "what's your take on static typing?"},
	}
}

func generate(t *testing.T, output string) string {
	t.Helper()
	fake := &completion.Fake{Responses: []string{output}}
	gen := New(fake, zerolog.Nop())

	text, err := gen.Generate(context.Background(), genIdentity(), "", genThread())
	require.NoError(t, err)
	return text
}

func TestGenerate_WellFormedEnvelope(t *testing.T) {
	text := generate(t, `{"user": "eliza", "text": "Static typing is a love letter to your future self.", "action": "NONE"}`)
	assert.Equal(t, "Static typing is a love letter to your future self.", text)
}

func TestGenerate_CodeFencedEnvelope(t *testing.T) {
	text := generate(t, "```json\n{\"user\": \"eliza\", \"text\": \"Fenced but fine.\", \"action\": \"NONE\"}\n```")
	assert.Equal(t, "Fenced but fine.", text)
}

func TestGenerate_ProseBeforeEnvelope(t *testing.T) {
	text := generate(t, `Sure, here is the reply: {"user": "eliza", "text": "Just the text.", "action": "NONE"}`)
	assert.Equal(t, "Just the text.", text)
}

func TestGenerate_RepairsMalformedJSON(t *testing.T) {
	// Trailing comma and unquoted key.
	text := generate(t, `{"user": "eliza", text: "Repaired.", "action": "NONE",}`)
	assert.Equal(t, "Repaired.", text)
}

func TestGenerate_PlainProseFallback(t *testing.T) {
	text := generate(t, "I'd say static typing pays for itself.")
	assert.Equal(t, "I'd say static typing pays for itself.", text)
}

func TestGenerate_EmptyOutput(t *testing.T) {
	assert.Equal(t, "", generate(t, ""))
	assert.Equal(t, "", generate(t, "   \n  "))
}

func TestGenerate_EnvelopeWithEmptyText(t *testing.T) {
	text := generate(t, `{"user": "eliza", "text": "", "action": "NONE"}`)
	assert.Equal(t, "", text)
}

func TestGenerate_ProviderError(t *testing.T) {
	fake := &completion.Fake{Err: errors.New("connection reset")}
	gen := New(fake, zerolog.Nop())

	_, err := gen.Generate(context.Background(), genIdentity(), "", genThread())
	require.Error(t, err)
	assert.Equal(t, errs.KindDecision, errs.KindOf(err))
}

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"plain object", `{"a": 1}`, `{"a": 1}`},
		{"nested", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
		{"braces in strings", `{"text": "use {} here"}`, `{"text": "use {} here"}`},
		{"no object", "no json here", ""},
		{"unbalanced returns tail", `{"a": 1`, `{"a": 1`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractJSONObject(tc.in))
		})
	}
}
