package generator

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog"

	"github.com/bendanzhentan/eliza/internal/completion"
	"github.com/bendanzhentan/eliza/internal/errs"
	"github.com/bendanzhentan/eliza/internal/prompts"
	"github.com/bendanzhentan/eliza/pkg/models"
)

// Generator produces the agent's reply text for a thread the gate decided
// to answer. The model is asked for a JSON envelope; everything here is
// about getting a usable text field out of output that is frequently
// wrapped in code fences, prefixed with prose, or mildly malformed.
type Generator struct {
	provider completion.Provider
	logger   zerolog.Logger
}

// New creates a response generator on top of a completion provider.
func New(provider completion.Provider, logger zerolog.Logger) *Generator {
	return &Generator{
		provider: provider,
		logger:   logger.With().Str("component", "generator").Logger(),
	}
}

// replyEnvelope is the JSON shape the reply prompt asks for.
type replyEnvelope struct {
	User   string `json:"user"`
	Text   string `json:"text"`
	Action string `json:"action"`
}

// Generate returns the reply text for the thread. An empty string with a
// nil error means the model produced nothing usable and the interaction
// should be recorded as processed without posting. Errors are reserved for
// completion transport failures.
func (g *Generator) Generate(ctx context.Context, identity models.AgentIdentity, state string, thread models.ConversationContext) (string, error) {
	prompt, err := prompts.Reply(identity, state, thread)
	if err != nil {
		return "", errs.Decision(err)
	}

	output, err := g.provider.Complete(ctx, prompt, nil)
	if err != nil {
		return "", errs.Decision(err)
	}

	text := g.extractText(output)
	if text == "" {
		g.logger.Warn().
			Str("output", truncateForLog(output)).
			Msg("generator output contained no usable text")
	}
	return text, nil
}

// extractText pulls the reply text out of raw model output. It tries the
// JSON envelope first, repairs it when plain unmarshalling fails, and
// falls back to the raw output only when no JSON object is present at all.
func (g *Generator) extractText(output string) string {
	raw := strings.TrimSpace(stripCodeFences(output))
	if raw == "" {
		return ""
	}

	obj := extractJSONObject(raw)
	if obj == "" {
		// No envelope at all. Some models just answer in prose; take it.
		return raw
	}

	var envelope replyEnvelope
	if err := json.Unmarshal([]byte(obj), &envelope); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(obj)
		if repairErr != nil {
			g.logger.Debug().Err(repairErr).Msg("json repair failed")
			return ""
		}
		if err := json.Unmarshal([]byte(repaired), &envelope); err != nil {
			return ""
		}
		g.logger.Debug().Msg("recovered reply envelope via json repair")
	}
	return strings.TrimSpace(envelope.Text)
}

// stripCodeFences removes a surrounding markdown code fence if present.
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line.
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// extractJSONObject returns the first balanced {...} region in s, or ""
// when none exists. Brace counting ignores braces inside string literals.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	// Unbalanced; hand the tail to the repair pass.
	return s[start:]
}

func truncateForLog(s string) string {
	const max = 200
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
