package decision

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bendanzhentan/eliza/internal/completion"
	"github.com/bendanzhentan/eliza/internal/errs"
	"github.com/bendanzhentan/eliza/internal/prompts"
	"github.com/bendanzhentan/eliza/pkg/models"
)

// Gate classifies whether the agent should reply to a mention. It renders
// the decision prompt, runs one completion and parses the token out of
// whatever comes back. Unparseable output is IGNORE, not an error: the
// pipeline only aborts when the completion backend itself fails.
type Gate struct {
	provider completion.Provider
	logger   zerolog.Logger
}

// NewGate creates a decision gate on top of a completion provider.
func NewGate(provider completion.Provider, logger zerolog.Logger) *Gate {
	return &Gate{
		provider: provider,
		logger:   logger.With().Str("component", "decision").Logger(),
	}
}

// Decide returns RESPOND, IGNORE or STOP for the newest message in thread.
func (g *Gate) Decide(ctx context.Context, identity models.AgentIdentity, state string, thread models.ConversationContext) (models.Decision, error) {
	prompt, err := prompts.Decision(identity, state, thread)
	if err != nil {
		return models.DecisionIgnore, errs.Decision(err)
	}

	output, err := g.provider.Complete(ctx, prompt, []string{"\n"})
	if err != nil {
		return models.DecisionIgnore, errs.Decision(err)
	}

	decision, ok := models.ParseDecision(output)
	if !ok {
		g.logger.Warn().
			Str("output", strings.TrimSpace(output)).
			Msg("decision output contained no token, defaulting to IGNORE")
		return models.DecisionIgnore, nil
	}

	g.logger.Debug().
		Str("decision", decision.String()).
		Msg("decision gate resolved")
	return decision, nil
}
