package thread

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/bendanzhentan/eliza/internal/platform"
	"github.com/bendanzhentan/eliza/pkg/models"
)

// DefaultMaxDepth bounds how far back a reply chain is walked.
const DefaultMaxDepth = 12

// Reconstructor rebuilds the conversation a mention belongs to by walking
// parent links through the platform.
type Reconstructor struct {
	client   platform.Client
	maxDepth int
	logger   zerolog.Logger
}

// NewReconstructor creates a thread reconstructor. maxDepth <= 0 selects
// DefaultMaxDepth.
func NewReconstructor(client platform.Client, maxDepth int, logger zerolog.Logger) *Reconstructor {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Reconstructor{
		client:   client,
		maxDepth: maxDepth,
		logger:   logger.With().Str("component", "thread").Logger(),
	}
}

// Build walks parent links backward from start and returns the chain in
// chronological order, root first, start last. Missing or deleted ancestors
// truncate the chain instead of failing it: the gate still gets whatever
// context survives.
func (r *Reconstructor) Build(ctx context.Context, start models.Interaction) (models.ConversationContext, error) {
	chain := models.ConversationContext{start}

	parentID := start.ParentID
	for depth := 0; parentID != "" && depth < r.maxDepth; depth++ {
		parent, err := r.client.GetByID(ctx, parentID)
		if err != nil {
			r.logger.Warn().
				Err(err).
				Str("interaction_id", start.ID).
				Str("parent_id", parentID).
				Msg("failed to fetch ancestor, truncating thread")
			break
		}
		if parent == nil {
			// Deleted ancestor. The chain above it is unreachable.
			r.logger.Debug().
				Str("interaction_id", start.ID).
				Str("parent_id", parentID).
				Msg("ancestor missing, truncating thread")
			break
		}

		chain = append(chain, *parent)
		parentID = parent.ParentID
	}

	// Walked newest-to-oldest; flip to root-first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}
