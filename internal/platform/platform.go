package platform

import (
	"context"

	"github.com/bendanzhentan/eliza/pkg/models"
)

// SearchMode selects how the platform orders search results.
type SearchMode string

const (
	// ModeLatest biases the search toward the most recent interactions.
	ModeLatest SearchMode = "latest"
	// ModeTop biases the search toward high-engagement interactions.
	ModeTop SearchMode = "top"
)

// Client is the platform transport this system consumes. Implementations
// own authentication and wire formats; the pipeline only sees Interactions.
type Client interface {
	// Search returns interactions matching the query, at most limit of
	// them. The result may contain duplicates and is in no particular
	// order; callers dedup and sort.
	Search(ctx context.Context, query string, limit int, mode SearchMode) ([]models.Interaction, error)
	// GetByID fetches a single interaction. A deleted or missing
	// interaction returns (nil, nil), not an error.
	GetByID(ctx context.Context, id string) (*models.Interaction, error)
	// Post publishes text, optionally as a reply to inReplyTo, and
	// returns the interaction the platform created for it.
	Post(ctx context.Context, text string, inReplyTo string) (*models.Interaction, error)
}
