package dispatch

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/bendanzhentan/eliza/internal/errs"
	"github.com/bendanzhentan/eliza/internal/memory"
	"github.com/bendanzhentan/eliza/internal/platform"
	"github.com/bendanzhentan/eliza/pkg/models"
)

// Dispatcher posts a generated reply to the platform as a chain of
// length-bounded chunks and records each posted chunk as a response memory.
// Posting is not transactional: a failure partway leaves the already-posted
// chunks standing, and the returned units say exactly how far the chain got.
type Dispatcher struct {
	client platform.Client
	store  memory.Store
	maxLen int
	dryRun bool
	logger zerolog.Logger
}

// NewDispatcher creates a dispatcher. maxLen is the platform's post length
// limit; dryRun logs the chunks instead of posting them.
func NewDispatcher(client platform.Client, store memory.Store, maxLen int, dryRun bool, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		client: client,
		store:  store,
		maxLen: maxLen,
		dryRun: dryRun,
		logger: logger.With().Str("component", "dispatch").Logger(),
	}
}

// Dispatch splits text and posts the chunks as a reply chain under mention.
// The first chunk replies to the mention itself; every later chunk replies
// to the previously posted chunk. Each successful post is recorded in the
// memory store before the next one goes out. On a post failure the units
// posted so far are returned together with a dispatch error.
func (d *Dispatcher) Dispatch(ctx context.Context, roomID string, agentUserID string, mention models.Interaction, text string) ([]models.ResponseUnit, error) {
	chunks := Split(text, d.maxLen)
	if len(chunks) == 0 {
		return nil, nil
	}

	var units []models.ResponseUnit
	inReplyTo := mention.ID
	for i, chunk := range chunks {
		if d.dryRun {
			d.logger.Info().
				Int("index", i).
				Str("in_reply_to", inReplyTo).
				Str("text", chunk).
				Msg("dry run, skipping post")
			units = append(units, models.ResponseUnit{Index: i, InReplyTo: inReplyTo, Text: chunk})
			continue
		}

		posted, err := d.client.Post(ctx, chunk, inReplyTo)
		if err != nil {
			d.logger.Error().
				Err(err).
				Int("posted", len(units)).
				Int("total", len(chunks)).
				Str("mention_id", mention.ID).
				Msg("reply chain aborted mid-dispatch")
			return units, errs.Dispatch(err)
		}

		unit := models.ResponseUnit{
			Index:         i,
			InteractionID: posted.ID,
			InReplyTo:     inReplyTo,
			Text:          chunk,
		}
		units = append(units, unit)
		inReplyTo = posted.ID

		if err := d.recordUnit(ctx, roomID, agentUserID, unit); err != nil {
			// The chunk is already on the platform; losing its memory row
			// must not abort the rest of the chain.
			d.logger.Warn().
				Err(err).
				Str("interaction_id", unit.InteractionID).
				Msg("failed to record response memory")
		}
	}

	d.logger.Info().
		Int("chunks", len(units)).
		Str("mention_id", mention.ID).
		Msg("reply chain dispatched")
	return units, nil
}

func (d *Dispatcher) recordUnit(ctx context.Context, roomID, agentUserID string, unit models.ResponseUnit) error {
	return d.store.CreateMemory(ctx, models.Memory{
		ID:        memory.MemoryID(unit.InteractionID),
		RoomID:    roomID,
		UserID:    agentUserID,
		Kind:      models.MemoryKindResponse,
		Text:      unit.Text,
		SourceID:  unit.InteractionID,
		CreatedAt: time.Now().UTC(),
	})
}
