package loop

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/bendanzhentan/eliza/internal/cursor"
	"github.com/bendanzhentan/eliza/internal/decision"
	"github.com/bendanzhentan/eliza/internal/dispatch"
	"github.com/bendanzhentan/eliza/internal/errs"
	"github.com/bendanzhentan/eliza/internal/generator"
	"github.com/bendanzhentan/eliza/internal/memory"
	"github.com/bendanzhentan/eliza/internal/platform"
	"github.com/bendanzhentan/eliza/internal/thread"
	"github.com/bendanzhentan/eliza/pkg/models"
)

// stateMemoryLimit bounds how many room memories feed the prompts.
const stateMemoryLimit = 20

// Driver runs one polling tick: fetch mentions newer than the cursor,
// process them oldest first, and persist the advanced cursor. Processing
// is strictly sequential; the cursor is threaded through as a value and
// only moves past a mention once that mention is fully handled.
type Driver struct {
	client      platform.Client
	store       memory.Store
	cursors     cursor.Store
	threads     *thread.Reconstructor
	gate        *decision.Gate
	generator   *generator.Generator
	dispatcher  *dispatch.Dispatcher
	identity    models.AgentIdentity
	searchLimit int
	logger      zerolog.Logger
	stats       *statsTracker
}

// NewDriver wires the tick pipeline together.
func NewDriver(
	client platform.Client,
	store memory.Store,
	cursors cursor.Store,
	threads *thread.Reconstructor,
	gate *decision.Gate,
	gen *generator.Generator,
	dispatcher *dispatch.Dispatcher,
	identity models.AgentIdentity,
	searchLimit int,
	logger zerolog.Logger,
) *Driver {
	return &Driver{
		client:      client,
		store:       store,
		cursors:     cursors,
		threads:     threads,
		gate:        gate,
		generator:   gen,
		dispatcher:  dispatcher,
		identity:    identity,
		searchLimit: searchLimit,
		logger:      logger.With().Str("component", "loop").Logger(),
		stats:       &statsTracker{},
	}
}

// Stats returns a snapshot of loop progress.
func (d *Driver) Stats() Stats {
	return d.stats.Snapshot()
}

// LoadCursor reads the persisted cursor. An absent cursor is the empty
// string, which every interaction id compares greater than.
func (d *Driver) LoadCursor() (string, error) {
	value, ok, err := d.cursors.Load()
	if err != nil {
		return "", err
	}
	if !ok {
		d.logger.Info().Msg("no persisted cursor, starting from the beginning")
		return "", nil
	}
	return value, nil
}

// Tick polls for mentions newer than cur, processes them in ascending id
// order and returns the advanced cursor. The cursor is persisted before
// returning even when it did not move; rewriting the same value is
// harmless and keeps the persistence path exercised. A mention that fails
// on decision or generation aborts the tick without advancing past it, so
// the next tick retries it. A dispatch failure does advance the cursor:
// the chunks already posted must not be posted again.
func (d *Driver) Tick(ctx context.Context, cur string) (string, error) {
	d.stats.update(func(s *Stats) {
		s.TicksRun++
		s.LastTickAt = time.Now()
	})

	mentions, err := d.client.Search(ctx, "@"+d.identity.Handle, d.searchLimit, platform.ModeLatest)
	if err != nil {
		return d.finishTick(cur, errs.Fetch(err))
	}

	fresh := reduceMentions(mentions, cur)
	d.logger.Debug().
		Int("fetched", len(mentions)).
		Int("fresh", len(fresh)).
		Str("cursor", cur).
		Msg("tick fetched mentions")

	for _, mention := range fresh {
		d.stats.update(func(s *Stats) { s.MentionsSeen++ })

		if err := d.processMention(ctx, mention); err != nil {
			return d.finishTick(cur, err)
		}
		cur = mention.ID

		// Checkpoint after every candidate so a crash mid-batch re-does at
		// most the remainder. A failed save is survivable: the seen-check
		// still blocks duplicate replies.
		if err := d.cursors.Save(cur); err != nil {
			d.logger.Warn().Err(err).Str("cursor", cur).Msg("cursor checkpoint failed")
		}
	}
	return d.finishTick(cur, nil)
}

// finishTick persists the cursor and folds the tick outcome into stats.
// A persistence failure outranks the tick error: losing the cursor means
// re-processing on restart.
func (d *Driver) finishTick(cur string, tickErr error) (string, error) {
	if err := d.cursors.Save(cur); err != nil {
		tickErr = err
	}
	d.stats.update(func(s *Stats) {
		s.Cursor = cur
		s.LastError = ""
		if tickErr != nil {
			s.LastError = tickErr.Error()
		}
	})
	return cur, tickErr
}

// processMention handles a single mention end to end. A nil return means
// the mention is done and the cursor may move past it.
func (d *Driver) processMention(ctx context.Context, mention models.Interaction) error {
	logger := d.logger.With().Str("interaction_id", mention.ID).Logger()

	if d.identity.IsSelf(mention) {
		d.stats.update(func(s *Stats) { s.SkippedSelf++ })
		logger.Debug().Msg("skipping own post")
		return nil
	}

	roomID := memory.RoomID(mention.ConversationID)
	if err := d.ensureContext(ctx, roomID, mention); err != nil {
		return err
	}

	conversation, err := d.threads.Build(ctx, mention)
	if err != nil {
		return errs.Fetch(err)
	}

	seen, err := d.store.GetMemoryByID(ctx, memory.MemoryID(mention.ID))
	if err != nil {
		return errs.Persistence(err)
	}
	if seen != nil {
		d.stats.update(func(s *Stats) { s.SkippedSeen++ })
		logger.Debug().Msg("already processed, skipping")
		return nil
	}

	state, err := d.store.ComposeState(ctx, roomID, stateMemoryLimit)
	if err != nil {
		return errs.Persistence(err)
	}

	verdict, err := d.gate.Decide(ctx, d.identity, state, conversation)
	if err != nil {
		return err
	}
	logger.Info().Str("decision", verdict.String()).Msg("mention evaluated")

	switch verdict {
	case models.DecisionRespond:
		if err := d.respond(ctx, roomID, state, mention, conversation); err != nil {
			return err
		}
	case models.DecisionStop:
		d.stats.update(func(s *Stats) { s.Stopped++ })
	default:
		d.stats.update(func(s *Stats) { s.Ignored++ })
	}

	return d.markProcessed(ctx, roomID, mention)
}

// respond generates the reply and dispatches it. An empty generation is
// not an error; the mention is simply recorded as processed unanswered.
func (d *Driver) respond(ctx context.Context, roomID, state string, mention models.Interaction, conversation models.ConversationContext) error {
	text, err := d.generator.Generate(ctx, d.identity, state, conversation)
	if err != nil {
		return err
	}
	if text == "" {
		d.stats.update(func(s *Stats) { s.Ignored++ })
		return nil
	}

	units, err := d.dispatcher.Dispatch(ctx, roomID, d.identity.UserID, mention, text)
	if err != nil {
		// The posted prefix of the chain stays up. Swallow the error so
		// the cursor moves past this mention; reposting would duplicate.
		d.stats.update(func(s *Stats) { s.DispatchFails++ })
		d.logger.Error().
			Err(err).
			Str("interaction_id", mention.ID).
			Int("posted_units", len(units)).
			Msg("dispatch failed partway, not retrying")
	}

	if len(units) > 0 {
		if err := d.store.ProcessActions(ctx, roomID, units); err != nil {
			d.logger.Warn().Err(err).Msg("post-dispatch hooks failed")
		}
		d.stats.update(func(s *Stats) { s.Responded++ })
	}
	return nil
}

// ensureContext makes the room, both users and their participation exist
// before any memory row references them.
func (d *Driver) ensureContext(ctx context.Context, roomID string, mention models.Interaction) error {
	if err := d.store.EnsureRoom(ctx, roomID); err != nil {
		return errs.Persistence(err)
	}
	if err := d.store.EnsureUser(ctx, d.identity.UserID, d.identity.Handle, d.identity.Name, "agent"); err != nil {
		return errs.Persistence(err)
	}
	if err := d.store.EnsureUser(ctx, mention.AuthorID, mention.AuthorHandle, mention.AuthorName, "platform"); err != nil {
		return errs.Persistence(err)
	}
	for _, userID := range []string{d.identity.UserID, mention.AuthorID} {
		if err := d.store.EnsureParticipant(ctx, userID, roomID); err != nil {
			return errs.Persistence(err)
		}
	}
	return nil
}

// markProcessed records the mention's interaction memory. Its existence is
// what the seen-check looks for, so it is written last: a mention only
// counts as processed once everything before it succeeded.
func (d *Driver) markProcessed(ctx context.Context, roomID string, mention models.Interaction) error {
	err := d.store.CreateMemory(ctx, models.Memory{
		ID:        memory.MemoryID(mention.ID),
		RoomID:    roomID,
		UserID:    mention.AuthorID,
		Kind:      models.MemoryKindInteraction,
		Text:      mention.Text,
		SourceID:  mention.ID,
		CreatedAt: mention.CreatedAt,
	})
	if err != nil {
		return errs.Persistence(err)
	}
	return nil
}

// reduceMentions deduplicates by id, drops everything at or below the
// cursor and returns the remainder in ascending id order.
func reduceMentions(mentions []models.Interaction, cur string) []models.Interaction {
	seen := make(map[string]bool, len(mentions))
	fresh := make([]models.Interaction, 0, len(mentions))
	for _, m := range mentions {
		if m.ID == "" || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		if cur != "" && m.ID <= cur {
			continue
		}
		fresh = append(fresh, m)
	}
	sort.Slice(fresh, func(i, j int) bool { return fresh[i].ID < fresh[j].ID })
	return fresh
}
