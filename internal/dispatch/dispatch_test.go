package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bendanzhentan/eliza/internal/errs"
	"github.com/bendanzhentan/eliza/internal/memory"
	"github.com/bendanzhentan/eliza/internal/platform"
	"github.com/bendanzhentan/eliza/pkg/models"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"empty", "  ", 280, nil},
		{"fits", "short reply", 280, []string{"short reply"}},
		{"no limit", strings.Repeat("x", 500), 0, []string{strings.Repeat("x", 500)}},
		{
			"paragraph boundary",
			"First paragraph here.\n\nSecond paragraph here.",
			25,
			[]string{"First paragraph here.", "Second paragraph here."},
		},
		{
			"sentence boundary",
			"One sentence here. Another sentence there. And a third one.",
			45,
			[]string{"One sentence here. Another sentence there.", "And a third one."},
		},
		{
			"word boundary",
			"alpha beta gamma delta",
			11,
			[]string{"alpha beta", "gamma delta"},
		},
		{
			"oversized word is cut",
			"see " + strings.Repeat("a", 12),
			10,
			[]string{"see", strings.Repeat("a", 10), "aa"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Split(tc.text, tc.limit)
			assert.Equal(t, tc.want, got)
			for _, chunk := range got {
				if tc.limit > 0 {
					assert.LessOrEqual(t, len(chunk), tc.limit)
				}
			}
		})
	}
}

func TestDispatch_SingleChunk(t *testing.T) {
	fake := platform.NewFake()
	store := memory.NewMemStore()
	d := NewDispatcher(fake, store, 280, false, zerolog.Nop())

	mention := models.Interaction{ID: "100", ConversationID: "c1"}
	units, err := d.Dispatch(context.Background(), memory.RoomID("c1"), "u-eliza", mention, "a short reply")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "100", units[0].InReplyTo)
	assert.NotEmpty(t, units[0].InteractionID)

	posts := fake.Posts()
	require.Len(t, posts, 1)
	assert.Equal(t, "a short reply", posts[0].Text)
	assert.Equal(t, 1, store.MemoryCount())
}

func TestDispatch_ChainsChunks(t *testing.T) {
	fake := platform.NewFake()
	store := memory.NewMemStore()
	d := NewDispatcher(fake, store, 25, false, zerolog.Nop())

	mention := models.Interaction{ID: "100", ConversationID: "c1"}
	text := "First sentence is here. Second sentence is here. Third sentence is here."
	units, err := d.Dispatch(context.Background(), memory.RoomID("c1"), "u-eliza", mention, text)
	require.NoError(t, err)
	require.Len(t, units, 3)

	// The first chunk replies to the mention; each later chunk replies to
	// the previously posted chunk.
	assert.Equal(t, "100", units[0].InReplyTo)
	assert.Equal(t, units[0].InteractionID, units[1].InReplyTo)
	assert.Equal(t, units[1].InteractionID, units[2].InReplyTo)
	assert.Equal(t, 3, store.MemoryCount())
}

func TestDispatch_PartialFailureKeepsPostedUnits(t *testing.T) {
	fake := platform.NewFake()
	fake.PostErr = errors.New("500 internal error")
	fake.PostErrAt = 2
	store := memory.NewMemStore()
	d := NewDispatcher(fake, store, 25, false, zerolog.Nop())

	mention := models.Interaction{ID: "100", ConversationID: "c1"}
	text := "First sentence is here. Second sentence is here. Third sentence is here."
	units, err := d.Dispatch(context.Background(), memory.RoomID("c1"), "u-eliza", mention, text)
	require.Error(t, err)
	assert.Equal(t, errs.KindDispatch, errs.KindOf(err))

	// The first chunk made it out and stays recorded.
	require.Len(t, units, 1)
	assert.Equal(t, "100", units[0].InReplyTo)
	assert.Len(t, fake.Posts(), 1)
	assert.Equal(t, 1, store.MemoryCount())
}

func TestDispatch_EmptyText(t *testing.T) {
	fake := platform.NewFake()
	d := NewDispatcher(fake, memory.NewMemStore(), 280, false, zerolog.Nop())

	units, err := d.Dispatch(context.Background(), memory.RoomID("c1"), "u-eliza", models.Interaction{ID: "100"}, "   ")
	require.NoError(t, err)
	assert.Empty(t, units)
	assert.Empty(t, fake.Posts())
}

func TestDispatch_DryRun(t *testing.T) {
	fake := platform.NewFake()
	store := memory.NewMemStore()
	d := NewDispatcher(fake, store, 280, true, zerolog.Nop())

	units, err := d.Dispatch(context.Background(), memory.RoomID("c1"), "u-eliza", models.Interaction{ID: "100"}, "would have posted")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Empty(t, units[0].InteractionID)
	assert.Empty(t, fake.Posts())
	assert.Equal(t, 0, store.MemoryCount())
}
