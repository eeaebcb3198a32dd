package thread

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bendanzhentan/eliza/internal/platform"
	"github.com/bendanzhentan/eliza/pkg/models"
)

func TestBuild_RootFirstOrder(t *testing.T) {
	fake := platform.NewFake()
	fake.Seed(
		models.Interaction{ID: "1", Text: "root"},
		models.Interaction{ID: "2", Text: "middle", ParentID: "1"},
	)
	r := NewReconstructor(fake, 0, zerolog.Nop())

	chain, err := r.Build(context.Background(), models.Interaction{ID: "3", Text: "leaf", ParentID: "2"})
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, "1", chain[0].ID)
	assert.Equal(t, "2", chain[1].ID)
	assert.Equal(t, "3", chain[2].ID)
}

func TestBuild_NoParent(t *testing.T) {
	r := NewReconstructor(platform.NewFake(), 0, zerolog.Nop())

	chain, err := r.Build(context.Background(), models.Interaction{ID: "1", Text: "standalone"})
	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, "1", chain[0].ID)
}

func TestBuild_TruncatesOnDeletedAncestor(t *testing.T) {
	fake := platform.NewFake()
	// "2" exists but its parent "1" was deleted.
	fake.Seed(models.Interaction{ID: "2", Text: "middle", ParentID: "1"})
	r := NewReconstructor(fake, 0, zerolog.Nop())

	chain, err := r.Build(context.Background(), models.Interaction{ID: "3", ParentID: "2"})
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, "2", chain[0].ID)
	assert.Equal(t, "3", chain[1].ID)
}

func TestBuild_RespectsMaxDepth(t *testing.T) {
	fake := platform.NewFake()
	fake.Seed(
		models.Interaction{ID: "1"},
		models.Interaction{ID: "2", ParentID: "1"},
		models.Interaction{ID: "3", ParentID: "2"},
		models.Interaction{ID: "4", ParentID: "3"},
	)
	r := NewReconstructor(fake, 2, zerolog.Nop())

	chain, err := r.Build(context.Background(), models.Interaction{ID: "5", ParentID: "4"})
	require.NoError(t, err)
	// Two ancestors fetched plus the starting interaction.
	require.Len(t, chain, 3)
	assert.Equal(t, "3", chain[0].ID)
	assert.Equal(t, "5", chain[2].ID)
}
