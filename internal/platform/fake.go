package platform

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bendanzhentan/eliza/pkg/models"
)

// Fake is an in-memory platform used by tests across packages. It serves
// scripted search results, resolves GetByID from a seeded interaction map,
// and assigns sequential ids to posts.
type Fake struct {
	mu sync.Mutex

	// SearchResults is returned by Search as-is (duplicates included).
	SearchResults []models.Interaction
	// SearchErr, when set, fails every Search call.
	SearchErr error
	// PostErr, when set, fails the Nth post (1-based via PostErrAt) or
	// every post when PostErrAt is zero.
	PostErr   error
	PostErrAt int

	byID      map[string]models.Interaction
	posts     []models.Interaction
	postCount int
	nextID    int
}

// NewFake creates an empty fake platform.
func NewFake() *Fake {
	return &Fake{byID: make(map[string]models.Interaction), nextID: 9000}
}

// Seed makes interactions resolvable through GetByID.
func (f *Fake) Seed(interactions ...models.Interaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, in := range interactions {
		f.byID[in.ID] = in
	}
}

// Posts returns everything posted so far, in order.
func (f *Fake) Posts() []models.Interaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Interaction, len(f.posts))
	copy(out, f.posts)
	return out
}

// Search implements Client.
func (f *Fake) Search(ctx context.Context, query string, limit int, mode SearchMode) ([]models.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	results := f.SearchResults
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	out := make([]models.Interaction, len(results))
	copy(out, results)
	return out, nil
}

// GetByID implements Client. Unknown ids resolve to (nil, nil), matching
// how the real client reports deleted interactions.
func (f *Fake) GetByID(ctx context.Context, id string) (*models.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	in, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return &in, nil
}

// Post implements Client.
func (f *Fake) Post(ctx context.Context, text string, inReplyTo string) (*models.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.postCount++
	if f.PostErr != nil && (f.PostErrAt == 0 || f.postCount == f.PostErrAt) {
		return nil, f.PostErr
	}

	f.nextID++
	in := models.Interaction{
		ID:        fmt.Sprintf("%d", f.nextID),
		Text:      text,
		ParentID:  inReplyTo,
		CreatedAt: time.Now(),
	}
	f.posts = append(f.posts, in)
	f.byID[in.ID] = in
	return &in, nil
}
