package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bendanzhentan/eliza/pkg/models"
)

// MemStore is an in-memory Store for tests and for running the agent
// without Postgres. Nothing survives a restart.
type MemStore struct {
	mu           sync.Mutex
	rooms        map[string]bool
	users        map[string]bool
	participants map[string]bool
	memories     map[string]models.Memory
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		rooms:        make(map[string]bool),
		users:        make(map[string]bool),
		participants: make(map[string]bool),
		memories:     make(map[string]models.Memory),
	}
}

// EnsureRoom implements Store.
func (s *MemStore) EnsureRoom(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[roomID] = true
	return nil
}

// EnsureUser implements Store.
func (s *MemStore) EnsureUser(ctx context.Context, userID, handle, displayName, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = true
	return nil
}

// EnsureParticipant implements Store.
func (s *MemStore) EnsureParticipant(ctx context.Context, userID, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[userID+"/"+roomID] = true
	return nil
}

// GetMemoryByID implements Store.
func (s *MemStore) GetMemoryByID(ctx context.Context, id string) (*models.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memories[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

// CreateMemory implements Store. Existing ids are left untouched.
func (s *MemStore) CreateMemory(ctx context.Context, m models.Memory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.memories[m.ID]; exists {
		return nil
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	s.memories[m.ID] = m
	return nil
}

// ComposeState implements Store.
func (s *MemStore) ComposeState(ctx context.Context, roomID string, limit int) (string, error) {
	if limit <= 0 {
		limit = 20
	}

	s.mu.Lock()
	var inRoom []models.Memory
	for _, m := range s.memories {
		if m.RoomID == roomID {
			inRoom = append(inRoom, m)
		}
	}
	s.mu.Unlock()

	sort.Slice(inRoom, func(i, j int) bool { return inRoom[i].CreatedAt.Before(inRoom[j].CreatedAt) })
	if len(inRoom) > limit {
		inRoom = inRoom[len(inRoom)-limit:]
	}

	var lines []string
	for _, m := range inRoom {
		lines = append(lines, fmt.Sprintf("[%s] %s", m.Kind, m.Text))
	}
	return strings.Join(lines, "\n"), nil
}

// ProcessActions implements Store.
func (s *MemStore) ProcessActions(ctx context.Context, roomID string, units []models.ResponseUnit) error {
	if len(units) == 0 {
		return nil
	}

	ids := make([]string, len(units))
	for i, u := range units {
		ids[i] = u.InteractionID
	}

	return s.CreateMemory(ctx, models.Memory{
		ID:       MemoryID("evaluation:" + units[0].InteractionID),
		RoomID:   roomID,
		Kind:     models.MemoryKindEvaluation,
		Text:     fmt.Sprintf("dispatched %d response unit(s): %s", len(units), strings.Join(ids, ", ")),
		SourceID: units[0].InteractionID,
	})
}

// MemoryCount reports how many memories are stored, for test assertions.
func (s *MemStore) MemoryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.memories)
}
