package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/bendanzhentan/eliza/pkg/models"
)

// Store is the agent's durable memory collaborator. Every method is
// idempotent: ensure-style calls create the row only when it is missing,
// and CreateMemory is a no-op for an id that already exists.
type Store interface {
	EnsureRoom(ctx context.Context, roomID string) error
	EnsureUser(ctx context.Context, userID, handle, displayName, source string) error
	EnsureParticipant(ctx context.Context, userID, roomID string) error

	// GetMemoryByID returns nil when no memory with that id exists.
	GetMemoryByID(ctx context.Context, id string) (*models.Memory, error)
	CreateMemory(ctx context.Context, m models.Memory) error

	// ComposeState renders recent room memories into a context blob for
	// prompting. limit bounds how many memories are considered.
	ComposeState(ctx context.Context, roomID string, limit int) (string, error)

	// ProcessActions runs post-dispatch hooks over the units that were
	// actually posted, recording evaluation rows for later inspection.
	ProcessActions(ctx context.Context, roomID string, units []models.ResponseUnit) error
}

// memoryNamespace scopes deterministic memory ids to this application.
var memoryNamespace = uuid.MustParse("8f3b6f0a-22d1-4b2e-9c8e-5a1d0e7b4c3f")

// MemoryID derives the deterministic memory id for a platform source id.
// The same interaction or response unit always maps to the same id, which
// is what makes record creation and the exists-check idempotent.
func MemoryID(sourceID string) string {
	return uuid.NewSHA1(memoryNamespace, []byte(sourceID)).String()
}

// RoomID derives the deterministic room id for a platform conversation.
func RoomID(conversationID string) string {
	return uuid.NewSHA1(memoryNamespace, []byte("room:"+conversationID)).String()
}
