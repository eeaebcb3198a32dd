package memory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/bendanzhentan/eliza/pkg/models"
)

// PostgresStore persists agent memory in Postgres.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and verifies it.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an existing connection, mainly for tests.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the memory tables when they are missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS rooms (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			handle TEXT NOT NULL DEFAULT '',
			display_name TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS participants (
			user_id TEXT NOT NULL REFERENCES users(id),
			room_id TEXT NOT NULL REFERENCES rooms(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, room_id)
		);
		CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			text TEXT NOT NULL,
			source_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_memories_room_created ON memories (room_id, created_at DESC);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure memory schema: %w", err)
	}
	return nil
}

// EnsureRoom creates the room row if it does not exist yet.
func (s *PostgresStore) EnsureRoom(ctx context.Context, roomID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rooms (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, roomID)
	if err != nil {
		return fmt.Errorf("failed to ensure room %s: %w", roomID, err)
	}
	return nil
}

// EnsureUser creates the user row if it does not exist yet.
func (s *PostgresStore) EnsureUser(ctx context.Context, userID, handle, displayName, source string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, handle, display_name, source)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`, userID, handle, displayName, source)
	if err != nil {
		return fmt.Errorf("failed to ensure user %s: %w", userID, err)
	}
	return nil
}

// EnsureParticipant links a user to a room if the link is missing.
func (s *PostgresStore) EnsureParticipant(ctx context.Context, userID, roomID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO participants (user_id, room_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, room_id) DO NOTHING
	`, userID, roomID)
	if err != nil {
		return fmt.Errorf("failed to ensure participant %s in %s: %w", userID, roomID, err)
	}
	return nil
}

// GetMemoryByID fetches one memory; absence is (nil, nil).
func (s *PostgresStore) GetMemoryByID(ctx context.Context, id string) (*models.Memory, error) {
	query := `
		SELECT id, room_id, user_id, kind, text, source_id, created_at
		FROM memories WHERE id = $1
	`

	var m models.Memory
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.RoomID, &m.UserID, &m.Kind, &m.Text, &m.SourceID, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get memory %s: %w", id, err)
	}
	return &m, nil
}

// CreateMemory inserts the memory unless its id already exists.
func (s *PostgresStore) CreateMemory(ctx context.Context, m models.Memory) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memories (id, room_id, user_id, kind, text, source_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`, m.ID, m.RoomID, m.UserID, m.Kind, m.Text, m.SourceID, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create memory %s: %w", m.ID, err)
	}
	return nil
}

// ComposeState renders the newest room memories, oldest first, as a plain
// text blob for prompting.
func (s *PostgresStore) ComposeState(ctx context.Context, roomID string, limit int) (string, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, text FROM memories
		WHERE room_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, roomID, limit)
	if err != nil {
		return "", fmt.Errorf("failed to compose state for room %s: %w", roomID, err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var kind, text string
		if err := rows.Scan(&kind, &text); err != nil {
			return "", fmt.Errorf("failed to scan memory row: %w", err)
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", kind, text))
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to iterate memory rows: %w", err)
	}

	// Newest-last reads more naturally in a prompt.
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return strings.Join(lines, "\n"), nil
}

// ProcessActions records an evaluation row summarizing the dispatched units.
func (s *PostgresStore) ProcessActions(ctx context.Context, roomID string, units []models.ResponseUnit) error {
	if len(units) == 0 {
		return nil
	}

	ids := make([]string, len(units))
	for i, u := range units {
		ids[i] = u.InteractionID
	}

	m := models.Memory{
		ID:        MemoryID("evaluation:" + units[0].InteractionID),
		RoomID:    roomID,
		Kind:      models.MemoryKindEvaluation,
		Text:      fmt.Sprintf("dispatched %d response unit(s): %s", len(units), strings.Join(ids, ", ")),
		SourceID:  units[0].InteractionID,
		CreatedAt: time.Now(),
	}
	return s.CreateMemory(ctx, m)
}
