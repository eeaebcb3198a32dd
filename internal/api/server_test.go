package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bendanzhentan/eliza/internal/completion"
	"github.com/bendanzhentan/eliza/internal/cursor"
	"github.com/bendanzhentan/eliza/internal/decision"
	"github.com/bendanzhentan/eliza/internal/dispatch"
	"github.com/bendanzhentan/eliza/internal/generator"
	"github.com/bendanzhentan/eliza/internal/loop"
	"github.com/bendanzhentan/eliza/internal/memory"
	"github.com/bendanzhentan/eliza/internal/platform"
	"github.com/bendanzhentan/eliza/internal/thread"
	"github.com/bendanzhentan/eliza/pkg/models"
)

func testDriver(t *testing.T) *loop.Driver {
	t.Helper()
	fake := platform.NewFake()
	store := memory.NewMemStore()
	llm := &completion.Fake{}
	logger := zerolog.Nop()
	return loop.NewDriver(
		fake,
		store,
		cursor.NewFileStore(filepath.Join(t.TempDir(), "cursor")),
		thread.NewReconstructor(fake, 0, logger),
		decision.NewGate(llm, logger),
		generator.New(llm, logger),
		dispatch.NewDispatcher(fake, store, 280, false, logger),
		models.AgentIdentity{UserID: "u-eliza", Handle: "eliza"},
		20,
		logger,
	)
}

func TestHealthz(t *testing.T) {
	server := NewServer("127.0.0.1:0", testDriver(t), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestStatus(t *testing.T) {
	server := NewServer("127.0.0.1:0", testDriver(t), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(0), body.Stats.TicksRun)
	assert.False(t, body.Now.IsZero())
}
