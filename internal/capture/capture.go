package capture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	sessionID  = time.Now().Format("20060102-150405")
	captureSeq uint64
)

// defaultEnabled controls whether transcript capture is active when the
// process starts. Flip this to true (or call Enable) to record prompt and
// response artifacts for every tick.
const defaultEnabled = false

var captureEnabled atomic.Bool

func init() {
	captureEnabled.Store(defaultEnabled)
}

// envCaptureDir is the environment variable that controls transcript output.
const envCaptureDir = "ELIZA_CAPTURE_DIR"

// defaultCaptureDir is the fallback location when the environment variable is unset.
const defaultCaptureDir = "transcripts"

// Enabled reports whether transcript capture is currently active.
func Enabled() bool {
	return captureEnabled.Load()
}

// Enable globally turns on transcript capture for the running process.
func Enable() {
	captureEnabled.Store(true)
}

// Disable globally turns off transcript capture for the running process.
func Disable() {
	captureEnabled.Store(false)
}

func captureDir() string {
	if dir := os.Getenv(envCaptureDir); dir != "" {
		return dir
	}
	return defaultCaptureDir
}

// writeFile writes the provided bytes to the transcript directory under the
// given category and extension. It creates any missing directories and logs
// failures; a failed write never surfaces to the pipeline.
func writeFile(category, ext string, data []byte) {
	seq := atomic.AddUint64(&captureSeq, 1)
	sessionDir := filepath.Join(captureDir(), sessionID)
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", sessionDir).Msg("capture: failed to create directory")
		return
	}

	filename := fmt.Sprintf("%s-%04d.%s", category, seq, ext)
	path := filepath.Join(sessionDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("capture: failed to write file")
		return
	}

	log.Debug().Str("path", path).Msg("capture: wrote transcript")
}

// WriteJSON marshals the payload to indented JSON and stores it in the
// transcript directory. Failures are logged but otherwise ignored.
func WriteJSON(category string, payload interface{}) {
	if !Enabled() {
		return
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Warn().Err(err).Str("category", category).Msg("capture: failed to marshal payload")
		return
	}

	writeFile(category, "json", data)
}

// WriteText stores a raw prompt or completion as a text artifact.
func WriteText(category, text string) {
	if !Enabled() {
		return
	}
	writeFile(category, "txt", []byte(text))
}
