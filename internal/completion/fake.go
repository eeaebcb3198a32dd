package completion

import (
	"context"
	"sync"
)

// Fake is a scripted Provider shared by tests across packages. Responses
// are consumed in order; when the script runs out the last entry repeats.
type Fake struct {
	mu        sync.Mutex
	Responses []string
	// Err, when set, fails every call.
	Err error

	Prompts []string
	calls   int
}

// Complete implements Provider.
func (f *Fake) Complete(ctx context.Context, prompt string, stop []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Prompts = append(f.Prompts, prompt)
	f.calls++
	if f.Err != nil {
		return "", f.Err
	}

	if len(f.Responses) == 0 {
		return "", nil
	}

	idx := f.calls - 1
	if idx >= len(f.Responses) {
		idx = len(f.Responses) - 1
	}
	return f.Responses[idx], nil
}

// Calls reports how many completions were requested.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
