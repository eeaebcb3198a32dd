package completion

import "context"

// Provider is the language-completion backend the agent consumes. One call,
// one prompt, one text answer; structure is imposed by the prompt, not the
// transport.
type Provider interface {
	// Complete returns the backend's text for the prompt. stop sequences
	// truncate generation when the backend supports them.
	Complete(ctx context.Context, prompt string, stop []string) (string, error)
}
