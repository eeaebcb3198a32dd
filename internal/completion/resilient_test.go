package completion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bendanzhentan/eliza/internal/retry"
)

// flakyProvider fails with a retryable error until failures are used up.
type flakyProvider struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (p *flakyProvider) Complete(ctx context.Context, prompt string, stop []string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failures {
		return "", errors.New("503 service unavailable")
	}
	return "recovered", nil
}

func fastRetry() retry.Config {
	return retry.Config{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Multiplier: 2.0,
		Jitter:     false,
	}
}

func TestResilient_SuccessFirstAttempt(t *testing.T) {
	fake := &Fake{Responses: []string{"RESPOND"}}
	client := NewResilient(fake, fastRetry(), time.Second, zerolog.Nop())

	response, err := client.Complete(context.Background(), "decide", nil)
	require.NoError(t, err)
	assert.Equal(t, "RESPOND", response)
	assert.Equal(t, 1, fake.Calls())
}

func TestResilient_RecoversAfterTransientFailures(t *testing.T) {
	provider := &flakyProvider{failures: 2}
	client := NewResilient(provider, fastRetry(), time.Second, zerolog.Nop())

	response, err := client.Complete(context.Background(), "decide", nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered", response)
	assert.Equal(t, 3, provider.calls)
}

func TestResilient_ExhaustsRetries(t *testing.T) {
	provider := &flakyProvider{failures: 10}
	client := NewResilient(provider, fastRetry(), time.Second, zerolog.Nop())

	_, err := client.Complete(context.Background(), "decide", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	// MaxRetries=2 means three attempts total.
	assert.Equal(t, 3, provider.calls)
}

func TestResilient_NonRetryableFailsFast(t *testing.T) {
	fake := &Fake{Err: errors.New("invalid api key")}
	client := NewResilient(fake, fastRetry(), time.Second, zerolog.Nop())

	_, err := client.Complete(context.Background(), "decide", nil)
	require.Error(t, err)
	assert.Equal(t, 1, fake.Calls())
}

func TestResilient_Timeout(t *testing.T) {
	slow := providerFunc(func(ctx context.Context, prompt string, stop []string) (string, error) {
		select {
		case <-time.After(time.Second):
			return "too late", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	client := NewResilient(slow, fastRetry(), 10*time.Millisecond, zerolog.Nop())

	_, err := client.Complete(context.Background(), "decide", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// providerFunc adapts a function to the Provider interface.
type providerFunc func(ctx context.Context, prompt string, stop []string) (string, error)

func (f providerFunc) Complete(ctx context.Context, prompt string, stop []string) (string, error) {
	return f(ctx, prompt, stop)
}
