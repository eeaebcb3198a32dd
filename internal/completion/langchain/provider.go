package langchain

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider implements the completion interface using langchain abstractions
// over an OpenAI-compatible endpoint. Any backend speaking that dialect
// (OpenAI itself, local gateways, proxies) works by pointing BaseURL at it.
type Provider struct {
	llm         llms.Model
	modelName   string
	temperature float64
	maxTokens   int
}

// Options configures the provider.
type Options struct {
	APIKey      string
	BaseURL     string // empty uses the backend's default endpoint
	Model       string
	Temperature float64
	MaxTokens   int
}

// New creates a langchain-backed completion provider.
func New(opts Options) (*Provider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("completion api key is required")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("completion model is required")
	}

	clientOpts := []openai.Option{
		openai.WithToken(opts.APIKey),
		openai.WithModel(opts.Model),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(opts.BaseURL))
	}

	llm, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create completion client: %w", err)
	}

	return &Provider{
		llm:         llm,
		modelName:   opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
	}, nil
}

// Complete sends one prompt and returns the backend's text.
func (p *Provider) Complete(ctx context.Context, prompt string, stop []string) (string, error) {
	callOpts := []llms.CallOption{
		llms.WithTemperature(p.temperature),
	}
	if p.maxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(p.maxTokens))
	}
	if len(stop) > 0 {
		callOpts = append(callOpts, llms.WithStopWords(stop))
	}

	response, err := llms.GenerateFromSinglePrompt(ctx, p.llm, prompt, callOpts...)
	if err != nil {
		return "", fmt.Errorf("completion request failed (model %s): %w", p.modelName, err)
	}

	return response, nil
}
