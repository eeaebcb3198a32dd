package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/bendanzhentan/eliza/pkg/models"
)

// HTTPClient talks to the platform's REST API directly. A client-side rate
// limiter spaces out requests; rate-limit negotiation beyond that is the
// platform operator's problem, not ours.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPClient creates a platform client for the given API root.
// requestsPerSecond bounds outgoing calls; values <= 0 disable the limiter.
func NewHTTPClient(baseURL, token string, requestsPerSecond float64) *HTTPClient {
	// Make sure baseURL doesn't end with a slash
	for len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}

	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// wireInteraction is the platform's JSON shape for a single interaction.
type wireInteraction struct {
	ID             string `json:"id"`
	Text           string `json:"text"`
	ConversationID string `json:"conversation_id"`
	InReplyToID    string `json:"in_reply_to_id,omitempty"`
	URL            string `json:"url,omitempty"`
	CreatedAt      string `json:"created_at"`
	Author         struct {
		ID     string `json:"id"`
		Handle string `json:"handle"`
		Name   string `json:"name"`
	} `json:"author"`
}

func (w wireInteraction) toModel() models.Interaction {
	createdAt, _ := time.Parse(time.RFC3339, w.CreatedAt)
	return models.Interaction{
		ID:             w.ID,
		AuthorID:       w.Author.ID,
		AuthorHandle:   w.Author.Handle,
		AuthorName:     w.Author.Name,
		Text:           w.Text,
		ConversationID: w.ConversationID,
		ParentID:       w.InReplyToID,
		URL:            w.URL,
		CreatedAt:      createdAt,
	}
}

// Search queries the platform for interactions matching query.
func (c *HTTPClient) Search(ctx context.Context, query string, limit int, mode SearchMode) ([]models.Interaction, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("mode", string(mode))

	var result struct {
		Interactions []wireInteraction `json:"interactions"`
	}
	if err := c.do(ctx, http.MethodGet, "/2/search?"+params.Encode(), nil, &result); err != nil {
		return nil, err
	}

	interactions := make([]models.Interaction, 0, len(result.Interactions))
	for _, w := range result.Interactions {
		interactions = append(interactions, w.toModel())
	}
	return interactions, nil
}

// GetByID fetches one interaction. Deleted or missing interactions come
// back as (nil, nil) so thread reconstruction can truncate instead of fail.
func (c *HTTPClient) GetByID(ctx context.Context, id string) (*models.Interaction, error) {
	var w wireInteraction
	err := c.do(ctx, http.MethodGet, "/2/interactions/"+url.PathEscape(id), nil, &w)
	if err != nil {
		var apiErr *apiError
		if asAPIError(err, &apiErr) && apiErr.status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	interaction := w.toModel()
	return &interaction, nil
}

// Post publishes text, threading it under inReplyTo when given.
func (c *HTTPClient) Post(ctx context.Context, text string, inReplyTo string) (*models.Interaction, error) {
	payload := map[string]string{"text": text}
	if inReplyTo != "" {
		payload["in_reply_to_id"] = inReplyTo
	}

	var w wireInteraction
	if err := c.do(ctx, http.MethodPost, "/2/interactions", payload, &w); err != nil {
		return nil, err
	}

	interaction := w.toModel()
	return &interaction, nil
}

// apiError carries the HTTP status so callers can distinguish absence from failure.
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.status, e.body)
}

func asAPIError(err error, target **apiError) bool {
	e, ok := err.(*apiError)
	if ok {
		*target = e
	}
	return ok
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &apiError{status: resp.StatusCode, body: string(respBody)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
