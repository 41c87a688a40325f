package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/nam-htran/DomainAIAgent/internal/contextutil"
)

// Result is one reranked document: an index into the input slice and the
// cross-encoder relevance score.
type Result struct {
	Index int     `json:"index"`
	Score float64 `json:"relevance_score"`
}

// Client is a client for a Cohere-compatible rerank API.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	client  *http.Client
}

// NewClient creates a new rerank client.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		client:  http.DefaultClient,
	}
}

// rerankRequest represents the request payload for the rerank API.
type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

// rerankResponse represents the response from the rerank API.
type rerankResponse struct {
	Results []Result `json:"results"`
}

// Rerank scores documents against the query and returns at most topN of
// them, best first, as indices into the input. An empty document list
// returns empty without issuing the HTTP call: reranking is a precision step
// and there is nothing to rank.
func (c *Client) Rerank(ctx context.Context, query string, documents []string, topN int) ([]Result, error) {
	if len(documents) == 0 {
		return []Result{}, nil
	}
	if topN <= 0 || topN > len(documents) {
		topN = len(documents)
	}

	logger := contextutil.LoggerFromContext(ctx)
	url := fmt.Sprintf("%s/v1/rerank", c.BaseURL)

	payload := rerankRequest{
		Model:     c.Model,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var rerankResp rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&rerankResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	for _, result := range rerankResp.Results {
		if result.Index < 0 || result.Index >= len(documents) {
			return nil, fmt.Errorf("rerank result index %d out of range for %d documents", result.Index, len(documents))
		}
	}

	results := rerankResp.Results
	if len(results) > topN {
		results = results[:topN]
	}

	logger.DebugContext(ctx, "rerank completed", "candidates", len(documents), "returned", len(results))
	return results, nil
}
