// Package extract - Managed Retrieval Client
// Queries a hosted document-retrieval API with a natural-language prompt and
// scrapes rate tuples out of whatever comes back.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"ratequote/pkg/models"
)

// requestTimeout bounds the upstream call; a timeout is treated exactly like
// an API failure (the caller falls through its fallback chain).
const requestTimeout = 10 * time.Second

const defaultRetrievalURL = "https://api.cloud.llamaindex.ai/api/v1/query"

// RetrievalClient implements Provider against a managed retrieval service.
type RetrievalClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *ResponseCache // optional; nil disables caching
}

// NewRetrievalClient builds a client from the environment. Returns nil when
// no credential is configured so callers can treat the fallback as absent.
func NewRetrievalClient(cache *ResponseCache) *RetrievalClient {
	apiKey := os.Getenv("RETRIEVAL_API_KEY")
	if apiKey == "" {
		return nil
	}
	baseURL := os.Getenv("RETRIEVAL_API_URL")
	if baseURL == "" {
		baseURL = defaultRetrievalURL
	}
	return &RetrievalClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		cache:      cache,
	}
}

func (c *RetrievalClient) Name() string { return "retrieval" }

// QueryRates asks the retrieval service for current wholesale pricing and
// scrapes tuples out of the free-text answer. Any malformed response yields
// an empty slice.
func (c *RetrievalClient) QueryRates(ctx context.Context, params models.LoanParameters) ([]RateTuple, error) {
	if cached, ok := c.cache.Get(ctx, params); ok {
		log.Printf("[Extract] cache hit for %s/%s", params.LoanTerm, params.LoanType)
		return ScrapeRateTuples(cached, params), nil
	}

	payload := struct {
		Query string `json:"query"`
	}{Query: BuildQuery(params)}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal retrieval request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build retrieval request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("retrieval request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("retrieval service returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read retrieval response: %w", err)
	}

	answer := extractAnswerText(raw)
	c.cache.Set(ctx, params, answer)

	tuples := ScrapeRateTuples(answer, params)
	log.Printf("[Extract] retrieval returned %d usable tuples", len(tuples))
	return tuples, nil
}

// extractAnswerText digs the answer string out of the service's untyped JSON
// envelope; when the body isn't JSON at all, the raw text is scraped as-is.
func extractAnswerText(raw []byte) string {
	var envelope map[string]interface{}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return string(raw)
	}
	for _, key := range []string{"answer", "response", "text", "result"} {
		if s, ok := envelope[key].(string); ok && s != "" {
			return s
		}
	}
	return string(raw)
}

// BuildQuery renders the natural-language prompt for a borrower scenario.
func BuildQuery(params models.LoanParameters) string {
	return fmt.Sprintf(
		"List current wholesale mortgage rates and prices for a %s %s loan, "+
			"loan amount $%.0f, LTV %.1f%%, credit score %s, %s. "+
			"Return JSON: [{\"rate\": 6.125, \"price\": 100.1}, ...]",
		params.LoanTerm, params.LoanType, params.LoanAmount, params.LTV(),
		params.CreditScore, params.LoanPurpose)
}
