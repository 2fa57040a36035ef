// Package extract - Gemini Provider
// Alternative extraction backend using the GenAI SDK; asks the model for a
// JSON rate table and runs the response through the same scraper.
package extract

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"google.golang.org/genai"

	"ratequote/pkg/models"
)

// GeminiProvider implements Provider over the Gemini API.
type GeminiProvider struct {
	Model string // defaults to gemini-2.0-flash-exp
}

var _ Provider = (*GeminiProvider)(nil)

func (p *GeminiProvider) Name() string { return "gemini" }

// QueryRates prompts the model for current wholesale pricing. Like the
// retrieval client, any malformed answer degrades to an empty slice.
func (p *GeminiProvider) QueryRates(ctx context.Context, params models.LoanParameters) ([]RateTuple, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	model := p.Model
	if model == "" {
		model = "gemini-2.0-flash-exp"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(0.1)),
		ResponseMIMEType: "application/json",
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	start := time.Now()
	result, err := client.Models.GenerateContent(ctx, model, genai.Text(BuildQuery(params)), config)
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}

	tuples := ScrapeRateTuples(result.Text(), params)
	log.Printf("[Extract] gemini returned %d usable tuples in %v", len(tuples), time.Since(start))
	return tuples, nil
}
