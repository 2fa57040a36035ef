// Package extract implements the best-effort fallback extraction of rate
// tuples from a managed document-retrieval service. The pricing core depends
// only on the Provider interface; everything behind it (HTTP scraping, LLM
// prompting, caching) is swappable and degrades to an empty result.
package extract

import (
	"context"

	"ratequote/pkg/models"
)

// RateTuple is one extracted (rate, price) pair. Term/type echo the request
// context; free-text sources rarely differentiate beyond that.
type RateTuple struct {
	Rate     float64         `json:"rate"`
	Price    float64         `json:"price"`
	LoanTerm models.LoanTerm `json:"loan_term"`
	LoanType models.LoanType `json:"loan_type"`
}

// Provider is the narrow interface the pricing engine's fallback chain calls.
// Implementations must treat malformed or empty upstream responses as an
// empty slice, never an error the caller has to special-case.
type Provider interface {
	QueryRates(ctx context.Context, params models.LoanParameters) ([]RateTuple, error)
	Name() string
}
