package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"ratequote/pkg/models"
)

// LeadRepo persists quote snapshots keyed by lead, so a returning borrower
// sees the numbers they were originally shown even after sheets rotate.
type LeadRepo struct{}

// NewLeadRepo creates a new repository instance.
func NewLeadRepo() *LeadRepo {
	return &LeadRepo{}
}

// SaveQuoteSnapshot persists the pricing result for a lead.
// It uses an upsert strategy based on lead ID.
func (r *LeadRepo) SaveQuoteSnapshot(ctx context.Context, leadID string, params models.LoanParameters, result *models.PricingResult) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	// Prepare data for JSONB column
	data := struct {
		Params models.LoanParameters `json:"params"`
		Result *models.PricingResult `json:"result"`
	}{
		Params: params,
		Result: result,
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal quote snapshot: %w", err)
	}

	// Schema assumption (managed by migrations elsewhere):
	// CREATE TABLE IF NOT EXISTS lead_quotes (
	//   lead_id TEXT PRIMARY KEY,
	//   quote_json JSONB,
	//   updated_at TIMESTAMPTZ
	// );

	query := `
		INSERT INTO lead_quotes (lead_id, quote_json, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (lead_id)
		DO UPDATE SET
			quote_json = EXCLUDED.quote_json,
			updated_at = EXCLUDED.updated_at;
	`

	_, err = pool.Exec(ctx, query, leadID, jsonData, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save quote snapshot: %w", err)
	}

	return nil
}

// LoadQuoteSnapshot retrieves the saved scenario and quotes for a lead.
func (r *LeadRepo) LoadQuoteSnapshot(ctx context.Context, leadID string) (models.LoanParameters, *models.PricingResult, error) {
	pool := GetPool()
	if pool == nil {
		return models.LoanParameters{}, nil, fmt.Errorf("database pool not initialized")
	}

	query := `SELECT quote_json FROM lead_quotes WHERE lead_id = $1`

	var jsonData []byte
	err := pool.QueryRow(ctx, query, leadID).Scan(&jsonData)
	if err != nil {
		if err == pgx.ErrNoRows {
			return models.LoanParameters{}, nil, fmt.Errorf("no quote snapshot found for lead %s", leadID)
		}
		return models.LoanParameters{}, nil, fmt.Errorf("failed to load quote snapshot: %w", err)
	}

	var data struct {
		Params models.LoanParameters `json:"params"`
		Result *models.PricingResult `json:"result"`
	}

	if err := json.Unmarshal(jsonData, &data); err != nil {
		return models.LoanParameters{}, nil, fmt.Errorf("failed to unmarshal quote snapshot: %w", err)
	}

	return data.Params, data.Result, nil
}
