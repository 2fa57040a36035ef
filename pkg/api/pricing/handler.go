package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	corepricing "ratequote/pkg/core/pricing"
	"ratequote/pkg/core/store"
	"ratequote/pkg/models"
)

var engine *corepricing.Engine
var leadRepo *store.LeadRepo

// InitHandler wires the pricing engine into the HTTP layer. leads may be nil
// when no database is configured; snapshots are then skipped.
func InitHandler(e *corepricing.Engine, leads *store.LeadRepo) {
	engine = e
	leadRepo = leads
}

type PricingRequest struct {
	LeadID string                `json:"lead_id,omitempty"`
	Params models.LoanParameters `json:"params"`
}

// HandleCalculateRates prices a borrower scenario against the active sheets.
func HandleCalculateRates(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req PricingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	log.Printf("[API] pricing request: amount=%.0f term=%s type=%s credit=%q",
		req.Params.LoanAmount, req.Params.LoanTerm, req.Params.LoanType, req.Params.CreditScore)

	result, err := engine.CalculateRates(ctx, req.Params)
	if err != nil {
		http.Error(w, fmt.Sprintf("pricing failed: %v", err), http.StatusBadRequest)
		return
	}

	if req.LeadID != "" && leadRepo != nil {
		if err := leadRepo.SaveQuoteSnapshot(ctx, req.LeadID, req.Params, result); err != nil {
			// Snapshot persistence is best-effort; the borrower still gets
			// their quote.
			log.Printf("[API] failed to save quote snapshot for lead %s: %v", req.LeadID, err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// HandleGetQuoteSnapshot returns the quotes previously shown to a lead.
func HandleGetQuoteSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	leadID := r.URL.Query().Get("lead_id")
	if leadID == "" {
		http.Error(w, "lead_id query parameter required", http.StatusBadRequest)
		return
	}
	if leadRepo == nil {
		http.Error(w, "quote snapshots not available without a database", http.StatusServiceUnavailable)
		return
	}

	params, result, err := leadRepo.LoadQuoteSnapshot(r.Context(), leadID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"params": params,
		"result": result,
	})
}
