package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	apipricing "ratequote/pkg/api/pricing"
	apiratesheet "ratequote/pkg/api/ratesheet"
	"ratequote/pkg/core/extract"
	"ratequote/pkg/core/pricing"
	"ratequote/pkg/core/ratesheet"
	"ratequote/pkg/core/store"
)

func main() {
	// Load environment variables
	godotenv.Load()

	cfg, err := pricing.LoadConfig("config/pricing.yaml")
	if err != nil {
		fmt.Printf("[WARNING] Failed to load pricing config: %v\n", err)
		fmt.Println("  Falling back to defaults")
	}

	// Storage: Postgres when configured, in-memory otherwise (local dev).
	var repo store.RateSheetRepository
	var leadRepo *store.LeadRepo
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(context.Background()); err != nil {
			fmt.Printf("[FATAL] Database init failed: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		repo = store.NewPGRateSheetRepo()
		leadRepo = store.NewLeadRepo()
		fmt.Println("[STORE] Using Postgres rate sheet repository")
	} else {
		repo = store.NewMemoryRateSheetRepo()
		fmt.Println("[STORE] DATABASE_URL not set, using in-memory repository")
	}

	// Layout registry persisted next to the config so admins can add lender
	// layouts without a rebuild.
	parser := ratesheet.NewParserWithRegistry(ratesheet.NewLayoutRegistry("config/layouts.json"))

	// Extraction fallback: retrieval service first, Gemini as the alternate
	// backend, nothing when neither is configured.
	var extractor extract.Provider
	cache := extract.NewResponseCache(os.Getenv("REDIS_ADDR"))
	if client := extract.NewRetrievalClient(cache); client != nil {
		extractor = client
		fmt.Println("[EXTRACT] Using managed retrieval fallback")
	} else if os.Getenv("GEMINI_API_KEY") != "" {
		extractor = &extract.GeminiProvider{}
		fmt.Println("[EXTRACT] Using Gemini extraction fallback")
	} else {
		fmt.Println("[EXTRACT] No extraction credentials, fallback chain ends at mock quotes")
	}

	engine := pricing.NewEngine(cfg, repo, parser, extractor)

	// Pricing endpoints
	apipricing.InitHandler(engine, leadRepo)
	http.HandleFunc("/api/pricing/calculate", apipricing.HandleCalculateRates)
	http.HandleFunc("/api/pricing/snapshot", apipricing.HandleGetQuoteSnapshot)

	// Rate sheet administration endpoints
	apiratesheet.InitHandler(repo, parser)
	http.HandleFunc("/api/ratesheets/upload", apiratesheet.HandleUpload)
	http.HandleFunc("/api/ratesheets", apiratesheet.HandleList)
	http.HandleFunc("/api/ratesheets/toggle", apiratesheet.HandleToggle)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Printf("API server starting on :%s...\n", port)
	fmt.Println("  - POST /api/pricing/calculate")
	fmt.Println("  - GET  /api/pricing/snapshot?lead_id=...")
	fmt.Println("  - POST /api/ratesheets/upload")
	fmt.Println("  - GET  /api/ratesheets")
	fmt.Println("  - POST /api/ratesheets/toggle")

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
