// Command pricer prices one borrower scenario against a directory of rate
// sheet files, entirely offline. Useful for checking a new lender sheet
// before uploading it.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"ratequote/pkg/core/pricing"
	"ratequote/pkg/core/ratesheet"
	"ratequote/pkg/core/store"
	"ratequote/pkg/models"
)

func main() {
	godotenv.Load()

	dir := flag.String("dir", ".", "directory of rate sheet files (lender name taken from file name)")
	amount := flag.Float64("amount", 350000, "loan amount")
	value := flag.Float64("value", 500000, "property value")
	term := flag.String("term", "30yr", "loan term (10yr/15yr/20yr/25yr/30yr)")
	loanType := flag.String("type", "conventional", "loan type")
	credit := flag.String("credit", "good", "credit score label or range (e.g. 740-759)")
	purpose := flag.String("purpose", "purchase", "loan purpose (purchase/rt_refi/co_refi)")
	property := flag.String("property", "single_family", "property type")
	state := flag.String("state", "", "borrower state code")
	configPath := flag.String("config", "config/pricing.yaml", "pricing config path")
	flag.Parse()

	cfg, err := pricing.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	repo := store.NewMemoryRateSheetRepo()
	ctx := context.Background()

	entries, err := os.ReadDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read dir: %v\n", err)
		os.Exit(1)
	}
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(*dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skip %s: %v\n", path, err)
			continue
		}
		lender := entry.Name()
		if ext := filepath.Ext(lender); ext != "" {
			lender = lender[:len(lender)-len(ext)]
		}
		repo.Save(ctx, store.StoredRateSheet{
			LenderName: lender,
			FileName:   entry.Name(),
			FileData:   base64.StdEncoding.EncodeToString(data),
			IsActive:   true,
		})
		loaded++
	}
	fmt.Fprintf(os.Stderr, "loaded %d files from %s\n", loaded, *dir)

	params := models.LoanParameters{
		LoanAmount:    *amount,
		PropertyValue: *value,
		LoanTerm:      models.LoanTerm(*term),
		LoanType:      models.LoanType(*loanType),
		CreditScore:   *credit,
		LoanPurpose:   models.LoanPurpose(*purpose),
		PropertyType:  models.PropertyType(*property),
		State:         *state,
	}

	engine := pricing.NewEngine(cfg, repo, ratesheet.NewParser(), nil)
	result, err := engine.CalculateRates(ctx, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pricing: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(result)
}
