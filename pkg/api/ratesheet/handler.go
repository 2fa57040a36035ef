package ratesheet

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	coreratesheet "ratequote/pkg/core/ratesheet"
	"ratequote/pkg/core/store"
)

var repo store.RateSheetRepository
var parser *coreratesheet.Parser

// InitHandler wires the upload endpoints to a repository and parser.
func InitHandler(r store.RateSheetRepository, p *coreratesheet.Parser) {
	repo = r
	parser = p
}

type UploadRequest struct {
	LenderName string `json:"lender_name"`
	FileName   string `json:"file_name"`
	FileData   string `json:"file_data"` // base64
}

type UploadResponse struct {
	ID         string `json:"id"`
	LenderName string `json:"lender_name"`
	RateCount  int    `json:"rate_count"`
	GridCount  int    `json:"grid_count"`
	ParseError string `json:"parse_error,omitempty"`
}

// HandleUpload stores a rate sheet and reports a parse preview. A sheet that
// fails to parse is still stored (inactive) so the layout can be fixed and
// the file reactivated without re-uploading.
func HandleUpload(w http.ResponseWriter, r *http.Request) {
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

	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.LenderName == "" || req.FileName == "" || req.FileData == "" {
		http.Error(w, "lender_name, file_name and file_data are required", http.StatusBadRequest)
		return
	}

	fileBytes, err := base64.StdEncoding.DecodeString(req.FileData)
	if err != nil {
		http.Error(w, fmt.Sprintf("file_data is not valid base64: %v", err), http.StatusBadRequest)
		return
	}

	parsed := parser.ParseRateSheet(fileBytes, req.FileName, req.LenderName)

	sheet, err := repo.Save(r.Context(), store.StoredRateSheet{
		LenderName: req.LenderName,
		FileName:   req.FileName,
		FileData:   req.FileData,
		IsActive:   parsed.ParseSuccess,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to store rate sheet: %v", err), http.StatusInternalServerError)
		return
	}

	log.Printf("[API] uploaded sheet %q for %q: %d rates, %d grids, active=%v",
		req.FileName, req.LenderName, len(parsed.Rates), len(parsed.Adjustments), parsed.ParseSuccess)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(UploadResponse{
		ID:         sheet.ID,
		LenderName: sheet.LenderName,
		RateCount:  len(parsed.Rates),
		GridCount:  len(parsed.Adjustments),
		ParseError: parsed.ParseError,
	})
}

// HandleList returns every stored sheet with its payload stripped.
func HandleList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	sheets, err := repo.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Payloads can be megabytes; the listing only needs metadata.
	for i := range sheets {
		sheets[i].FileData = ""
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sheets)
}

type ToggleRequest struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

// HandleToggle activates or deactivates a stored sheet.
func HandleToggle(w http.ResponseWriter, r *http.Request) {
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

	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	if err := repo.SetActive(r.Context(), req.ID, req.Active); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}
