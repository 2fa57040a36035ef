package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StoredRateSheet is one uploaded rate-sheet file. FileData is base64 (the
// upload wire format); the pricing engine decodes it per parse.
type StoredRateSheet struct {
	ID         string    `json:"id"`
	LenderName string    `json:"lender_name"`
	FileName   string    `json:"file_name"`
	FileData   string    `json:"file_data"` // base64
	IsActive   bool      `json:"is_active"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// RateSheetRepository is the storage collaborator the pricing engine reads
// from. The engine only ever calls GetActiveRateSheets; the rest serves the
// upload API.
type RateSheetRepository interface {
	GetActiveRateSheets(ctx context.Context) ([]StoredRateSheet, error)
	Save(ctx context.Context, sheet StoredRateSheet) (StoredRateSheet, error)
	SetActive(ctx context.Context, id string, active bool) error
	List(ctx context.Context) ([]StoredRateSheet, error)
}

// =============================================================================
// POSTGRES IMPLEMENTATION
// =============================================================================

// PGRateSheetRepo persists rate sheets in Postgres.
//
// Schema assumption (managed by migrations elsewhere):
//
//	CREATE TABLE IF NOT EXISTS rate_sheets (
//	  id TEXT PRIMARY KEY,
//	  lender_name TEXT NOT NULL,
//	  file_name TEXT NOT NULL,
//	  file_data TEXT NOT NULL,
//	  is_active BOOLEAN NOT NULL DEFAULT TRUE,
//	  uploaded_at TIMESTAMPTZ NOT NULL
//	);
type PGRateSheetRepo struct{}

// NewPGRateSheetRepo creates a repository backed by the shared pool.
func NewPGRateSheetRepo() *PGRateSheetRepo {
	return &PGRateSheetRepo{}
}

func (r *PGRateSheetRepo) GetActiveRateSheets(ctx context.Context) ([]StoredRateSheet, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	rows, err := pool.Query(ctx,
		`SELECT id, lender_name, file_name, file_data, is_active, uploaded_at
		 FROM rate_sheets WHERE is_active ORDER BY lender_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active rate sheets: %w", err)
	}
	defer rows.Close()

	return scanSheets(rows)
}

func (r *PGRateSheetRepo) List(ctx context.Context) ([]StoredRateSheet, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	rows, err := pool.Query(ctx,
		`SELECT id, lender_name, file_name, file_data, is_active, uploaded_at
		 FROM rate_sheets ORDER BY lender_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rate sheets: %w", err)
	}
	defer rows.Close()

	return scanSheets(rows)
}

func (r *PGRateSheetRepo) Save(ctx context.Context, sheet StoredRateSheet) (StoredRateSheet, error) {
	pool := GetPool()
	if pool == nil {
		return sheet, fmt.Errorf("database pool not initialized")
	}

	if sheet.ID == "" {
		sheet.ID = uuid.New().String()
	}
	if sheet.UploadedAt.IsZero() {
		sheet.UploadedAt = time.Now()
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO rate_sheets (id, lender_name, file_name, file_data, is_active, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
		   lender_name = EXCLUDED.lender_name,
		   file_name = EXCLUDED.file_name,
		   file_data = EXCLUDED.file_data,
		   is_active = EXCLUDED.is_active`,
		sheet.ID, sheet.LenderName, sheet.FileName, sheet.FileData, sheet.IsActive, sheet.UploadedAt)
	if err != nil {
		return sheet, fmt.Errorf("failed to save rate sheet: %w", err)
	}
	return sheet, nil
}

func (r *PGRateSheetRepo) SetActive(ctx context.Context, id string, active bool) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	tag, err := pool.Exec(ctx, `UPDATE rate_sheets SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("failed to toggle rate sheet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rate sheet %s not found", id)
	}
	return nil
}

type pgRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanSheets(rows pgRows) ([]StoredRateSheet, error) {
	var sheets []StoredRateSheet
	for rows.Next() {
		var s StoredRateSheet
		if err := rows.Scan(&s.ID, &s.LenderName, &s.FileName, &s.FileData, &s.IsActive, &s.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rate sheet row: %w", err)
		}
		sheets = append(sheets, s)
	}
	return sheets, rows.Err()
}

// =============================================================================
// IN-MEMORY IMPLEMENTATION (tests, local development)
// =============================================================================

// MemoryRateSheetRepo keeps sheets in a map behind a mutex.
type MemoryRateSheetRepo struct {
	mu     sync.RWMutex
	sheets map[string]StoredRateSheet
}

func NewMemoryRateSheetRepo() *MemoryRateSheetRepo {
	return &MemoryRateSheetRepo{sheets: make(map[string]StoredRateSheet)}
}

func (r *MemoryRateSheetRepo) GetActiveRateSheets(ctx context.Context) ([]StoredRateSheet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []StoredRateSheet
	for _, s := range r.sheets {
		if s.IsActive {
			out = append(out, s)
		}
	}
	sortSheets(out)
	return out, nil
}

func (r *MemoryRateSheetRepo) List(ctx context.Context) ([]StoredRateSheet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]StoredRateSheet, 0, len(r.sheets))
	for _, s := range r.sheets {
		out = append(out, s)
	}
	sortSheets(out)
	return out, nil
}

func (r *MemoryRateSheetRepo) Save(ctx context.Context, sheet StoredRateSheet) (StoredRateSheet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sheet.ID == "" {
		sheet.ID = uuid.New().String()
	}
	if sheet.UploadedAt.IsZero() {
		sheet.UploadedAt = time.Now()
	}
	r.sheets[sheet.ID] = sheet
	return sheet, nil
}

func (r *MemoryRateSheetRepo) SetActive(ctx context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sheets[id]
	if !ok {
		return fmt.Errorf("rate sheet %s not found", id)
	}
	s.IsActive = active
	r.sheets[id] = s
	return nil
}

// sortSheets keeps repo output deterministic regardless of map order.
func sortSheets(sheets []StoredRateSheet) {
	sort.Slice(sheets, func(i, j int) bool {
		if sheets[i].LenderName != sheets[j].LenderName {
			return sheets[i].LenderName < sheets[j].LenderName
		}
		return sheets[i].ID < sheets[j].ID
	})
}
