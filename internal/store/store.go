// Package store abstracts where merchant reference data lives. The in-memory
// dataset and the Postgres implementation both satisfy MerchantStore.
package store

import (
	"context"
	"errors"

	"merchant-insight-workers/internal/models"
)

// ErrMerchantNotFound signals an unknown merchant identifier. Callers surface
// this as a structured negative result, not a job failure.
var ErrMerchantNotFound = errors.New("merchant not found")

// SearchFilter narrows a merchant name search. Name is a case-insensitive
// substring; Location and BusinessType are optional extra filters.
type SearchFilter struct {
	Name         string
	Location     string
	BusinessType string
}

// MerchantStore supplies joined merchant records and name search.
type MerchantStore interface {
	GetRecord(ctx context.Context, merchantID string) (models.MerchantRecord, error)
	Search(ctx context.Context, filter SearchFilter) ([]models.MerchantSummary, error)
}
