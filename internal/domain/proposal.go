package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnmatchedProductID marks rows whose item found no catalog entry at or
// above the acceptance threshold.
const UnmatchedProductID = "unmatched"

// ExtractedItem is one estimated ingredient produced by menu recognition,
// or supplied directly by a caller of the reconcile endpoint.
type ExtractedItem struct {
	Name        string          `json:"name"`
	MarketPrice decimal.Decimal `json:"marketPrice"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
}

// MatchResult is the outcome of resolving one item name against a catalog
// snapshot. Entry is nil when no entry scored at or above the threshold.
type MatchResult struct {
	Score int           `json:"score"` // 0-100
	Entry *CatalogEntry `json:"entry,omitempty"`
}

// Matched reports whether the resolution selected a catalog entry.
func (m MatchResult) Matched() bool {
	return m.Entry != nil
}

// ReconciledRow pairs a source item with its match outcome. The effective
// fields are what the proposal actually offers: catalog values when matched,
// fallbacks when not. Reviewers may edit any field afterwards; edited rows
// are authoritative and totals are always recomputed from the current rows.
type ReconciledRow struct {
	Item               ExtractedItem   `json:"item"`
	Match              MatchResult     `json:"match"`
	EffectiveProductID string          `json:"effectiveProductId"`
	EffectiveName      string          `json:"effectiveName"`
	EffectivePrice     decimal.Decimal `json:"effectivePrice"`
	EffectiveUnit      string          `json:"effectiveUnit"`
}

// Proposal is a stored reconciliation run. Rows hold the latest reviewer
// state; totals are derived from rows on every read and never stored.
type Proposal struct {
	ID           string          `json:"id"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	Threshold    int             `json:"threshold"`
	SkippedItems int             `json:"skippedItems"`
	Rows         []ReconciledRow `json:"rows"`
}

// AggregateTotals summarizes the cost comparison for a row sequence.
type AggregateTotals struct {
	MarketTotal decimal.Decimal `json:"marketTotal"`
	OwnTotal    decimal.Decimal `json:"ownTotal"`
	Savings     decimal.Decimal `json:"savings"` // MarketTotal - OwnTotal, may be negative
}
