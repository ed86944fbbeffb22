package usecase

import (
	"strings"

	"github.com/yumikyo/proposal-g/internal/domain"
)

// ReconcileBatch matches every valid extracted item against the catalog
// snapshot and builds proposal rows. Output order follows input order and
// each item is resolved independently against the same read-only snapshot.
// Items failing validation (empty name, negative market price or negative
// quantity) are excluded from the output and counted in the second return
// value; a bad item is never fatal to the batch.
func (s *MatchingService) ReconcileBatch(items []domain.ExtractedItem, catalog *domain.Catalog, threshold int) ([]domain.ReconciledRow, int) {
	var entries []domain.CatalogEntry
	if catalog != nil {
		entries = catalog.Entries
	}

	rows := make([]domain.ReconciledRow, 0, len(items))
	skipped := 0

	for _, item := range items {
		if !validItem(item) {
			skipped++
			continue
		}
		match := s.Resolve(item.Name, entries, threshold)
		rows = append(rows, buildRow(item, match))
	}

	return rows, skipped
}

// validItem enforces the row-level input domain: non-empty name after
// trimming, non-negative market price and non-negative quantity.
func validItem(item domain.ExtractedItem) bool {
	if strings.TrimSpace(item.Name) == "" {
		return false
	}
	if item.MarketPrice.IsNegative() || item.Quantity.IsNegative() {
		return false
	}
	return true
}

// buildRow fills the effective fields from the matched entry. Unmatched rows
// fall back to the item's own unit, a zero own price and the unmatched
// product id sentinel, so they contribute nothing to the own-cost total but
// still appear in the proposal.
func buildRow(item domain.ExtractedItem, match domain.MatchResult) domain.ReconciledRow {
	row := domain.ReconciledRow{
		Item:               item,
		Match:              match,
		EffectiveProductID: domain.UnmatchedProductID,
		EffectiveUnit:      item.Unit,
	}

	if match.Matched() {
		row.EffectiveProductID = match.Entry.ID
		row.EffectiveName = match.Entry.Name
		row.EffectivePrice = match.Entry.UnitPrice
		row.EffectiveUnit = match.Entry.Unit
	}

	return row
}
