package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/yumikyo/proposal-g/internal/domain"
)

// Totals folds the current row state into the proposal's cost comparison:
//
//	market = sum(item market price * quantity)
//	own    = sum(effective price * quantity)
//	savings = market - own (negative when the catalog is more expensive)
//
// Totals is a pure function over whatever rows it is handed; reviewer-edited
// rows are authoritative and are summed as-is. It is recomputed on every
// read and never cached, so edits are reflected immediately.
func Totals(rows []domain.ReconciledRow) domain.AggregateTotals {
	market := decimal.Zero
	own := decimal.Zero

	for _, row := range rows {
		market = market.Add(row.Item.MarketPrice.Mul(row.Item.Quantity))
		own = own.Add(row.EffectivePrice.Mul(row.Item.Quantity))
	}

	return domain.AggregateTotals{
		MarketTotal: market,
		OwnTotal:    own,
		Savings:     market.Sub(own),
	}
}
