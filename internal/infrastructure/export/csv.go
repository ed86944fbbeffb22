package export

import (
	"encoding/csv"
	"io"

	"github.com/yumikyo/proposal-g/internal/domain"
)

// Placeholders rendered for rows that resolved to no catalog product.
const (
	unmatchedProductNo = "---"
	unmatchedName      = "該当なし"
)

// utf8BOM keeps Excel from mangling Japanese when it sniffs the file.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// proposalHeader is the seven-column layout of the proposal sheet. Each
// header carries a Japanese label with an English sub-label on the second
// line, the way the sales team's sheets are laid out.
var proposalHeader = []string{
	"考えられる使用材料名\n(Estimated Ingredient)",
	"推定市場単価\n(Market Unit Price)",
	"自社商品No.\n(Product No)",
	"自社商品名\n(Our Product Name)",
	"自社単価\n(Our Price)",
	"数量\n(Qty)",
	"単位\n(Unit)",
}

// WriteProposalCSV renders proposal rows as UTF-8 CSV with a leading BOM,
// one line per reconciled row in proposal order.
func WriteProposalCSV(w io.Writer, rows []domain.ReconciledRow) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(proposalHeader); err != nil {
		return err
	}

	for _, row := range rows {
		if err := cw.Write(record(row)); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// record flattens one reconciled row into the seven-column layout. Rows
// without a catalog product get the reviewer-facing placeholders unless the
// reviewer already filled in a name by hand.
func record(row domain.ReconciledRow) []string {
	productNo := row.EffectiveProductID
	name := row.EffectiveName

	if row.EffectiveProductID == domain.UnmatchedProductID {
		productNo = unmatchedProductNo
		if name == "" {
			name = unmatchedName
		}
	}

	return []string{
		row.Item.Name,
		row.Item.MarketPrice.String(),
		productNo,
		name,
		row.EffectivePrice.String(),
		row.Item.Quantity.String(),
		row.EffectiveUnit,
	}
}
