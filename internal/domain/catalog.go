package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CatalogEntry represents a single product row from the company catalog
type CatalogEntry struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Unit      string          `json:"unit"`
}

// Catalog is an immutable snapshot of the product catalog. A reconciliation
// run holds one snapshot for its whole lifetime; reloading produces a new
// snapshot and never mutates an existing one.
type Catalog struct {
	Entries  []CatalogEntry `json:"entries"`
	Source   string         `json:"source"` // resource the snapshot was parsed from
	LoadedAt time.Time      `json:"loadedAt"`
}

// Len reports the number of entries in the snapshot. Safe on a nil catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Entries)
}
