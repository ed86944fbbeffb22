package catalog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/japanese"

	"github.com/yumikyo/proposal-g/internal/domain"
)

// placeholder fills the identifier/unit of entries whose optional column is
// absent from the CSV header.
const placeholder = "-"

// utf8BOM is the byte order mark Excel prepends to UTF-8 CSV exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// thousandsReplacer strips separators and currency marks that show up in
// hand-maintained price columns.
var thousandsReplacer = strings.NewReplacer(",", "", "¥", "", "￥", "")

// Columns maps CSV header names to catalog entry fields. Name and Price are
// required; ID and Unit are optional and degrade to a placeholder.
type Columns struct {
	ID    string
	Name  string
	Price string
	Unit  string
}

// DefaultColumns matches the layout the sales team exports from the master
// product sheet.
func DefaultColumns() Columns {
	return Columns{
		ID:    "product_no",
		Name:  "product_name",
		Price: "unit_price",
		Unit:  "unit",
	}
}

// Store loads and caches immutable catalog snapshots from a CSV file. The
// snapshot pointer is swapped atomically under the mutex, so readers always
// see a complete catalog and never a mix of old and new rows.
type Store struct {
	path    string
	columns Columns

	mu     sync.RWMutex
	snap   *domain.Catalog
	loaded bool
}

// NewStore creates a catalog store for the given CSV path. Empty column
// names fall back to the defaults. No I/O happens until Load or Reload.
func NewStore(path string, columns Columns) *Store {
	defaults := DefaultColumns()
	if columns.ID == "" {
		columns.ID = defaults.ID
	}
	if columns.Name == "" {
		columns.Name = defaults.Name
	}
	if columns.Price == "" {
		columns.Price = defaults.Price
	}
	if columns.Unit == "" {
		columns.Unit = defaults.Unit
	}

	return &Store{
		path:    path,
		columns: columns,
		snap:    &domain.Catalog{Source: path},
	}
}

// Load returns the cached snapshot, parsing the resource on first use.
// Later calls never touch the disk again; use Reload to pick up changes.
func (s *Store) Load() (*domain.Catalog, error) {
	s.mu.RLock()
	loaded, snap := s.loaded, s.snap
	s.mu.RUnlock()

	if loaded {
		return snap, nil
	}
	return s.Reload()
}

// Reload parses the file and installs the result as the new snapshot. A
// missing file or a total parse failure installs an empty snapshot and
// returns the error for reporting; downstream matching keeps working and
// simply resolves everything unmatched.
func (s *Store) Reload() (*domain.Catalog, error) {
	snap, err := s.parse()
	if err != nil {
		snap = &domain.Catalog{Source: s.path, LoadedAt: time.Now()}
	}

	s.mu.Lock()
	s.snap = snap
	s.loaded = true
	s.mu.Unlock()

	if err != nil {
		return snap, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return snap, nil
}

// Snapshot returns the current snapshot without touching the disk. Never
// nil; before the first successful load it is an empty catalog.
func (s *Store) Snapshot() *domain.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Store) parse() (*domain.Catalog, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %v", err)
	}

	text, _, err := decodeCatalogBytes(raw)
	if err != nil {
		return nil, err
	}

	records, err := csv.NewReader(strings.NewReader(text)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse catalog csv: %v", err)
	}

	entries, err := s.buildEntries(records)
	if err != nil {
		return nil, err
	}

	return &domain.Catalog{
		Entries:  entries,
		Source:   s.path,
		LoadedAt: time.Now(),
	}, nil
}

// buildEntries maps CSV records onto catalog entries using the configured
// column names. Rows are kept even when individual cells are unusable: a
// price that fails coercion becomes zero, an empty name just never matches.
func (s *Store) buildEntries(records [][]string) ([]domain.CatalogEntry, error) {
	if len(records) == 0 {
		return nil, errors.New("catalog csv has no header row")
	}

	header := records[0]
	columnIndex := func(name string) int {
		for i, h := range header {
			if strings.TrimSpace(h) == name {
				return i
			}
		}
		return -1
	}

	nameIdx := columnIndex(s.columns.Name)
	priceIdx := columnIndex(s.columns.Price)
	if nameIdx < 0 || priceIdx < 0 {
		return nil, fmt.Errorf("catalog csv missing required columns %q, %q", s.columns.Name, s.columns.Price)
	}
	idIdx := columnIndex(s.columns.ID)
	unitIdx := columnIndex(s.columns.Unit)

	entries := make([]domain.CatalogEntry, 0, len(records)-1)
	for _, record := range records[1:] {
		entries = append(entries, domain.CatalogEntry{
			ID:        optionalField(record, idIdx),
			Name:      field(record, nameIdx),
			UnitPrice: coercePrice(field(record, priceIdx)),
			Unit:      optionalField(record, unitIdx),
		})
	}
	return entries, nil
}

// decodeCatalogBytes tries the supported encodings in fixed order: UTF-8
// (with or without BOM) first, Shift_JIS second. This mirrors what catalog
// sheets actually are in the wild: Excel utf-8-sig exports or legacy
// Shift_JIS files. Returns the decoded text and the encoding that won.
func decodeCatalogBytes(raw []byte) (string, string, error) {
	trimmed := bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(trimmed) {
		return string(trimmed), "utf-8", nil
	}

	decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(raw)
	if err != nil || bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", "", errors.New("catalog is neither valid utf-8 nor shift_jis")
	}
	return string(decoded), "shift_jis", nil
}

// coercePrice parses a price cell as a decimal. Unparseable or negative
// values coerce to zero; the row itself is kept.
func coercePrice(v string) decimal.Decimal {
	v = thousandsReplacer.Replace(strings.TrimSpace(v))
	if v == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func optionalField(record []string, idx int) string {
	if idx < 0 {
		return placeholder
	}
	return field(record, idx)
}
