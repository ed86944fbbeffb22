package domain

import "context"

// CatalogSource provides immutable catalog snapshots.
type CatalogSource interface {
	// Snapshot returns the current snapshot. It never returns nil; before
	// the first successful load it returns an empty catalog.
	Snapshot() *Catalog

	// Reload parses the backing resource again and atomically installs the
	// result as the new snapshot. A resource that cannot be read or parsed
	// installs an empty snapshot and returns the error for reporting.
	Reload() (*Catalog, error)
}

// RecognitionClient defines the interface for turning a menu image into
// estimated ingredient items.
type RecognitionClient interface {
	ExtractIngredients(ctx context.Context, image []byte, mimeType string) ([]ExtractedItem, error)
}

// ProposalRepository defines the interface for proposal persistence across
// the review/edit lifecycle.
type ProposalRepository interface {
	Save(ctx context.Context, p *Proposal) error
	Get(ctx context.Context, id string) (*Proposal, error)
	Update(ctx context.Context, p *Proposal) error
	Delete(ctx context.Context, id string) error
}
