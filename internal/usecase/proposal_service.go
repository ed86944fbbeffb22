package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/yumikyo/proposal-g/internal/domain"
)

// ProposalServiceConfig holds configuration for the proposal service
type ProposalServiceConfig struct {
	DefaultThreshold   int
	EnableDebugLogging bool
}

// ProposalService orchestrates a reconciliation run: menu recognition,
// matching against the current catalog snapshot, and proposal persistence
// across the review/edit lifecycle.
type ProposalService struct {
	catalog    domain.CatalogSource
	recognizer domain.RecognitionClient
	proposals  domain.ProposalRepository
	matching   *MatchingService
}

// NewProposalService creates a new proposal service with dependencies.
// The recognizer may be nil when no API key is configured; image analysis
// then fails with ErrRecognizerNotConfigured while every other operation
// keeps working.
func NewProposalService(
	catalog domain.CatalogSource,
	recognizer domain.RecognitionClient,
	proposals domain.ProposalRepository,
	config ProposalServiceConfig,
) *ProposalService {
	matching := NewMatchingService(MatchConfig{
		DefaultThreshold:   config.DefaultThreshold,
		EnableDebugLogging: config.EnableDebugLogging,
	})

	return &ProposalService{
		catalog:    catalog,
		recognizer: recognizer,
		proposals:  proposals,
		matching:   matching,
	}
}

// DefaultThreshold returns the acceptance cutoff used when a request does
// not carry its own.
func (s *ProposalService) DefaultThreshold() int {
	return s.matching.DefaultThreshold()
}

// CreateFromImage builds and stores a proposal from a menu photo.
// Flow: recognize ingredients -> reconcile against one snapshot -> store.
func (s *ProposalService) CreateFromImage(ctx context.Context, image []byte, mimeType string, threshold int) (*domain.Proposal, error) {
	if len(image) == 0 {
		return nil, domain.ErrInvalidRequest
	}
	if s.recognizer == nil {
		return nil, domain.ErrRecognizerNotConfigured
	}

	items, err := s.recognizer.ExtractIngredients(ctx, image, mimeType)
	if err != nil {
		return nil, err
	}

	return s.createProposal(ctx, items, threshold)
}

// Reconcile runs the stateless core: caller-supplied items against the
// current catalog snapshot. Nothing is stored.
func (s *ProposalService) Reconcile(items []domain.ExtractedItem, threshold int) ([]domain.ReconciledRow, int) {
	snapshot := s.catalog.Snapshot()
	return s.matching.ReconcileBatch(items, snapshot, threshold)
}

// Get returns the stored proposal in its current reviewer state.
func (s *ProposalService) Get(ctx context.Context, id string) (*domain.Proposal, error) {
	return s.proposals.Get(ctx, id)
}

// ReplaceRows swaps in the reviewer's edited row sequence. Edited rows are
// authoritative for every later read and export; totals are recomputed from
// them on demand. Rows carrying a negative price or quantity are rejected so
// nonsensical totals never get stored.
func (s *ProposalService) ReplaceRows(ctx context.Context, id string, rows []domain.ReconciledRow) (*domain.Proposal, error) {
	for i := range rows {
		if rows[i].Item.MarketPrice.IsNegative() ||
			rows[i].Item.Quantity.IsNegative() ||
			rows[i].EffectivePrice.IsNegative() {
			return nil, fmt.Errorf("%w: row %d", domain.ErrNegativeRowValue, i)
		}
	}

	proposal, err := s.proposals.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if rows == nil {
		rows = []domain.ReconciledRow{}
	}
	proposal.Rows = rows
	proposal.UpdatedAt = time.Now()

	if err := s.proposals.Update(ctx, proposal); err != nil {
		return nil, err
	}

	return proposal, nil
}

// Discard removes a stored proposal once the reviewer is done with it.
func (s *ProposalService) Discard(ctx context.Context, id string) error {
	return s.proposals.Delete(ctx, id)
}

// CatalogSnapshot returns the snapshot new runs would use right now.
func (s *ProposalService) CatalogSnapshot() *domain.Catalog {
	return s.catalog.Snapshot()
}

// ReloadCatalog swaps in a freshly parsed snapshot. Runs already in flight
// keep the snapshot they started with. A failed reload degrades to an empty
// catalog and reports the error; matching keeps working, every item simply
// resolves unmatched.
func (s *ProposalService) ReloadCatalog() (*domain.Catalog, error) {
	snapshot, err := s.catalog.Reload()
	if err != nil {
		log.Printf("[CATALOG] Reload failed: %v", err)
		return snapshot, err
	}

	log.Printf("[CATALOG] Reloaded %d entries from %s", snapshot.Len(), snapshot.Source)
	return snapshot, nil
}

// createProposal reconciles items against one snapshot and persists the run.
func (s *ProposalService) createProposal(ctx context.Context, items []domain.ExtractedItem, threshold int) (*domain.Proposal, error) {
	snapshot := s.catalog.Snapshot()
	rows, skipped := s.matching.ReconcileBatch(items, snapshot, threshold)

	now := time.Now()
	proposal := &domain.Proposal{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		UpdatedAt:    now,
		Threshold:    threshold,
		SkippedItems: skipped,
		Rows:         rows,
	}

	if err := s.proposals.Save(ctx, proposal); err != nil {
		return nil, fmt.Errorf("save proposal: %w", err)
	}

	return proposal, nil
}
