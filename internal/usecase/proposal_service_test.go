package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/yumikyo/proposal-g/internal/domain"
)

// MockCatalogSource is a mock implementation of domain.CatalogSource
type MockCatalogSource struct {
	snapshot    *domain.Catalog
	reloadErr   error
	reloadCalls int
}

func (m *MockCatalogSource) Snapshot() *domain.Catalog {
	if m.snapshot == nil {
		return &domain.Catalog{}
	}
	return m.snapshot
}

func (m *MockCatalogSource) Reload() (*domain.Catalog, error) {
	m.reloadCalls++
	if m.reloadErr != nil {
		m.snapshot = &domain.Catalog{}
		return m.snapshot, m.reloadErr
	}
	return m.snapshot, nil
}

// MockRecognitionClient is a mock implementation of domain.RecognitionClient
type MockRecognitionClient struct {
	items    []domain.ExtractedItem
	err      error
	calls    int
	lastMime string
}

func (m *MockRecognitionClient) ExtractIngredients(ctx context.Context, image []byte, mimeType string) ([]domain.ExtractedItem, error) {
	m.calls++
	m.lastMime = mimeType
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

// MockProposalRepository is a mock implementation of domain.ProposalRepository
type MockProposalRepository struct {
	data       map[string]*domain.Proposal
	saveErr    error
	saveCalled bool
}

func NewMockProposalRepository() *MockProposalRepository {
	return &MockProposalRepository{data: make(map[string]*domain.Proposal)}
}

func (m *MockProposalRepository) Save(ctx context.Context, p *domain.Proposal) error {
	m.saveCalled = true
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[p.ID] = p
	return nil
}

func (m *MockProposalRepository) Get(ctx context.Context, id string) (*domain.Proposal, error) {
	p, ok := m.data[id]
	if !ok {
		return nil, domain.ErrProposalNotFound
	}
	return p, nil
}

func (m *MockProposalRepository) Update(ctx context.Context, p *domain.Proposal) error {
	if _, ok := m.data[p.ID]; !ok {
		return domain.ErrProposalNotFound
	}
	m.data[p.ID] = p
	return nil
}

func (m *MockProposalRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.data[id]; !ok {
		return domain.ErrProposalNotFound
	}
	delete(m.data, id)
	return nil
}

func newTestProposalService(catalog *MockCatalogSource, recognizer domain.RecognitionClient, repo *MockProposalRepository) *ProposalService {
	return NewProposalService(catalog, recognizer, repo, ProposalServiceConfig{DefaultThreshold: 60})
}

func TestCreateFromImage(t *testing.T) {
	ctx := context.Background()
	image := []byte("fake-image-bytes")

	t.Run("recognizes, reconciles and stores a proposal", func(t *testing.T) {
		catalog := &MockCatalogSource{snapshot: testCatalog()}
		recognizer := &MockRecognitionClient{items: []domain.ExtractedItem{
			testItem("パスタ 5kg 業務用", 2500, 2, "袋"),
			testItem("キャビア", 10000, 1, "箱"),
			testItem("", 100, 1, "個"), // dropped by validation
		}}
		repo := NewMockProposalRepository()
		svc := newTestProposalService(catalog, recognizer, repo)

		proposal, err := svc.CreateFromImage(ctx, image, "image/jpeg", 60)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if proposal.ID == "" {
			t.Error("expected a generated proposal id")
		}
		if proposal.Threshold != 60 {
			t.Errorf("Threshold = %v, want 60", proposal.Threshold)
		}
		if proposal.SkippedItems != 1 {
			t.Errorf("SkippedItems = %v, want 1", proposal.SkippedItems)
		}
		if len(proposal.Rows) != 2 {
			t.Fatalf("len(Rows) = %v, want 2", len(proposal.Rows))
		}
		if proposal.Rows[0].EffectiveProductID != "A-101" {
			t.Errorf("Rows[0].EffectiveProductID = %v, want A-101", proposal.Rows[0].EffectiveProductID)
		}
		if proposal.Rows[1].EffectiveProductID != domain.UnmatchedProductID {
			t.Errorf("Rows[1].EffectiveProductID = %v, want sentinel", proposal.Rows[1].EffectiveProductID)
		}
		if recognizer.lastMime != "image/jpeg" {
			t.Errorf("mime passed to recognizer = %v, want image/jpeg", recognizer.lastMime)
		}
		if !repo.saveCalled {
			t.Error("expected proposal to be saved")
		}

		stored, err := svc.Get(ctx, proposal.ID)
		if err != nil {
			t.Fatalf("Get after create failed: %v", err)
		}
		if stored.ID != proposal.ID {
			t.Errorf("stored.ID = %v, want %v", stored.ID, proposal.ID)
		}
	})

	t.Run("empty recognition result makes an empty proposal", func(t *testing.T) {
		catalog := &MockCatalogSource{snapshot: testCatalog()}
		recognizer := &MockRecognitionClient{items: nil}
		repo := NewMockProposalRepository()
		svc := newTestProposalService(catalog, recognizer, repo)

		proposal, err := svc.CreateFromImage(ctx, image, "image/png", 60)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(proposal.Rows) != 0 {
			t.Errorf("len(Rows) = %v, want 0", len(proposal.Rows))
		}
	})

	t.Run("rejects empty image", func(t *testing.T) {
		svc := newTestProposalService(&MockCatalogSource{}, &MockRecognitionClient{}, NewMockProposalRepository())

		_, err := svc.CreateFromImage(ctx, nil, "image/jpeg", 60)
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("fails cleanly when recognizer is not configured", func(t *testing.T) {
		svc := NewProposalService(&MockCatalogSource{}, nil, NewMockProposalRepository(), ProposalServiceConfig{DefaultThreshold: 60})

		_, err := svc.CreateFromImage(ctx, image, "image/jpeg", 60)
		if !errors.Is(err, domain.ErrRecognizerNotConfigured) {
			t.Errorf("error = %v, want ErrRecognizerNotConfigured", err)
		}
	})

	t.Run("propagates recognition payload errors", func(t *testing.T) {
		recognizer := &MockRecognitionClient{err: domain.ErrRecognitionPayload}
		repo := NewMockProposalRepository()
		svc := newTestProposalService(&MockCatalogSource{snapshot: testCatalog()}, recognizer, repo)

		_, err := svc.CreateFromImage(ctx, image, "image/jpeg", 60)
		if !errors.Is(err, domain.ErrRecognitionPayload) {
			t.Errorf("error = %v, want ErrRecognitionPayload", err)
		}
		if repo.saveCalled {
			t.Error("nothing should be stored when recognition fails")
		}
	})
}

func TestServiceReconcile(t *testing.T) {
	t.Run("reconciles without storing anything", func(t *testing.T) {
		catalog := &MockCatalogSource{snapshot: testCatalog()}
		repo := NewMockProposalRepository()
		svc := newTestProposalService(catalog, &MockRecognitionClient{}, repo)

		items := []domain.ExtractedItem{
			testItem("トマト缶", 300, 4, "缶"),
			testItem("キャビア", 10000, 1, "箱"),
		}

		rows, skipped := svc.Reconcile(items, 60)
		if skipped != 0 {
			t.Errorf("skipped = %v, want 0", skipped)
		}
		if len(rows) != 2 {
			t.Fatalf("len(rows) = %v, want 2", len(rows))
		}
		if rows[0].EffectiveProductID != "T-505" {
			t.Errorf("rows[0].EffectiveProductID = %v, want T-505", rows[0].EffectiveProductID)
		}
		if repo.saveCalled {
			t.Error("stateless reconcile must not persist")
		}
	})
}

func TestReplaceRows(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, svc *ProposalService) *domain.Proposal {
		t.Helper()
		proposal, err := svc.CreateFromImage(ctx, []byte("img"), "image/jpeg", 60)
		if err != nil {
			t.Fatalf("seeding proposal failed: %v", err)
		}
		return proposal
	}

	t.Run("replaces rows and recomputed totals follow", func(t *testing.T) {
		catalog := &MockCatalogSource{snapshot: testCatalog()}
		recognizer := &MockRecognitionClient{items: []domain.ExtractedItem{testItem("パスタ 5kg 業務用", 2500, 2, "袋")}}
		repo := NewMockProposalRepository()
		svc := newTestProposalService(catalog, recognizer, repo)
		proposal := seed(t, svc)

		edited := make([]domain.ReconciledRow, len(proposal.Rows))
		copy(edited, proposal.Rows)
		edited[0].Item.Quantity = decimal.NewFromInt(3)
		edited[0].EffectivePrice = decimal.NewFromInt(1500)

		updated, err := svc.ReplaceRows(ctx, proposal.ID, edited)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.UpdatedAt.Before(updated.CreatedAt) {
			t.Error("UpdatedAt should not precede CreatedAt")
		}

		totals := Totals(updated.Rows)
		if !totals.OwnTotal.Equal(decimal.NewFromInt(4500)) {
			t.Errorf("OwnTotal = %v, want 4500 from edited rows", totals.OwnTotal)
		}
		if !totals.MarketTotal.Equal(decimal.NewFromInt(7500)) {
			t.Errorf("MarketTotal = %v, want 7500 from edited rows", totals.MarketTotal)
		}
	})

	t.Run("rejects negative values in edits", func(t *testing.T) {
		catalog := &MockCatalogSource{snapshot: testCatalog()}
		recognizer := &MockRecognitionClient{items: []domain.ExtractedItem{testItem("パスタ 5kg 業務用", 2500, 2, "袋")}}
		svc := newTestProposalService(catalog, recognizer, NewMockProposalRepository())
		proposal := seed(t, svc)

		edited := make([]domain.ReconciledRow, len(proposal.Rows))
		copy(edited, proposal.Rows)
		edited[0].EffectivePrice = decimal.NewFromInt(-100)

		_, err := svc.ReplaceRows(ctx, proposal.ID, edited)
		if !errors.Is(err, domain.ErrNegativeRowValue) {
			t.Errorf("error = %v, want ErrNegativeRowValue", err)
		}

		stored, err := svc.Get(ctx, proposal.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if stored.Rows[0].EffectivePrice.IsNegative() {
			t.Error("rejected edit must not be stored")
		}
	})

	t.Run("unknown proposal id", func(t *testing.T) {
		svc := newTestProposalService(&MockCatalogSource{}, &MockRecognitionClient{}, NewMockProposalRepository())

		_, err := svc.ReplaceRows(ctx, "missing", nil)
		if !errors.Is(err, domain.ErrProposalNotFound) {
			t.Errorf("error = %v, want ErrProposalNotFound", err)
		}
	})

	t.Run("reviewer can delete every row", func(t *testing.T) {
		catalog := &MockCatalogSource{snapshot: testCatalog()}
		recognizer := &MockRecognitionClient{items: []domain.ExtractedItem{testItem("パスタ 5kg 業務用", 2500, 2, "袋")}}
		svc := newTestProposalService(catalog, recognizer, NewMockProposalRepository())
		proposal := seed(t, svc)

		updated, err := svc.ReplaceRows(ctx, proposal.ID, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.Rows == nil {
			t.Error("rows should be empty, not nil")
		}
		if len(updated.Rows) != 0 {
			t.Errorf("len(Rows) = %v, want 0", len(updated.Rows))
		}

		totals := Totals(updated.Rows)
		if !totals.MarketTotal.IsZero() || !totals.OwnTotal.IsZero() {
			t.Errorf("totals = %+v, want zero after deleting all rows", totals)
		}
	})
}

func TestDiscard(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the stored proposal", func(t *testing.T) {
		catalog := &MockCatalogSource{snapshot: testCatalog()}
		recognizer := &MockRecognitionClient{items: []domain.ExtractedItem{testItem("パスタ 5kg 業務用", 2500, 2, "袋")}}
		svc := newTestProposalService(catalog, recognizer, NewMockProposalRepository())

		proposal, err := svc.CreateFromImage(ctx, []byte("img"), "image/jpeg", 60)
		if err != nil {
			t.Fatalf("seeding proposal failed: %v", err)
		}

		if err := svc.Discard(ctx, proposal.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := svc.Get(ctx, proposal.ID); !errors.Is(err, domain.ErrProposalNotFound) {
			t.Errorf("error = %v, want ErrProposalNotFound after discard", err)
		}
	})

	t.Run("unknown proposal id", func(t *testing.T) {
		svc := newTestProposalService(&MockCatalogSource{}, &MockRecognitionClient{}, NewMockProposalRepository())

		if err := svc.Discard(ctx, "missing"); !errors.Is(err, domain.ErrProposalNotFound) {
			t.Errorf("error = %v, want ErrProposalNotFound", err)
		}
	})
}

func TestReloadCatalog(t *testing.T) {
	t.Run("reports reload errors while serving the installed snapshot", func(t *testing.T) {
		catalog := &MockCatalogSource{snapshot: testCatalog(), reloadErr: domain.ErrCatalogUnavailable}
		svc := newTestProposalService(catalog, &MockRecognitionClient{}, NewMockProposalRepository())

		snapshot, err := svc.ReloadCatalog()
		if !errors.Is(err, domain.ErrCatalogUnavailable) {
			t.Errorf("error = %v, want ErrCatalogUnavailable", err)
		}
		if snapshot.Len() != 0 {
			t.Errorf("snapshot.Len() = %v, want 0 after failed reload", snapshot.Len())
		}
		if catalog.reloadCalls != 1 {
			t.Errorf("reloadCalls = %v, want 1", catalog.reloadCalls)
		}
	})

	t.Run("returns the fresh snapshot on success", func(t *testing.T) {
		catalog := &MockCatalogSource{snapshot: testCatalog()}
		svc := newTestProposalService(catalog, &MockRecognitionClient{}, NewMockProposalRepository())

		snapshot, err := svc.ReloadCatalog()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snapshot.Len() != 3 {
			t.Errorf("snapshot.Len() = %v, want 3", snapshot.Len())
		}
	})
}
