package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yumikyo/proposal-g/internal/domain"
)

// DefaultTTL keeps proposals around long enough for a review session
// without growing the store unbounded.
const DefaultTTL = 24 * time.Hour

// storedProposal pairs a proposal with its expiration time.
type storedProposal struct {
	proposal   *domain.Proposal
	expiration time.Time
}

// MemoryStore is a thread-safe in-memory proposal repository with TTL
// support. Implements domain.ProposalRepository.
type MemoryStore struct {
	data  map[string]storedProposal
	mutex sync.RWMutex
	ttl   time.Duration
}

// NewMemoryStore creates a new in-memory proposal store. A non-positive ttl
// falls back to DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	store := &MemoryStore{
		data: make(map[string]storedProposal),
		ttl:  ttl,
	}

	// Start cleanup goroutine to remove expired proposals every 10 minutes
	go store.cleanupExpired()

	return store
}

// Save stores a proposal under its ID, overwriting any previous version.
func (s *MemoryStore) Save(ctx context.Context, p *domain.Proposal) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("%w: proposal must have an id", domain.ErrInvalidRequest)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data[p.ID] = storedProposal{
		proposal:   cloneProposal(p),
		expiration: time.Now().Add(s.ttl),
	}
	return nil
}

// Get retrieves a proposal by ID. Expired proposals behave as missing.
func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.Proposal, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	item, exists := s.data[id]
	if !exists {
		return nil, domain.ErrProposalNotFound
	}

	if time.Now().After(item.expiration) {
		return nil, domain.ErrProposalNotFound
	}

	return cloneProposal(item.proposal), nil
}

// Update replaces an existing proposal. Editing keeps the proposal alive
// for another full TTL.
func (s *MemoryStore) Update(ctx context.Context, p *domain.Proposal) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("%w: proposal must have an id", domain.ErrInvalidRequest)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	item, exists := s.data[p.ID]
	if !exists || time.Now().After(item.expiration) {
		return domain.ErrProposalNotFound
	}

	s.data[p.ID] = storedProposal{
		proposal:   cloneProposal(p),
		expiration: time.Now().Add(s.ttl),
	}
	return nil
}

// Delete removes a proposal by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	item, exists := s.data[id]
	if !exists || time.Now().After(item.expiration) {
		return domain.ErrProposalNotFound
	}

	delete(s.data, id)
	return nil
}

// cleanupExpired removes expired proposals periodically.
func (s *MemoryStore) cleanupExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.mutex.Lock()
		now := time.Now()
		for id, item := range s.data {
			if now.After(item.expiration) {
				delete(s.data, id)
			}
		}
		s.mutex.Unlock()
	}
}

// Size returns the current number of stored proposals (for debugging/monitoring)
func (s *MemoryStore) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}

// Clear removes all stored proposals.
func (s *MemoryStore) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data = make(map[string]storedProposal)
}

// cloneProposal deep-copies a proposal so callers and the store never share
// mutable row slices.
func cloneProposal(p *domain.Proposal) *domain.Proposal {
	cp := *p
	cp.Rows = make([]domain.ReconciledRow, len(p.Rows))
	copy(cp.Rows, p.Rows)

	for i := range cp.Rows {
		if entry := cp.Rows[i].Match.Entry; entry != nil {
			copied := *entry
			cp.Rows[i].Match.Entry = &copied
		}
	}
	return &cp
}
