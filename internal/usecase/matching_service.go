package usecase

import (
	"log"

	"github.com/yumikyo/proposal-g/internal/domain"
)

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	DefaultThreshold   int
	EnableDebugLogging bool
}

// MatchingService resolves extracted item names against catalog snapshots
// using token-order-insensitive fuzzy scoring.
type MatchingService struct {
	defaultThreshold   int
	enableDebugLogging bool
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig) *MatchingService {
	threshold := config.DefaultThreshold
	if threshold < 0 || threshold > 100 {
		threshold = 60 // Default acceptance cutoff
	}

	return &MatchingService{
		defaultThreshold:   threshold,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// DefaultThreshold returns the cutoff applied to runs that do not supply one.
func (s *MatchingService) DefaultThreshold() int {
	return s.defaultThreshold
}

// Resolve scores every catalog entry against the query and returns the best
// match. The strictly-greater comparison keeps the earliest entry on score
// ties, so catalog load order is the deterministic tie-break. When the
// catalog is empty or the best score falls below the threshold, the result
// carries the score (0 for an empty catalog) and no entry.
func (s *MatchingService) Resolve(query string, entries []domain.CatalogEntry, threshold int) domain.MatchResult {
	if s.enableDebugLogging {
		log.Printf("[MATCH] Resolving %q against %d entries (threshold: %d)", query, len(entries), threshold)
	}

	var best *domain.CatalogEntry
	highestScore := -1 // Initialize to -1 so any score (including 0) is considered

	for i := range entries {
		score := SimilarityScore(query, entries[i].Name)

		if s.enableDebugLogging {
			log.Printf("[MATCH] Entry: %q | ID: %s | Score: %d", entries[i].Name, entries[i].ID, score)
		}

		if score > highestScore {
			highestScore = score
			best = &entries[i]
		}
	}

	if best == nil {
		return domain.MatchResult{Score: 0}
	}

	if s.enableDebugLogging {
		log.Printf("[MATCH] Best match: %q (score: %d)", best.Name, highestScore)
	}

	if highestScore < threshold {
		return domain.MatchResult{Score: highestScore}
	}

	return domain.MatchResult{Score: highestScore, Entry: best}
}
