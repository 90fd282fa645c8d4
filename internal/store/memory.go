package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"claimcheck/internal/model"
)

// MemoryStore is an in-process ClaimStore used by tests and the one-shot
// verify command.
type MemoryStore struct {
	mu     sync.RWMutex
	claims map[string]*model.Claim
	now    func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		claims: make(map[string]*model.Claim),
		now:    time.Now,
	}
}

// Create inserts a new pending claim
func (s *MemoryStore) Create(ctx context.Context, claim *model.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	claim.CreatedAt = now
	claim.UpdatedAt = now
	if claim.Status == "" {
		claim.Status = model.StatusPending
	}
	copied := *claim
	s.claims[claim.ID] = &copied
	return nil
}

// Get reads one claim by id
func (s *MemoryStore) Get(ctx context.Context, id string) (*model.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	claim, ok := s.claims[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *claim
	return &copied, nil
}

// List returns the most recently created claims, newest first
func (s *MemoryStore) List(ctx context.Context, limit int) ([]model.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	claims := make([]model.Claim, 0, len(s.claims))
	for _, c := range s.claims {
		claims = append(claims, *c)
	}
	sort.Slice(claims, func(i, j int) bool {
		return claims[i].CreatedAt.After(claims[j].CreatedAt)
	})
	if len(claims) > limit {
		claims = claims[:limit]
	}
	return claims, nil
}

// SetStatus updates just the lifecycle status
func (s *MemoryStore) SetStatus(ctx context.Context, id string, status model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	claim, ok := s.claims[id]
	if !ok {
		return ErrNotFound
	}
	claim.Status = status
	claim.UpdatedAt = s.now().UTC()
	return nil
}

// Complete writes the terminal result in one update
func (s *MemoryStore) Complete(ctx context.Context, id string, result Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	claim, ok := s.claims[id]
	if !ok {
		return ErrNotFound
	}
	now := s.now().UTC()
	claim.Status = result.Status
	claim.Confidence = result.Confidence
	claim.Priority = result.Priority
	claim.Evidence = result.Evidence
	claim.Explanations = result.Explanations
	claim.Extracted.Recency = result.Recency
	claim.UpdatedAt = now
	claim.VerifiedAt = &now
	return nil
}
