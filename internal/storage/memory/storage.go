package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mcoot/tichu/internal/model"
	"github.com/mcoot/tichu/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	codes     map[model.GameCode]model.GameID
	summaries map[model.GameID]*model.GameSummary
	recent    []model.GameID // oldest first
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		codes:     make(map[model.GameCode]model.GameID),
		summaries: make(map[model.GameID]*model.GameSummary),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Game code index

func (s *Storage) ClaimCode(ctx context.Context, code model.GameCode, id model.GameID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.codes[code]; ok {
		return model.ErrCodeTaken
	}
	s.codes[code] = id
	return nil
}

func (s *Storage) ResolveCode(ctx context.Context, code model.GameCode) (model.GameID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codes[code]
	if !ok {
		return "", model.ErrCodeNotFound
	}
	return id, nil
}

func (s *Storage) ReleaseCode(ctx context.Context, code model.GameCode, id model.GameID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codes[code] == id {
		delete(s.codes, code)
	}
	return nil
}

// Summaries

func (s *Storage) SaveSummary(ctx context.Context, summary *model.GameSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.summaries[summary.ID]; !exists {
		s.recent = append(s.recent, summary.ID)
	}
	s.summaries[summary.ID] = summary
	return nil
}

func (s *Storage) GetSummary(ctx context.Context, id model.GameID) (*model.GameSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary, ok := s.summaries[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return summary, nil
}

func (s *Storage) ListRecentSummaries(ctx context.Context, limit int) ([]*model.GameSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := slices.Clone(s.recent)
	slices.Reverse(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]*model.GameSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.summaries[id])
	}
	return out, nil
}
