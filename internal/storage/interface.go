package storage

import (
	"context"

	"github.com/mcoot/tichu/internal/model"
)

// Storage defines the interface for data shared beyond a single game
type Storage interface {
	// Game code index
	ClaimCode(ctx context.Context, code model.GameCode, id model.GameID) error
	ResolveCode(ctx context.Context, code model.GameCode) (model.GameID, error)
	// ReleaseCode is a no-op unless code still maps to id
	ReleaseCode(ctx context.Context, code model.GameCode, id model.GameID) error

	// Completed game summaries
	SaveSummary(ctx context.Context, summary *model.GameSummary) error
	GetSummary(ctx context.Context, id model.GameID) (*model.GameSummary, error)
	ListRecentSummaries(ctx context.Context, limit int) ([]*model.GameSummary, error)
}
