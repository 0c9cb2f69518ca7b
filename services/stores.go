package services

import (
	"context"
	"time"

	"quiz-progression-system/models"
)

// PlayerStore is the persistence boundary for Player records. Get returns
// (nil, nil) when no record exists; the stores must provide
// read-your-writes consistency within one unit of work.
type PlayerStore interface {
	Get(ctx context.Context, id string) (*models.Player, error)
	Save(ctx context.Context, p *models.Player) error
	ListByScoreDesc(ctx context.Context, limit int) ([]models.Player, error)
	SearchByKey(ctx context.Context, key string, limit int) ([]models.Player, error)
	AllIDs(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
	CountPremium(ctx context.Context) (int64, error)
	Totals(ctx context.Context) (scoreSum, gamesSum int64, err error)
}

// PaymentStore is the persistence boundary for PaymentRequest records.
type PaymentStore interface {
	Get(ctx context.Context, id string) (*models.PaymentRequest, error)
	Save(ctx context.Context, p *models.PaymentRequest) error
	ListPending(ctx context.Context) ([]models.PaymentRequest, error)
	ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.PaymentRequest, error)
	CountPending(ctx context.Context) (int64, error)
}

// LeaderboardCache is an optional fast path for the top-N listing,
// refreshed by the leaderboard sync worker. Top returning an empty slice
// means "cache cold, fall back to the store".
type LeaderboardCache interface {
	Put(ctx context.Context, entries []models.LeaderboardEntry) error
	Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}
