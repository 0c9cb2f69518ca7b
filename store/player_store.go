// store/player_store.go
package store

import (
	"context"
	"errors"
	"fmt"

	"quiz-progression-system/models"

	"gorm.io/gorm"
)

// PlayerStore is the PostgreSQL-backed store for player records. Stores
// only do DB work; all progression rules live in the services.
type PlayerStore struct {
	db *gorm.DB
}

func NewPlayerStore(db *gorm.DB) *PlayerStore {
	return &PlayerStore{db: db}
}

// Get returns (nil, nil) when no record exists for id.
func (s *PlayerStore) Get(ctx context.Context, id string) (*models.Player, error) {
	var p models.Player
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get player %s: %w", id, err)
	}
	return &p, nil
}

// Save upserts the player record by primary key.
func (s *PlayerStore) Save(ctx context.Context, p *models.Player) error {
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("save player %s: %w", p.ID, err)
	}
	return nil
}

func (s *PlayerStore) ListByScoreDesc(ctx context.Context, limit int) ([]models.Player, error) {
	var players []models.Player
	err := s.db.WithContext(ctx).
		Order("score DESC").
		Limit(limit).
		Find(&players).Error
	if err != nil {
		return nil, fmt.Errorf("list players by score: %w", err)
	}
	return players, nil
}

func (s *PlayerStore) SearchByKey(ctx context.Context, key string, limit int) ([]models.Player, error) {
	var players []models.Player
	err := s.db.WithContext(ctx).
		Where("search_key LIKE ?", "%"+key+"%").
		Order("score DESC").
		Limit(limit).
		Find(&players).Error
	if err != nil {
		return nil, fmt.Errorf("search players: %w", err)
	}
	return players, nil
}

func (s *PlayerStore) AllIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.Player{}).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list player ids: %w", err)
	}
	return ids, nil
}

func (s *PlayerStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Player{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return n, nil
}

func (s *PlayerStore) CountPremium(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.Player{}).
		Where("is_premium = ?", true).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count premium players: %w", err)
	}
	return n, nil
}

// Totals returns the score and games-played sums across all players.
func (s *PlayerStore) Totals(ctx context.Context) (int64, int64, error) {
	var out struct {
		ScoreSum int64
		GamesSum int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Player{}).
		Select("COALESCE(SUM(score), 0) AS score_sum, COALESCE(SUM(games_played), 0) AS games_sum").
		Scan(&out).Error
	if err != nil {
		return 0, 0, fmt.Errorf("sum player totals: %w", err)
	}
	return out.ScoreSum, out.GamesSum, nil
}
