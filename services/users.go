// services/users.go
package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"quiz-progression-system/models"

	"github.com/gosimple/unidecode"
)

const (
	defaultName   = "Player"
	defaultAvatar = "🦊"
)

// PlayerService owns player lifecycle and the read-side views (profile,
// leaderboard, search).
type PlayerService struct {
	players PlayerStore
	cache   LeaderboardCache // nil when Redis is not configured
	table   models.TierTable
	locks   *PlayerLocks
}

func NewPlayerService(players PlayerStore, cache LeaderboardCache, table models.TierTable, locks *PlayerLocks) *PlayerService {
	return &PlayerService{players: players, cache: cache, table: table, locks: locks}
}

// searchKey normalizes a display name for admin search.
func searchKey(name string) string {
	return strings.ToLower(strings.TrimSpace(unidecode.Unidecode(name)))
}

// newPlayer builds a defaulted record for a first-contact identity.
func newPlayer(id, name string) *models.Player {
	if name == "" {
		name = defaultName
	}
	return &models.Player{
		ID:        id,
		Name:      name,
		Avatar:    defaultAvatar,
		Tier:      models.TierBronze,
		Referrals: []string{},
		SearchKey: searchKey(name),
	}
}

// EnsurePlayer returns the record for id, creating it with defaults on
// first contact. Callers that mutate the result must hold the player's
// lock.
func (s *PlayerService) EnsurePlayer(ctx context.Context, id, name string) (*models.Player, error) {
	p, err := s.players.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", id, err)
	}
	if p != nil {
		return p, nil
	}
	p = newPlayer(id, name)
	if err := s.players.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("create player %s: %w", id, err)
	}
	return p, nil
}

// GetPlayer returns the record for id or ErrNotFound.
func (s *PlayerService) GetPlayer(ctx context.Context, id string) (*models.Player, error) {
	p, err := s.players.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", id, err)
	}
	if p == nil {
		return nil, fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	return p, nil
}

// Leaderboard returns the top players by score, preferring the Redis
// cache and falling back to the store when the cache is cold or down.
func (s *PlayerService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if s.cache != nil {
		entries, err := s.cache.Top(ctx, limit)
		if err != nil {
			log.Printf("⚠️ [LEADERBOARD] cache read failed, falling back to store: %v", err)
		} else if len(entries) > 0 {
			return entries, nil
		}
	}
	players, err := s.players.ListByScoreDesc(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list leaderboard: %w", err)
	}
	entries := make([]models.LeaderboardEntry, len(players))
	for i := range players {
		entries[i] = models.LeaderboardEntryFor(&players[i])
	}
	return entries, nil
}

// Search finds players whose normalized name contains q.
func (s *PlayerService) Search(ctx context.Context, q string, limit int) ([]models.Player, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	key := searchKey(q)
	if key == "" {
		return nil, fmt.Errorf("empty search query: %w", ErrInvalidInput)
	}
	players, err := s.players.SearchByKey(ctx, key, limit)
	if err != nil {
		return nil, fmt.Errorf("search players: %w", err)
	}
	return players, nil
}

// TierProgress describes how far a player is from the next tier. Next is
// nil at the top tier.
type TierProgress struct {
	Next      *models.TierDefinition `json:"next,omitempty"`
	Remaining int64                  `json:"remaining,omitempty"`
}

// Progress computes the distance to the next tier boundary. A purchased
// tier above the score range reports the full distance to that tier's
// successor.
func (s *PlayerService) Progress(p *models.Player) TierProgress {
	next, ok := s.table.Next(p.Tier)
	if !ok {
		return TierProgress{}
	}
	remaining := next.MinScore - p.Score
	if remaining < 0 {
		remaining = 0
	}
	return TierProgress{Next: &next, Remaining: remaining}
}

// StatsOverwrite is the legacy mini-app full-state push: the client owns
// the round mechanics and periodically mirrors its local totals back.
type StatsOverwrite struct {
	Score       int64  `json:"score"`
	GamesPlayed int64  `json:"games_played"`
	Correct     int64  `json:"correct"`
	Wrong       int64  `json:"wrong"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
}

// OverwriteStats replaces the player's counters with the pushed state.
// The tier is recomputed rather than trusted from the payload, and only
// ever moves up here.
func (s *PlayerService) OverwriteStats(ctx context.Context, id string, in StatsOverwrite) (*models.Player, error) {
	if in.Score < 0 || in.GamesPlayed < 0 || in.Correct < 0 || in.Wrong < 0 {
		return nil, fmt.Errorf("negative counters: %w", ErrInvalidInput)
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	p, err := s.EnsurePlayer(ctx, id, in.Name)
	if err != nil {
		return nil, err
	}
	p.Score = in.Score
	p.GamesPlayed = in.GamesPlayed
	p.CorrectCount = in.Correct
	p.WrongCount = in.Wrong
	if in.Name != "" {
		p.Name = in.Name
		p.SearchKey = searchKey(in.Name)
	}
	if in.Avatar != "" {
		p.Avatar = in.Avatar
	}
	computed := s.table.TierFor(p.Score)
	if s.table.IndexOf(computed.Tier) > s.table.IndexOf(p.Tier) {
		p.Tier = computed.Tier
	}
	if err := s.players.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save player %s: %w", id, err)
	}
	return p, nil
}
