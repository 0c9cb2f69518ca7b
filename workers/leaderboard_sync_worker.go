package workers

import (
	"context"
	"log"
	"time"

	"quiz-progression-system/models"
	"quiz-progression-system/services"
)

// LeaderboardSyncWorker periodically rebuilds the Redis leaderboard cache
// from the database so reads never block on a full table scan.
type LeaderboardSyncWorker struct {
	players  services.PlayerStore
	cache    services.LeaderboardCache
	interval time.Duration
	size     int
}

func NewLeaderboardSyncWorker(players services.PlayerStore, cache services.LeaderboardCache, interval time.Duration) *LeaderboardSyncWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &LeaderboardSyncWorker{
		players:  players,
		cache:    cache,
		interval: interval,
		size:     50,
	}
}

func (w *LeaderboardSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Leaderboard Sync Worker (db → redis)…")
	go w.run(ctx)
}

func (w *LeaderboardSyncWorker) run(ctx context.Context) {
	// Warm the cache immediately so the first request after boot is served.
	if err := w.rebuild(ctx); err != nil {
		log.Printf("⚠️ Initial leaderboard rebuild failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.rebuild(ctx); err != nil {
				log.Printf("❌ Leaderboard rebuild failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Leaderboard Sync Worker stopped")
			return
		}
	}
}

func (w *LeaderboardSyncWorker) rebuild(ctx context.Context) error {
	players, err := w.players.ListByScoreDesc(ctx, w.size)
	if err != nil {
		return err
	}

	entries := make([]models.LeaderboardEntry, 0, len(players))
	for i := range players {
		entries = append(entries, models.LeaderboardEntryFor(&players[i]))
	}

	if err := w.cache.Put(ctx, entries); err != nil {
		return err
	}

	log.Printf("📥 Leaderboard cache refreshed with %d entrie(s).", len(entries))
	return nil
}
