package services

import (
	"context"
	"testing"

	"quiz-progression-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsurePlayerDefaults(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	p, err := rig.users.EnsurePlayer(ctx, "p1", "Björn")
	require.NoError(t, err)
	assert.Equal(t, models.TierBronze, p.Tier)
	assert.Equal(t, "Björn", p.Name)
	assert.Equal(t, "bjorn", p.SearchKey) // diacritics folded for search
	assert.NotNil(t, p.Referrals)

	p, err = rig.users.EnsurePlayer(ctx, "p2", "")
	require.NoError(t, err)
	assert.Equal(t, "Player", p.Name)
}

func TestGetPlayerNotFound(t *testing.T) {
	rig := newTestRig()

	_, err := rig.users.GetPlayer(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLeaderboardFallsBackToStore(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.players.put(models.Player{ID: "p1", Name: "Anna", Score: 300})
	rig.players.put(models.Player{ID: "p2", Name: "Boris", Score: 900})
	rig.players.put(models.Player{ID: "p3", Name: "Carol", Score: 600})

	entries, err := rig.users.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "p2", entries[0].ID)
	assert.Equal(t, "p3", entries[1].ID)
}

func TestOverwriteStatsOnlyRaisesTier(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.players.put(models.Player{ID: "p1", Name: "Anna", Tier: models.TierGold, Score: 31000})

	// Pushed score below the held tier: counters update, tier stays.
	p, err := rig.users.OverwriteStats(ctx, "p1", StatsOverwrite{Score: 100, GamesPlayed: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(100), p.Score)
	assert.Equal(t, models.TierGold, p.Tier)

	// Pushed score above the held tier: tier follows the table.
	p, err = rig.users.OverwriteStats(ctx, "p1", StatsOverwrite{Score: 50000, GamesPlayed: 2})
	require.NoError(t, err)
	assert.Equal(t, models.TierPro, p.Tier)

	_, err = rig.users.OverwriteStats(ctx, "p1", StatsOverwrite{Score: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestProgress(t *testing.T) {
	rig := newTestRig()

	p := &models.Player{Tier: models.TierBronze, Score: 14000}
	prog := rig.users.Progress(p)
	require.NotNil(t, prog.Next)
	assert.Equal(t, models.TierSilver, prog.Next.Tier)
	assert.Equal(t, int64(1000), prog.Remaining)

	// Top tier has nothing above it.
	p = &models.Player{Tier: models.TierPro, Score: 50000}
	assert.Nil(t, rig.users.Progress(p).Next)

	// Score already past the boundary (purchased tier edge) clamps to 0.
	p = &models.Player{Tier: models.TierBronze, Score: 20000}
	assert.Zero(t, rig.users.Progress(p).Remaining)
}

func TestSearchNormalizesQuery(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.players.put(models.Player{ID: "p1", Name: "Björn", SearchKey: "bjorn"})

	results, err := rig.users.Search(ctx, "BJÖRN", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "p1", results[0].ID)

	_, err = rig.users.Search(ctx, "   ", 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
