package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"quiz-progression-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettleRoundAccumulates(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.players.put(models.Player{ID: "p1", Name: "Anna", Tier: models.TierBronze, Score: 100, GamesPlayed: 2})

	res, err := rig.settlement.SettleRound(ctx, "p1", RoundOutcome{
		ScoreGain: 400, Correct: 8, Wrong: 2, FinalStreak: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(500), res.Player.Score)
	assert.Equal(t, int64(3), res.Player.GamesPlayed)
	assert.Equal(t, int64(5), res.Player.Streak)
	assert.Equal(t, 80, res.Accuracy)
	assert.False(t, res.TierAdvanced)

	saved, _ := rig.players.Get(ctx, "p1")
	assert.Equal(t, int64(500), saved.Score)
}

func TestSettleRoundCreatesPlayerOnFirstContact(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	res, err := rig.settlement.SettleRound(ctx, "fresh", RoundOutcome{ScoreGain: 50, Correct: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(50), res.Player.Score)
	assert.Equal(t, models.TierBronze, res.Player.Tier)

	saved, _ := rig.players.Get(ctx, "fresh")
	require.NotNil(t, saved)
}

func TestSettleRoundAdvancesTier(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.players.put(models.Player{ID: "p1", Name: "Anna", Tier: models.TierBronze, Score: 14900})

	res, err := rig.settlement.SettleRound(ctx, "p1", RoundOutcome{ScoreGain: 200, Correct: 4})
	require.NoError(t, err)
	assert.True(t, res.TierAdvanced)
	assert.Equal(t, models.TierSilver, res.Player.Tier)
	assert.Equal(t, models.TierSilver, res.Tier.Tier)

	msgs := rig.notifier.sentTo("p1")
	require.Len(t, msgs, 2) // tier-up congratulation plus round summary
	assert.Contains(t, msgs[0].Text, "Silver")
}

func TestSettleRoundSkipsIntermediateTiers(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.players.put(models.Player{ID: "p1", Name: "Anna", Tier: models.TierBronze, Score: 0})

	res, err := rig.settlement.SettleRound(ctx, "p1", RoundOutcome{ScoreGain: 46000, Correct: 100})
	require.NoError(t, err)
	assert.True(t, res.TierAdvanced)
	assert.Equal(t, models.TierPro, res.Player.Tier)

	// One congratulation for the final tier, not one per crossed boundary.
	msgs := rig.notifier.sentTo("p1")
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Text, "Pro")
	assert.NotContains(t, msgs[0].Text, "Silver")
}

func TestSettleRoundNeverDowngradesPurchasedTier(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	// Tier bought via an approved upgrade, score still below its range.
	rig.players.put(models.Player{ID: "p1", Name: "Anna", Tier: models.TierGold, Score: 30000})

	res, err := rig.settlement.SettleRound(ctx, "p1", RoundOutcome{ScoreGain: 10, Correct: 1})
	require.NoError(t, err)
	assert.False(t, res.TierAdvanced)
	assert.Equal(t, models.TierGold, res.Player.Tier)
	assert.Equal(t, models.TierGold, res.Tier.Tier)

	msgs := rig.notifier.sentTo("p1")
	require.Len(t, msgs, 1) // summary only, no tier-up message
}

func TestSettleRoundPaysCommission(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.players.put(models.Player{ID: "A", Name: "Anna", Score: 200})
	rig.players.put(models.Player{ID: "B", Name: "Boris", ReferredBy: "A"})

	_, err := rig.settlement.SettleRound(ctx, "B", RoundOutcome{ScoreGain: 1000, Correct: 20})
	require.NoError(t, err)

	referrer, _ := rig.players.Get(ctx, "A")
	assert.Equal(t, int64(250), referrer.Score) // +floor(1000*0.05)
	assert.Equal(t, int64(50), referrer.ReferralEarnings)

	// The cascade is silent; only the acting player hears about the round.
	assert.Empty(t, rig.notifier.sentTo("A"))
}

func TestSettleRoundRejectsNegativeOutcome(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	for _, outcome := range []RoundOutcome{
		{ScoreGain: -1},
		{Correct: -1},
		{Wrong: -1},
		{FinalStreak: -1},
	} {
		_, err := rig.settlement.SettleRound(ctx, "p1", outcome)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}

	_, err := rig.settlement.SettleRound(ctx, "", RoundOutcome{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSettleRoundSaveFailureIsReported(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.players.put(models.Player{ID: "p1", Name: "Anna"})
	rig.players.saveErr = fmt.Errorf("connection reset")

	_, err := rig.settlement.SettleRound(ctx, "p1", RoundOutcome{ScoreGain: 100})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidInput))

	// No success messages go out for an unapplied round.
	assert.Empty(t, rig.notifier.sentTo("p1"))
}

func TestSettleRoundNotificationFailureDoesNotUnwind(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.players.put(models.Player{ID: "p1", Name: "Anna", Score: 100})
	rig.notifier.failAll = true

	res, err := rig.settlement.SettleRound(ctx, "p1", RoundOutcome{ScoreGain: 400, Correct: 8})
	require.NoError(t, err)
	assert.Equal(t, int64(500), res.Player.Score)

	saved, _ := rig.players.Get(ctx, "p1")
	assert.Equal(t, int64(500), saved.Score)
}

func TestSettleRoundNormalizesUnknownStoredTier(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	// Record without a tier, as a legacy import would leave it.
	rig.players.put(models.Player{ID: "p1", Name: "Anna", Score: 100})

	res, err := rig.settlement.SettleRound(ctx, "p1", RoundOutcome{ScoreGain: 50, Correct: 1})
	require.NoError(t, err)
	assert.Equal(t, models.TierBronze, res.Player.Tier)
	assert.False(t, res.TierAdvanced)

	// Landing on the lowest tier is a repair, not an advancement: no
	// congratulation, only the round summary.
	msgs := rig.notifier.sentTo("p1")
	require.Len(t, msgs, 1)

	saved, _ := rig.players.Get(ctx, "p1")
	assert.Equal(t, models.TierBronze, saved.Tier)
}

func TestSettleRoundZeroGainStillCountsTheGame(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.players.put(models.Player{ID: "p1", Name: "Anna", Tier: models.TierBronze, ReferredBy: "A"})

	res, err := rig.settlement.SettleRound(ctx, "p1", RoundOutcome{Wrong: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Player.GamesPlayed)
	assert.Zero(t, res.Player.Score)

	// Zero commission writes nothing, even with a referrer on record.
	summary := rig.notifier.sentTo("p1")
	require.Len(t, summary, 1)
	assert.True(t, strings.Contains(summary[0].Text, "+0"))
}
