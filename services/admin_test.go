package services

import (
	"context"
	"testing"

	"quiz-progression-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAuthorized(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.players.put(models.Player{ID: "mod-1", IsAdmin: true})
	rig.players.put(models.Player{ID: "p1"})

	for _, tc := range []struct {
		actor string
		want  bool
	}{
		{testRootAdminID, true},
		{"mod-1", true},
		{"p1", false},
		{"ghost", false},
		{"", false},
	} {
		got, err := rig.admin.IsAuthorized(ctx, tc.actor)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "actor %q", tc.actor)
	}
}

func TestGrantBonusCreditsTarget(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.players.put(models.Player{ID: "p1", Name: "Anna", Score: 100})

	p, err := rig.admin.GrantBonus(ctx, testRootAdminID, "p1", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1100), p.Score)

	// The credit lands on the target, never on the acting admin.
	admin, _ := rig.players.Get(ctx, testRootAdminID)
	assert.Nil(t, admin)

	msgs := rig.notifier.sentTo("p1")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "1,000")
}

func TestGrantBonusNegativeClampsAtZero(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.players.put(models.Player{ID: "p1", Name: "Anna", Score: 300})

	p, err := rig.admin.GrantBonus(ctx, testRootAdminID, "p1", -500)
	require.NoError(t, err)
	assert.Zero(t, p.Score)

	// Deductions go out silently.
	assert.Empty(t, rig.notifier.sentTo("p1"))
}

func TestGrantBonusValidation(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.players.put(models.Player{ID: "p1"})

	_, err := rig.admin.GrantBonus(ctx, testRootAdminID, "p1", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = rig.admin.GrantBonus(ctx, "p1", "p1", 100)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = rig.admin.GrantBonus(ctx, testRootAdminID, "ghost", 100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetTierLeavesScoreUntouched(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.players.put(models.Player{ID: "p1", Name: "Anna", Tier: models.TierBronze, Score: 1200})

	p, err := rig.admin.SetTier(ctx, testRootAdminID, "p1", models.TierPro)
	require.NoError(t, err)
	assert.Equal(t, models.TierPro, p.Tier)
	assert.Equal(t, int64(1200), p.Score) // no floor raise on the admin path

	_, err = rig.admin.SetTier(ctx, testRootAdminID, "p1", "platinum")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSetPremium(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.players.put(models.Player{ID: "p1", Name: "Anna"})

	p, err := rig.admin.SetPremium(ctx, testRootAdminID, "p1")
	require.NoError(t, err)
	assert.True(t, p.IsPremium)
}

func TestSetAdminIsRootOnly(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.players.put(models.Player{ID: "mod-1", Name: "Mod", IsAdmin: true})
	rig.players.put(models.Player{ID: "p1", Name: "Anna"})

	// A delegated admin cannot mint more admins.
	_, err := rig.admin.SetAdmin(ctx, "mod-1", "p1", true)
	assert.ErrorIs(t, err, ErrUnauthorized)

	p, err := rig.admin.SetAdmin(ctx, testRootAdminID, "p1", true)
	require.NoError(t, err)
	assert.True(t, p.IsAdmin)

	ok, _ := rig.admin.IsAuthorized(ctx, "p1")
	assert.True(t, ok)

	p, err = rig.admin.SetAdmin(ctx, testRootAdminID, "p1", false)
	require.NoError(t, err)
	assert.False(t, p.IsAdmin)

	ok, _ = rig.admin.IsAuthorized(ctx, "p1")
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.players.put(models.Player{ID: "p1", Score: 100, GamesPlayed: 3, IsPremium: true})
	rig.players.put(models.Player{ID: "p2", Score: 250, GamesPlayed: 7})
	_, err := rig.payment.Submit(ctx, SubmitPaymentInput{PlayerID: "p1", Kind: models.PaymentKindPremium})
	require.NoError(t, err)

	stats, err := rig.admin.Stats(ctx, testRootAdminID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalPlayers)
	assert.Equal(t, int64(1), stats.PremiumPlayers)
	assert.Equal(t, int64(350), stats.TotalScore)
	assert.Equal(t, int64(10), stats.TotalGames)
	assert.Equal(t, int64(1), stats.PendingPayments)

	_, err = rig.admin.Stats(ctx, "p2")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestBroadcast(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.players.put(models.Player{ID: "p1"})
	rig.players.put(models.Player{ID: "p2"})
	rig.players.put(models.Player{ID: "p3"})

	sent, failed, err := rig.admin.Broadcast(ctx, testRootAdminID, "Maintenance tonight at 22:00 UTC")
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	assert.Zero(t, failed)

	_, _, err = rig.admin.Broadcast(ctx, testRootAdminID, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	rig.players.put(models.Player{ID: "mod-1", IsAdmin: true})
	_, _, err = rig.admin.Broadcast(ctx, "mod-1", "hi")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
