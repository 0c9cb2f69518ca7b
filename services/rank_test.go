package services

import (
	"testing"

	"quiz-progression-system/models"

	"github.com/stretchr/testify/assert"
)

func TestRankEngineTierFor(t *testing.T) {
	r := NewRankEngine(models.DefaultTierTable)

	assert.Equal(t, models.TierBronze, r.TierFor(0).Tier)
	assert.Equal(t, models.TierSilver, r.TierFor(15000).Tier)
	assert.Equal(t, models.TierPro, r.TierFor(45000).Tier)
}

func TestHasAdvancedIsOneDirectional(t *testing.T) {
	r := NewRankEngine(models.DefaultTierTable)

	assert.True(t, r.HasAdvanced(models.TierBronze, models.TierSilver))
	assert.True(t, r.HasAdvanced(models.TierBronze, models.TierPro))
	assert.False(t, r.HasAdvanced(models.TierSilver, models.TierSilver))
	// A purchased tier above the score range never falls back.
	assert.False(t, r.HasAdvanced(models.TierGold, models.TierBronze))
}
