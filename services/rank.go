// services/rank.go
package services

import "quiz-progression-system/models"

// RankEngine computes tiers from cumulative score. It is pure: all state
// lives in the table, validated at startup.
type RankEngine struct {
	Table models.TierTable
}

func NewRankEngine(table models.TierTable) *RankEngine {
	return &RankEngine{Table: table}
}

// TierFor returns the definition whose [min, max) range contains score.
func (r *RankEngine) TierFor(score int64) models.TierDefinition {
	return r.Table.TierFor(score)
}

// HasAdvanced reports whether newTier is strictly later than oldTier.
// Advancement is one-directional: settlement never downgrades a tier, so a
// purchased tier above the player's score range is preserved.
func (r *RankEngine) HasAdvanced(oldTier, newTier models.Tier) bool {
	return r.Table.IndexOf(newTier) > r.Table.IndexOf(oldTier)
}
