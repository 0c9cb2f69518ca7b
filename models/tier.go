package models

import (
	"fmt"
	"math"
)

// Tier is a named progression bracket.
type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
	TierPro    Tier = "pro"
)

// TierDefinition describes one bracket of the progression economy.
// Scores in [MinScore, MaxScore) belong to the tier; the last tier's
// MaxScore is math.MaxInt64 (unbounded).
type TierDefinition struct {
	Tier          Tier    `json:"tier"`
	Name          string  `json:"name"`
	Icon          string  `json:"icon"`
	MinScore      int64   `json:"min_score"`
	MaxScore      int64   `json:"max_score"`
	Multiplier    float64 `json:"multiplier"`
	ReferralBonus int64   `json:"referral_bonus"`
}

// TierTable is the ordered set of tier definitions, lowest first.
type TierTable []TierDefinition

// DefaultTierTable matches the live game economy.
var DefaultTierTable = TierTable{
	{Tier: TierBronze, Name: "Bronze", Icon: "🥉", MinScore: 0, MaxScore: 15000, Multiplier: 1.0, ReferralBonus: 50},
	{Tier: TierSilver, Name: "Silver", Icon: "🥈", MinScore: 15000, MaxScore: 30000, Multiplier: 1.2, ReferralBonus: 75},
	{Tier: TierGold, Name: "Gold", Icon: "🥇", MinScore: 30000, MaxScore: 45000, Multiplier: 1.5, ReferralBonus: 100},
	{Tier: TierPro, Name: "Pro", Icon: "💎", MinScore: 45000, MaxScore: math.MaxInt64, Multiplier: 2.0, ReferralBonus: 150},
}

// Validate checks that the tier ranges partition [0, ∞) with no gaps or
// overlaps. Called once at startup; a bad table is a configuration error.
func (t TierTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("tier table is empty")
	}
	if t[0].MinScore != 0 {
		return fmt.Errorf("lowest tier %q must start at 0, got %d", t[0].Tier, t[0].MinScore)
	}
	for i, def := range t {
		if def.MaxScore <= def.MinScore {
			return fmt.Errorf("tier %q has empty range [%d, %d)", def.Tier, def.MinScore, def.MaxScore)
		}
		if i < len(t)-1 && def.MaxScore != t[i+1].MinScore {
			return fmt.Errorf("gap or overlap between %q and %q: %d != %d",
				def.Tier, t[i+1].Tier, def.MaxScore, t[i+1].MinScore)
		}
	}
	if t[len(t)-1].MaxScore != math.MaxInt64 {
		return fmt.Errorf("highest tier %q must be unbounded", t[len(t)-1].Tier)
	}
	return nil
}

// TierFor returns the unique definition whose range contains score.
// Negative scores map to the lowest tier.
func (t TierTable) TierFor(score int64) TierDefinition {
	for _, def := range t {
		if score >= def.MinScore && score < def.MaxScore {
			return def
		}
	}
	return t[0]
}

// Definition looks up a tier by name.
func (t TierTable) Definition(tier Tier) (TierDefinition, bool) {
	for _, def := range t {
		if def.Tier == tier {
			return def, true
		}
	}
	return TierDefinition{}, false
}

// IndexOf returns the position of tier in the order, or -1.
func (t TierTable) IndexOf(tier Tier) int {
	for i, def := range t {
		if def.Tier == tier {
			return i
		}
	}
	return -1
}

// Next returns the definition one step above tier, if any.
func (t TierTable) Next(tier Tier) (TierDefinition, bool) {
	i := t.IndexOf(tier)
	if i < 0 || i >= len(t)-1 {
		return TierDefinition{}, false
	}
	return t[i+1], true
}
