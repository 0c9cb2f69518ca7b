// services/settlement.go
package services

import (
	"context"
	"fmt"
	"log"

	"quiz-progression-system/models"

	"github.com/jonboulle/clockwork"
)

// RoundOutcome is the payload of a finished game round. All counters are
// non-negative; a zero ScoreGain is valid.
type RoundOutcome struct {
	ScoreGain   int64 `json:"score_gain"`
	Correct     int64 `json:"correct"`
	Wrong       int64 `json:"wrong"`
	FinalStreak int64 `json:"streak"`
}

// SettlementResult is what the caller displays after a settled round.
type SettlementResult struct {
	Player       *models.Player        `json:"player"`
	ScoreGain    int64                 `json:"score_gain"`
	Accuracy     int                   `json:"accuracy"`
	TierAdvanced bool                  `json:"tier_advanced"`
	Tier         models.TierDefinition `json:"tier"`
}

// SettlementService applies finished-round outcomes to player records.
// One settlement is one unit of work: a single player write at the end,
// plus the commission cascade touching the referrer's record. There is no
// rollback; a failed save means the round was not applied and the caller
// must not report success. Re-delivery double-credits, so callers
// deduplicate by event id before invoking SettleRound.
type SettlementService struct {
	players   *PlayerService
	store     PlayerStore
	rank      *RankEngine
	referrals *ReferralService
	notifier  Notifier
	locks     *PlayerLocks
	clock     clockwork.Clock
}

func NewSettlementService(players *PlayerService, store PlayerStore, rank *RankEngine, referrals *ReferralService, notifier Notifier, locks *PlayerLocks, clock clockwork.Clock) *SettlementService {
	return &SettlementService{
		players:   players,
		store:     store,
		rank:      rank,
		referrals: referrals,
		notifier:  notifier,
		locks:     locks,
		clock:     clock,
	}
}

// SettleRound accumulates the outcome into the player record, advances the
// tier when crossed (final tier only, never down), runs the commission
// cascade, and persists the player once. Notifications go out only after
// the save and their failures never unwind the settlement.
func (s *SettlementService) SettleRound(ctx context.Context, playerID string, outcome RoundOutcome) (*SettlementResult, error) {
	if playerID == "" {
		return nil, fmt.Errorf("missing player id: %w", ErrInvalidInput)
	}
	if outcome.ScoreGain < 0 || outcome.Correct < 0 || outcome.Wrong < 0 || outcome.FinalStreak < 0 {
		return nil, fmt.Errorf("negative outcome fields: %w", ErrInvalidInput)
	}

	unlock := s.locks.Lock(playerID)
	defer unlock()

	p, err := s.store.Get(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", playerID, err)
	}
	if p == nil {
		p = newPlayer(playerID, "")
	}

	p.Score += outcome.ScoreGain
	p.GamesPlayed++
	p.CorrectCount += outcome.Correct
	p.WrongCount += outcome.Wrong
	p.Streak = outcome.FinalStreak

	// A record with an empty or unknown tier (legacy import, hand edit)
	// holds the lowest tier; reaching it is not an advancement.
	if s.rank.Table.IndexOf(p.Tier) < 0 {
		p.Tier = s.rank.Table.TierFor(0).Tier
	}

	oldTier := p.Tier
	newDef := s.rank.TierFor(p.Score)
	advanced := s.rank.HasAdvanced(oldTier, newDef.Tier)
	if advanced {
		p.Tier = newDef.Tier
	}

	if p.ReferredBy != "" {
		if err := s.referrals.PayCommission(ctx, p.ReferredBy, outcome.ScoreGain); err != nil {
			return nil, fmt.Errorf("commission cascade for %s: %w", playerID, err)
		}
	}

	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("settle round for %s: %w", playerID, err)
	}

	if advanced {
		if _, err := s.notifier.Notify(ctx, playerID, fmt.Sprintf(
			"🎉 CONGRATULATIONS!\n\n%s You reached the %s tier!\n✨ You now earn %.1fx points!",
			newDef.Icon, newDef.Name, newDef.Multiplier)); err != nil {
			log.Printf("⚠️ [SETTLE] tier-up notification failed for %s: %v", playerID, err)
		}
	}
	if _, err := s.notifier.Notify(ctx, playerID, fmt.Sprintf(
		"🎮 ROUND OVER!\n\n⭐ Points: +%s\n✅ Correct: %d\n❌ Wrong: %d\n🎯 Accuracy: %d%%\n\n🏆 Total: %s",
		formatPoints(outcome.ScoreGain), outcome.Correct, outcome.Wrong, p.Accuracy(), formatPoints(p.Score))); err != nil {
		log.Printf("⚠️ [SETTLE] summary notification failed for %s: %v", playerID, err)
	}

	def, ok := s.rank.Table.Definition(p.Tier)
	if !ok {
		def = newDef
	}
	return &SettlementResult{
		Player:       p,
		ScoreGain:    outcome.ScoreGain,
		Accuracy:     p.Accuracy(),
		TierAdvanced: advanced,
		Tier:         def,
	}, nil
}
