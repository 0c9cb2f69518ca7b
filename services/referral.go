// services/referral.go
package services

import (
	"context"
	"fmt"
	"log"

	"quiz-progression-system/models"

	"github.com/jonboulle/clockwork"
)

const refDateLayout = "2006-01-02"

// ReferralService manages referral attribution: the one-time signup bonus
// and the 5% commission cascade on a referred player's round earnings.
// Both credit the referrer, never the referred player.
type ReferralService struct {
	players  *PlayerService
	store    PlayerStore
	table    models.TierTable
	notifier Notifier
	locks    *PlayerLocks
	clock    clockwork.Clock
}

func NewReferralService(players *PlayerService, store PlayerStore, table models.TierTable, notifier Notifier, locks *PlayerLocks, clock clockwork.Clock) *ReferralService {
	return &ReferralService{
		players:  players,
		store:    store,
		table:    table,
		notifier: notifier,
		locks:    locks,
		clock:    clock,
	}
}

// SignupResult reports what RegisterSignup did, for the caller's ack.
type SignupResult struct {
	Player     *models.Player
	Credited   bool
	Bonus      int64
	ReferrerID string
}

// RegisterSignup handles a first-contact event that may carry a referral
// code. The bonus fires at most once per (referrer, referred) pair: only a
// brand-new player can be linked, the referrer must exist and differ from
// the player, and an already-recorded pair is skipped. The referrer's
// credit is saved before any acknowledgment goes out, so the referred
// player is never welcomed ahead of the bonus being durable.
func (s *ReferralService) RegisterSignup(ctx context.Context, playerID, name, referrerID string) (*SignupResult, error) {
	if playerID == "" {
		return nil, fmt.Errorf("missing player id: %w", ErrInvalidInput)
	}
	unlock := s.locks.Lock(playerID)
	defer unlock()

	p, err := s.store.Get(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", playerID, err)
	}
	isNew := p == nil
	if isNew {
		p = newPlayer(playerID, name)
	}

	res := &SignupResult{Player: p}
	if isNew && referrerID != "" && referrerID != playerID {
		bonus, credited, linked, err := s.creditSignup(ctx, referrerID, playerID)
		if err != nil {
			return nil, err
		}
		// linked without credited means a prior attempt already made the
		// referrer's credit durable and only the player save was lost;
		// the back-link must still be written or the commission cascade
		// dies for the pair.
		if linked {
			p.ReferredBy = referrerID
		}
		if credited {
			res.Credited = true
			res.Bonus = bonus
			res.ReferrerID = referrerID
		}
	}

	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save player %s: %w", playerID, err)
	}

	if res.Credited {
		if _, err := s.notifier.Notify(ctx, referrerID, fmt.Sprintf(
			"🎉 New referral: %s!\n💰 +%s points credited right away!\n📈 You also earn 5%% of their round scores!",
			p.Name, formatPoints(res.Bonus))); err != nil {
			log.Printf("⚠️ [REFERRAL] referrer notification failed for %s: %v", referrerID, err)
		}
	}
	return res, nil
}

// creditSignup applies the signup bonus to the referrer. Acting player's
// lock is already held; the referrer is locked second. linked reports
// whether the pair is on the referrer's ledger (freshly credited or from
// an earlier attempt); credited is true only when this call paid out.
func (s *ReferralService) creditSignup(ctx context.Context, referrerID, referredID string) (bonus int64, credited, linked bool, err error) {
	unlock := s.locks.Lock(referrerID)
	defer unlock()

	ref, err := s.store.Get(ctx, referrerID)
	if err != nil {
		return 0, false, false, fmt.Errorf("load referrer %s: %w", referrerID, err)
	}
	if ref == nil {
		return 0, false, false, nil
	}
	if ref.HasReferred(referredID) {
		return 0, false, true, nil
	}

	today := s.clock.Now().Format(refDateLayout)
	if ref.LastReferralDate != today {
		ref.DailyReferralCount = 0
		ref.LastReferralDate = today
	}
	ref.DailyReferralCount++

	// Bonus follows the referrer's tier at crediting time, not at signup.
	def, ok := s.table.Definition(ref.Tier)
	if !ok {
		def = s.table.TierFor(0)
	}
	bonus = def.ReferralBonus

	ref.Score += bonus
	ref.ReferralEarnings += bonus
	ref.Referrals = append(ref.Referrals, referredID)

	if err := s.store.Save(ctx, ref); err != nil {
		return 0, false, false, fmt.Errorf("save referrer %s: %w", referrerID, err)
	}
	return bonus, true, true, nil
}

// PayCommission credits floor(scoreGain * 0.05) to the referrer. A zero
// commission is a no-op; a missing referrer silently skips the cascade.
// Caller holds the acting player's lock.
func (s *ReferralService) PayCommission(ctx context.Context, referrerID string, scoreGain int64) error {
	commission := scoreGain * 5 / 100
	if commission <= 0 {
		return nil
	}
	unlock := s.locks.Lock(referrerID)
	defer unlock()

	ref, err := s.store.Get(ctx, referrerID)
	if err != nil {
		return fmt.Errorf("load referrer %s: %w", referrerID, err)
	}
	if ref == nil {
		return nil
	}
	ref.Score += commission
	ref.ReferralEarnings += commission
	if err := s.store.Save(ctx, ref); err != nil {
		return fmt.Errorf("save referrer %s: %w", referrerID, err)
	}
	return nil
}

// DailyCount returns today's referral count for a player, resetting the
// view (not the record) when the stored date is stale.
func (s *ReferralService) DailyCount(p *models.Player) int {
	if p.LastReferralDate != s.clock.Now().Format(refDateLayout) {
		return 0
	}
	return p.DailyReferralCount
}
