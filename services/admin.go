// services/admin.go
package services

import (
	"context"
	"fmt"
	"log"

	"quiz-progression-system/models"
)

// AdminService answers authorization questions and runs the admin command
// set. Authority comes from the fixed root administrator id or a delegated
// IsAdmin flag; only root can change who holds the flag.
type AdminService struct {
	store    PlayerStore
	payments PaymentStore
	table    models.TierTable
	notifier Notifier
	locks    *PlayerLocks
	rootID   string
}

func NewAdminService(store PlayerStore, payments PaymentStore, table models.TierTable, notifier Notifier, locks *PlayerLocks, rootID string) *AdminService {
	return &AdminService{
		store:    store,
		payments: payments,
		table:    table,
		notifier: notifier,
		locks:    locks,
		rootID:   rootID,
	}
}

// IsAuthorized reports whether actorID may approve payments or run admin
// commands.
func (s *AdminService) IsAuthorized(ctx context.Context, actorID string) (bool, error) {
	if actorID == "" {
		return false, nil
	}
	if actorID == s.rootID {
		return true, nil
	}
	p, err := s.store.Get(ctx, actorID)
	if err != nil {
		return false, fmt.Errorf("load actor %s: %w", actorID, err)
	}
	return p != nil && p.IsAdmin, nil
}

func (s *AdminService) requireAdmin(ctx context.Context, actorID string) error {
	ok, err := s.IsAuthorized(ctx, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("actor %s: %w", actorID, ErrUnauthorized)
	}
	return nil
}

// GrantBonus adjusts the target player's score by amount. Negative amounts
// are the explicit admin correction path; the score never drops below 0.
// The credit always lands on the target, not the acting admin.
func (s *AdminService) GrantBonus(ctx context.Context, actorID, targetID string, amount int64) (*models.Player, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, fmt.Errorf("zero bonus: %w", ErrInvalidInput)
	}
	unlock := s.locks.Lock(targetID)
	defer unlock()

	p, err := s.store.Get(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", targetID, err)
	}
	if p == nil {
		return nil, fmt.Errorf("player %s: %w", targetID, ErrNotFound)
	}
	p.Score += amount
	if p.Score < 0 {
		p.Score = 0
	}
	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save player %s: %w", targetID, err)
	}

	if amount > 0 {
		if _, err := s.notifier.Notify(ctx, targetID, fmt.Sprintf(
			"🎁 An admin granted you +%s points!\n\n🏆 New total: %s",
			formatPoints(amount), formatPoints(p.Score))); err != nil {
			log.Printf("⚠️ [ADMIN] bonus notification failed for %s: %v", targetID, err)
		}
	}
	return p, nil
}

// SetTier assigns a tier directly. Unlike the purchased upgrade path, the
// score is left untouched.
func (s *AdminService) SetTier(ctx context.Context, actorID, targetID string, tier models.Tier) (*models.Player, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	def, ok := s.table.Definition(tier)
	if !ok {
		return nil, fmt.Errorf("unknown tier %q: %w", tier, ErrInvalidInput)
	}
	unlock := s.locks.Lock(targetID)
	defer unlock()

	p, err := s.store.Get(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", targetID, err)
	}
	if p == nil {
		return nil, fmt.Errorf("player %s: %w", targetID, ErrNotFound)
	}
	p.Tier = def.Tier
	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save player %s: %w", targetID, err)
	}

	if _, err := s.notifier.Notify(ctx, targetID, fmt.Sprintf(
		"🎉 An admin granted you the %s %s tier!", def.Icon, def.Name)); err != nil {
		log.Printf("⚠️ [ADMIN] tier notification failed for %s: %v", targetID, err)
	}
	return p, nil
}

// SetPremium grants premium status without a payment.
func (s *AdminService) SetPremium(ctx context.Context, actorID, targetID string) (*models.Player, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(targetID)
	defer unlock()

	p, err := s.store.Get(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", targetID, err)
	}
	if p == nil {
		return nil, fmt.Errorf("player %s: %w", targetID, ErrNotFound)
	}
	p.IsPremium = true
	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save player %s: %w", targetID, err)
	}

	if _, err := s.notifier.Notify(ctx, targetID, "🎉 An admin granted you Premium!\n\n✨ You now have 2x points and 5 lives!"); err != nil {
		log.Printf("⚠️ [ADMIN] premium notification failed for %s: %v", targetID, err)
	}
	return p, nil
}

// SetAdmin grants or revokes the delegated admin flag. Root only —
// delegated admins cannot create more admins.
func (s *AdminService) SetAdmin(ctx context.Context, actorID, targetID string, grant bool) (*models.Player, error) {
	if actorID != s.rootID {
		return nil, fmt.Errorf("actor %s is not the root administrator: %w", actorID, ErrUnauthorized)
	}
	unlock := s.locks.Lock(targetID)
	defer unlock()

	p, err := s.store.Get(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", targetID, err)
	}
	if p == nil {
		return nil, fmt.Errorf("player %s: %w", targetID, ErrNotFound)
	}
	p.IsAdmin = grant
	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save player %s: %w", targetID, err)
	}

	msg := "🎉 You have been granted admin rights!"
	if !grant {
		msg = "❌ Your admin rights have been revoked."
	}
	if _, err := s.notifier.Notify(ctx, targetID, msg); err != nil {
		log.Printf("⚠️ [ADMIN] admin-flag notification failed for %s: %v", targetID, err)
	}
	return p, nil
}

// PanelStats is the admin dashboard summary.
type PanelStats struct {
	TotalPlayers    int64 `json:"total_players"`
	PremiumPlayers  int64 `json:"premium_players"`
	TotalScore      int64 `json:"total_score"`
	TotalGames      int64 `json:"total_games"`
	PendingPayments int64 `json:"pending_payments"`
}

func (s *AdminService) Stats(ctx context.Context, actorID string) (*PanelStats, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count players: %w", err)
	}
	premium, err := s.store.CountPremium(ctx)
	if err != nil {
		return nil, fmt.Errorf("count premium players: %w", err)
	}
	scoreSum, gamesSum, err := s.store.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum totals: %w", err)
	}
	pending, err := s.payments.CountPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("count pending payments: %w", err)
	}
	return &PanelStats{
		TotalPlayers:    total,
		PremiumPlayers:  premium,
		TotalScore:      scoreSum,
		TotalGames:      gamesSum,
		PendingPayments: pending,
	}, nil
}

// Broadcast sends text to every player. Root only. Delivery failures are
// counted, never fatal.
func (s *AdminService) Broadcast(ctx context.Context, actorID, text string) (sent, failed int, err error) {
	if actorID != s.rootID {
		return 0, 0, fmt.Errorf("actor %s is not the root administrator: %w", actorID, ErrUnauthorized)
	}
	if text == "" {
		return 0, 0, fmt.Errorf("empty broadcast: %w", ErrInvalidInput)
	}
	ids, err := s.store.AllIDs(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list players: %w", err)
	}
	for _, id := range ids {
		if _, err := s.notifier.Notify(ctx, id, text); err != nil {
			failed++
			continue
		}
		sent++
	}
	log.Printf("📨 [BROADCAST] done: sent=%d failed=%d", sent, failed)
	return sent, failed, nil
}
