// services/payments.go
package services

import (
	"context"
	"fmt"
	"log"

	"quiz-progression-system/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Decision is an admin's verdict on a pending payment request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// PaymentService runs the purchase workflow: submission, the admin
// approval prompt, and resolution. pending → approved|rejected, terminal
// states admit no further transition.
type PaymentService struct {
	players  *PlayerService
	store    PlayerStore
	payments PaymentStore
	admins   *AdminService
	table    models.TierTable
	notifier Notifier
	locks    *PlayerLocks
	clock    clockwork.Clock
	adminID  string // root administrator, receives approval prompts
}

func NewPaymentService(players *PlayerService, store PlayerStore, payments PaymentStore, admins *AdminService, table models.TierTable, notifier Notifier, locks *PlayerLocks, clock clockwork.Clock, adminID string) *PaymentService {
	return &PaymentService{
		players:  players,
		store:    store,
		payments: payments,
		admins:   admins,
		table:    table,
		notifier: notifier,
		locks:    locks,
		clock:    clock,
		adminID:  adminID,
	}
}

// SubmitPaymentInput is a purchase request from the mini app.
type SubmitPaymentInput struct {
	ID         string // optional client-supplied id, makes retries idempotent
	PlayerID   string
	Kind       models.PaymentKind
	TargetTier models.Tier // required for tier upgrades
	Amount     string
	Product    string
	ProofURL   string
}

// Submit records a pending payment request, marks the player's pending
// pointer, and prompts the admin. A second submission while one is still
// pending is accepted; the pending pointer tracks the most recent request.
func (s *PaymentService) Submit(ctx context.Context, in SubmitPaymentInput) (*models.PaymentRequest, error) {
	if in.PlayerID == "" {
		return nil, fmt.Errorf("missing player id: %w", ErrInvalidInput)
	}
	switch in.Kind {
	case models.PaymentKindPremium:
	case models.PaymentKindTierUpgrade:
		if _, ok := s.table.Definition(in.TargetTier); !ok {
			return nil, fmt.Errorf("unknown target tier %q: %w", in.TargetTier, ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("unknown payment kind %q: %w", in.Kind, ErrInvalidInput)
	}

	unlock := s.locks.Lock(in.PlayerID)
	defer unlock()

	id := in.ID
	if id == "" {
		id = uuid.NewString()
	} else {
		existing, err := s.payments.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load payment %s: %w", id, err)
		}
		if existing != nil {
			return existing, nil // retry of the same submission
		}
	}

	p, err := s.players.EnsurePlayer(ctx, in.PlayerID, "")
	if err != nil {
		return nil, err
	}

	pr := &models.PaymentRequest{
		ID:           id,
		PlayerID:     p.ID,
		PlayerName:   p.Name,
		PlayerAvatar: p.Avatar,
		PlayerTier:   p.Tier,
		Kind:         in.Kind,
		TargetTier:   in.TargetTier,
		Amount:       in.Amount,
		Product:      in.Product,
		ProofURL:     in.ProofURL,
		Status:       models.PaymentStatusPending,
		SubmittedAt:  s.clock.Now(),
	}
	if err := s.payments.Save(ctx, pr); err != nil {
		return nil, fmt.Errorf("save payment %s: %w", id, err)
	}

	p.PendingRequestID = &pr.ID
	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save player %s: %w", p.ID, err)
	}

	s.promptAdmin(ctx, pr)

	if _, err := s.notifier.Notify(ctx, p.ID, "✅ Request submitted! An admin is reviewing it..."); err != nil {
		log.Printf("⚠️ [PAYMENT] submission ack failed for %s: %v", p.ID, err)
	}
	return pr, nil
}

// promptAdmin sends the approval prompt and remembers its message ref so
// resolution can edit it in place. Best effort.
func (s *PaymentService) promptAdmin(ctx context.Context, pr *models.PaymentRequest) {
	text := fmt.Sprintf("💳 NEW PAYMENT REQUEST\n\n👤 Player: %s\n🆔 ID: %s\n📦 Product: %s\n💰 Amount: %s\n📅 Date: %s",
		pr.PlayerName, pr.PlayerID, pr.Product, pr.Amount, pr.SubmittedAt.Format("2006-01-02 15:04:05"))

	var ref string
	var err error
	if pr.ProofURL != "" {
		ref, err = s.notifier.NotifyPhoto(ctx, s.adminID, text, pr.ProofURL)
	} else {
		ref, err = s.notifier.Notify(ctx, s.adminID, text+"\n\n📸 No receipt attached")
	}
	if err != nil {
		log.Printf("⚠️ [PAYMENT] admin prompt failed for request %s: %v", pr.ID, err)
		return
	}
	pr.PromptRef = ref
	if err := s.payments.Save(ctx, pr); err != nil {
		log.Printf("⚠️ [PAYMENT] could not record prompt ref for %s: %v", pr.ID, err)
	}
}

// ResolveResult describes a settled decision for the caller's display.
type ResolveResult struct {
	Request *models.PaymentRequest `json:"request"`
	Player  *models.Player         `json:"player"`
}

// Resolve applies an admin decision. Unauthorized actors, unknown
// requests, and terminal requests are rejected deterministically with no
// mutation. Approval of a tier upgrade raises the score to the tier's
// lower bound when it is below it, so a purchased tier is never shown
// with an out-of-range score.
func (s *PaymentService) Resolve(ctx context.Context, requestID string, decision Decision, actorID string) (*ResolveResult, error) {
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, fmt.Errorf("unknown decision %q: %w", decision, ErrInvalidInput)
	}
	authorized, err := s.admins.IsAuthorized(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, fmt.Errorf("actor %s: %w", actorID, ErrUnauthorized)
	}

	pr, err := s.payments.Get(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load payment %s: %w", requestID, err)
	}
	if pr == nil {
		return nil, fmt.Errorf("payment %s: %w", requestID, ErrNotFound)
	}

	unlock := s.locks.Lock(pr.PlayerID)
	defer unlock()

	// Re-read under the lock: a concurrent resolve may have won.
	pr, err = s.payments.Get(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load payment %s: %w", requestID, err)
	}
	if pr == nil {
		return nil, fmt.Errorf("payment %s: %w", requestID, ErrNotFound)
	}
	if pr.Terminal() {
		return nil, fmt.Errorf("payment %s is %s: %w", requestID, pr.Status, ErrAlreadyResolved)
	}

	p, err := s.store.Get(ctx, pr.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", pr.PlayerID, err)
	}
	if p == nil {
		return nil, fmt.Errorf("player %s: %w", pr.PlayerID, ErrNotFound)
	}

	var playerMsg string
	if decision == DecisionApprove {
		switch pr.Kind {
		case models.PaymentKindPremium:
			p.IsPremium = true
			playerMsg = "🎉 PREMIUM APPROVED!\n\n✨ You now have:\n├ 2x points\n├ 5 lives\n└ Exclusive avatars\n\n🎮 Restart the game!"
		case models.PaymentKindTierUpgrade:
			def, ok := s.table.Definition(pr.TargetTier)
			if !ok {
				return nil, fmt.Errorf("unknown target tier %q: %w", pr.TargetTier, ErrInvalidInput)
			}
			p.Tier = def.Tier
			if p.Score < def.MinScore {
				p.Score = def.MinScore
			}
			playerMsg = fmt.Sprintf("🎉 %s APPROVED!\n\n%s You now have:\n├ %.1fx point multiplier\n└ The %s tier\n\n🎮 Restart the game!",
				def.Name, def.Icon, def.Multiplier, def.Name)
		}
		pr.Status = models.PaymentStatusApproved
	} else {
		pr.Status = models.PaymentStatusRejected
		playerMsg = "❌ Payment rejected\n\nReason: receipt could not be verified.\nPlease try again."
	}

	// A newer submission may have replaced the pointer; only a resolve of
	// the tracked request clears it.
	if p.PendingRequestID != nil && *p.PendingRequestID == pr.ID {
		p.PendingRequestID = nil
	}
	now := s.clock.Now()
	pr.ResolvedAt = &now
	pr.ResolvedBy = actorID

	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save player %s: %w", p.ID, err)
	}
	if err := s.payments.Save(ctx, pr); err != nil {
		return nil, fmt.Errorf("save payment %s: %w", pr.ID, err)
	}

	if _, err := s.notifier.Notify(ctx, p.ID, playerMsg); err != nil {
		log.Printf("⚠️ [PAYMENT] decision notification failed for %s: %v", p.ID, err)
	}
	if pr.PromptRef != "" {
		label := "✅ APPROVED"
		if pr.Status == models.PaymentStatusRejected {
			label = "❌ REJECTED"
		}
		edited := fmt.Sprintf("%s\n\n👤 %s\n📦 %s\n💰 %s", label, pr.PlayerName, pr.Product, pr.Amount)
		if err := s.notifier.Edit(ctx, s.adminID, pr.PromptRef, edited); err != nil {
			log.Printf("⚠️ [PAYMENT] prompt edit failed for request %s: %v", pr.ID, err)
		}
	}

	return &ResolveResult{Request: pr, Player: p}, nil
}

// ListPending returns all pending requests for the admin panel.
func (s *PaymentService) ListPending(ctx context.Context, actorID string) ([]models.PaymentRequest, error) {
	authorized, err := s.admins.IsAuthorized(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, fmt.Errorf("actor %s: %w", actorID, ErrUnauthorized)
	}
	pending, err := s.payments.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending payments: %w", err)
	}
	return pending, nil
}

// Status returns a single request for polling/streaming callers.
func (s *PaymentService) Status(ctx context.Context, requestID string) (*models.PaymentRequest, error) {
	pr, err := s.payments.Get(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load payment %s: %w", requestID, err)
	}
	if pr == nil {
		return nil, fmt.Errorf("payment %s: %w", requestID, ErrNotFound)
	}
	return pr, nil
}
