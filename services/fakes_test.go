package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"quiz-progression-system/models"

	"github.com/jonboulle/clockwork"
)

// fakePlayerStore is an in-memory PlayerStore with optional failure
// injection on Save. saveErrFor narrows the failure to one player id;
// empty means every Save fails.
type fakePlayerStore struct {
	mu         sync.Mutex
	players    map[string]models.Player
	saveErr    error
	saveErrFor string
}

func newFakePlayerStore() *fakePlayerStore {
	return &fakePlayerStore{players: map[string]models.Player{}}
}

func (f *fakePlayerStore) Get(ctx context.Context, id string) (*models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (f *fakePlayerStore) Save(ctx context.Context, p *models.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil && (f.saveErrFor == "" || f.saveErrFor == p.ID) {
		return f.saveErr
	}
	f.players[p.ID] = *p
	return nil
}

func (f *fakePlayerStore) ListByScoreDesc(ctx context.Context, limit int) ([]models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Player, 0, len(f.players))
	for _, p := range f.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakePlayerStore) SearchByKey(ctx context.Context, key string, limit int) ([]models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Player
	for _, p := range f.players {
		if strings.Contains(p.SearchKey, key) {
			out = append(out, p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakePlayerStore) AllIDs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.players))
	for id := range f.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakePlayerStore) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.players)), nil
}

func (f *fakePlayerStore) CountPremium(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, p := range f.players {
		if p.IsPremium {
			n++
		}
	}
	return n, nil
}

func (f *fakePlayerStore) Totals(ctx context.Context) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var score, games int64
	for _, p := range f.players {
		score += p.Score
		games += p.GamesPlayed
	}
	return score, games, nil
}

// put seeds a record directly, bypassing Save's failure injection.
func (f *fakePlayerStore) put(p models.Player) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.players[p.ID] = p
}

// fakePaymentStore is an in-memory PaymentStore.
type fakePaymentStore struct {
	mu       sync.Mutex
	payments map[string]models.PaymentRequest
	saveErr  error
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: map[string]models.PaymentRequest{}}
}

func (f *fakePaymentStore) Get(ctx context.Context, id string) (*models.PaymentRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pr, ok := f.payments[id]
	if !ok {
		return nil, nil
	}
	cp := pr
	return &cp, nil
}

func (f *fakePaymentStore) Save(ctx context.Context, pr *models.PaymentRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.payments[pr.ID] = *pr
	return nil
}

func (f *fakePaymentStore) ListPending(ctx context.Context) ([]models.PaymentRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PaymentRequest
	for _, pr := range f.payments {
		if pr.Status == models.PaymentStatusPending {
			out = append(out, pr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (f *fakePaymentStore) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.PaymentRequest, error) {
	all, _ := f.ListPending(ctx)
	var out []models.PaymentRequest
	for _, pr := range all {
		if pr.SubmittedAt.Before(cutoff) {
			out = append(out, pr)
		}
	}
	return out, nil
}

func (f *fakePaymentStore) CountPending(ctx context.Context) (int64, error) {
	pending, _ := f.ListPending(ctx)
	return int64(len(pending)), nil
}

type sentMessage struct {
	Recipient string
	Text      string
	PhotoURL  string
}

// recordingNotifier captures outbound messages and can be told to fail.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []sentMessage
	edits    []sentMessage
	failAll  bool
	refSeq   int
}

func (n *recordingNotifier) Notify(ctx context.Context, recipientID, text string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failAll {
		return "", fmt.Errorf("gateway down")
	}
	n.messages = append(n.messages, sentMessage{Recipient: recipientID, Text: text})
	n.refSeq++
	return fmt.Sprintf("msg-%d", n.refSeq), nil
}

func (n *recordingNotifier) NotifyPhoto(ctx context.Context, recipientID, caption, photoURL string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failAll {
		return "", fmt.Errorf("gateway down")
	}
	n.messages = append(n.messages, sentMessage{Recipient: recipientID, Text: caption, PhotoURL: photoURL})
	n.refSeq++
	return fmt.Sprintf("msg-%d", n.refSeq), nil
}

func (n *recordingNotifier) Edit(ctx context.Context, recipientID, messageRef, newText string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failAll {
		return fmt.Errorf("gateway down")
	}
	n.edits = append(n.edits, sentMessage{Recipient: recipientID, Text: newText})
	return nil
}

func (n *recordingNotifier) sentTo(recipient string) []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentMessage
	for _, m := range n.messages {
		if m.Recipient == recipient {
			out = append(out, m)
		}
	}
	return out
}

const testRootAdminID = "admin-root"

// testRig wires the full service graph over in-memory fakes.
type testRig struct {
	players    *fakePlayerStore
	payments   *fakePaymentStore
	notifier   *recordingNotifier
	clock      *clockwork.FakeClock
	users      *PlayerService
	referral   *ReferralService
	settlement *SettlementService
	admin      *AdminService
	payment    *PaymentService
}

func newTestRig() *testRig {
	players := newFakePlayerStore()
	payments := newFakePaymentStore()
	notifier := &recordingNotifier{}
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	locks := NewPlayerLocks()
	table := models.DefaultTierTable
	rank := NewRankEngine(table)

	users := NewPlayerService(players, nil, table, locks)
	referral := NewReferralService(users, players, table, notifier, locks, clock)
	settlement := NewSettlementService(users, players, rank, referral, notifier, locks, clock)
	admin := NewAdminService(players, payments, table, notifier, locks, testRootAdminID)
	payment := NewPaymentService(users, players, payments, admin, table, notifier, locks, clock, testRootAdminID)

	return &testRig{
		players:    players,
		payments:   payments,
		notifier:   notifier,
		clock:      clock,
		users:      users,
		referral:   referral,
		settlement: settlement,
		admin:      admin,
		payment:    payment,
	}
}
