// store/payment_store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quiz-progression-system/models"

	"gorm.io/gorm"
)

// PaymentStore is the PostgreSQL-backed store for payment requests.
type PaymentStore struct {
	db *gorm.DB
}

func NewPaymentStore(db *gorm.DB) *PaymentStore {
	return &PaymentStore{db: db}
}

// Get returns (nil, nil) when no request exists for id.
func (s *PaymentStore) Get(ctx context.Context, id string) (*models.PaymentRequest, error) {
	var pr models.PaymentRequest
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&pr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get payment %s: %w", id, err)
	}
	return &pr, nil
}

func (s *PaymentStore) Save(ctx context.Context, pr *models.PaymentRequest) error {
	if err := s.db.WithContext(ctx).Save(pr).Error; err != nil {
		return fmt.Errorf("save payment %s: %w", pr.ID, err)
	}
	return nil
}

func (s *PaymentStore) ListPending(ctx context.Context) ([]models.PaymentRequest, error) {
	var pending []models.PaymentRequest
	err := s.db.WithContext(ctx).
		Where("status = ?", models.PaymentStatusPending).
		Order("submitted_at ASC").
		Find(&pending).Error
	if err != nil {
		return nil, fmt.Errorf("list pending payments: %w", err)
	}
	return pending, nil
}

func (s *PaymentStore) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.PaymentRequest, error) {
	var pending []models.PaymentRequest
	err := s.db.WithContext(ctx).
		Where("status = ? AND submitted_at <= ?", models.PaymentStatusPending, cutoff).
		Order("submitted_at ASC").
		Find(&pending).Error
	if err != nil {
		return nil, fmt.Errorf("list stale pending payments: %w", err)
	}
	return pending, nil
}

func (s *PaymentStore) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.PaymentRequest{}).
		Where("status = ?", models.PaymentStatusPending).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count pending payments: %w", err)
	}
	return n, nil
}
