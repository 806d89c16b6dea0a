package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kersko/storefront/internal/models"
)

func (r *GormRepo) CreateIntent(ctx context.Context, intent *models.PaymentIntent, items []models.PaymentIntentItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(intent).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].IntentID = intent.ID
		}
		return tx.Create(&items).Error
	})
}

func (r *GormRepo) GetIntent(ctx context.Context, id uuid.UUID) (*models.PaymentIntent, []models.PaymentIntentItem, error) {
	var intent models.PaymentIntent
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&intent).Error; err != nil {
		return nil, nil, err
	}

	var items []models.PaymentIntentItem
	if err := r.DB.WithContext(ctx).Where("intent_id = ?", id).Order("product_id ASC").Find(&items).Error; err != nil {
		return nil, nil, err
	}
	return &intent, items, nil
}

// GetLiveIntent returns the user's non-terminal, unexpired intent, if any.
// At most one may exist; BeginCheckout enforces that through this lookup.
func (r *GormRepo) GetLiveIntent(ctx context.Context, userID uint) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND status IN ? AND expires_at > ?",
			userID,
			[]string{models.IntentStatusCreated, models.IntentStatusAwaiting},
			time.Now().UTC(),
		).
		First(&intent).Error
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

// ExpireStaleIntents closes the user's overdue non-terminal intents so the
// live-intent uniqueness slot frees up before a new checkout begins.
func (r *GormRepo) ExpireStaleIntents(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Model(&models.PaymentIntent{}).
		Where("user_id = ? AND status IN ? AND expires_at <= ?",
			userID,
			[]string{models.IntentStatusCreated, models.IntentStatusAwaiting},
			time.Now().UTC(),
		).
		Update("status", models.IntentStatusExpired).Error
}

func (r *GormRepo) UpdateIntentProviderOrder(ctx context.Context, id uuid.UUID, providerOrderID, status string) error {
	return r.DB.WithContext(ctx).Model(&models.PaymentIntent{}).
		Where("id = ?", id).
		Updates(map[string]any{"provider_order_id": providerOrderID, "status": status}).Error
}

func (r *GormRepo) UpdateIntentStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := r.DB.WithContext(ctx).Model(&models.PaymentIntent{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
