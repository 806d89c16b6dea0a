package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/kersko/storefront/internal/models"
)

func (r *GormRepo) CreateFeedback(ctx context.Context, fb *models.Feedback) error {
	return r.DB.WithContext(ctx).Create(fb).Error
}

func (r *GormRepo) GetFeedbackByProduct(ctx context.Context, productID uint) ([]models.Feedback, error) {
	var feedback []models.Feedback
	if err := r.DB.WithContext(ctx).Where("product_id = ?", productID).
		Order("created_at DESC").Find(&feedback).Error; err != nil {
		return nil, err
	}
	return feedback, nil
}

func (r *GormRepo) GetFeedbackByUserAndProduct(ctx context.Context, userID, productID uint) (*models.Feedback, error) {
	var fb models.Feedback
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).First(&fb).Error; err != nil {
		return nil, err
	}
	return &fb, nil
}

func (r *GormRepo) GetFeedback(ctx context.Context, id uint) (*models.Feedback, error) {
	var fb models.Feedback
	if err := r.DB.WithContext(ctx).First(&fb, id).Error; err != nil {
		return nil, err
	}
	return &fb, nil
}

func (r *GormRepo) UpdateFeedback(ctx context.Context, id uint, rating uint, comment string) (*models.Feedback, error) {
	var fb models.Feedback
	if err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&fb, id).Error; err != nil {
			return err
		}
		return tx.Model(&fb).Updates(map[string]any{"rating": rating, "comment": comment}).Error
	}); err != nil {
		return nil, err
	}
	return &fb, nil
}

func (r *GormRepo) DeleteFeedback(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Feedback{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
