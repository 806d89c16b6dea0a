package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/kersko/storefront/internal/models"
	"github.com/kersko/storefront/internal/repo"
)

type FeedbackService struct {
	Repo *repo.GormRepo
}

func (s *FeedbackService) ListByProduct(ctx context.Context, productID uint) ([]models.Feedback, error) {
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return nil, err
	}
	return s.Repo.GetFeedbackByProduct(ctx, productID)
}

// Submit records one feedback per user and product.
func (s *FeedbackService) Submit(ctx context.Context, userID, productID, rating uint, comment string) (*models.Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return nil, err
	}

	if _, err := s.Repo.GetFeedbackByUserAndProduct(ctx, userID, productID); err == nil {
		return nil, fmt.Errorf("%w: feedback already submitted", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fb := &models.Feedback{
		UserID:    userID,
		ProductID: productID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := s.Repo.CreateFeedback(ctx, fb); err != nil {
		return nil, err
	}
	return fb, nil
}

func (s *FeedbackService) Update(ctx context.Context, userID, feedbackID, rating uint, comment string) (*models.Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}

	fb, err := s.Repo.GetFeedback(ctx, feedbackID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: feedback %d", ErrNotFound, feedbackID)
		}
		return nil, err
	}
	if fb.UserID != userID {
		return nil, fmt.Errorf("%w: feedback %d", ErrForbidden, feedbackID)
	}

	return s.Repo.UpdateFeedback(ctx, feedbackID, rating, comment)
}

func (s *FeedbackService) Delete(ctx context.Context, userID uint, role string, feedbackID uint) error {
	fb, err := s.Repo.GetFeedback(ctx, feedbackID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: feedback %d", ErrNotFound, feedbackID)
		}
		return err
	}
	if role != "admin" && fb.UserID != userID {
		return fmt.Errorf("%w: feedback %d", ErrForbidden, feedbackID)
	}
	return s.Repo.DeleteFeedback(ctx, feedbackID)
}
