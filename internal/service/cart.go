package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/kersko/storefront/internal/models"
	"github.com/kersko/storefront/internal/repo"
)

type CartService struct {
	Repo *repo.GormRepo
}

func (s *CartService) GetCart(ctx context.Context, userID uint) ([]models.CartItem, error) {
	return s.Repo.GetCart(ctx, userID)
}

// AddToCart merges quantity into an existing line. The requested quantity
// plus whatever is already in the cart must not exceed available stock.
func (s *CartService) AddToCart(ctx context.Context, userID, productID, quantity uint) (*models.CartItem, error) {
	if productID == 0 {
		return nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}
	if quantity == 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}

	product, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return nil, err
	}

	var inCart uint
	if existing, err := s.Repo.GetCartItem(ctx, userID, productID); err == nil {
		inCart = existing.Quantity
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if inCart+quantity > product.Count {
		return nil, fmt.Errorf("%w: %d of %q requested, %d available",
			ErrInsufficientStock, inCart+quantity, product.Name, product.Count)
	}

	item := models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
	if err := s.Repo.AddToCart(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *CartService) IncreaseQuantity(ctx context.Context, userID, productID uint) (*models.CartItem, error) {
	return s.AddToCart(ctx, userID, productID, 1)
}

// DecreaseQuantity drops the line quantity by one, removing the line when it
// hits zero.
func (s *CartService) DecreaseQuantity(ctx context.Context, userID, productID uint) (bool, *models.CartItem, error) {
	if productID == 0 {
		return false, nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}

	deleted, item, err := s.Repo.DecreaseCartItem(ctx, userID, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil, fmt.Errorf("%w: cart item", ErrNotFound)
	}
	return deleted, item, err
}

// UpdateQuantity sets the absolute quantity; zero removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID, quantity uint) (*models.CartItem, error) {
	if productID == 0 {
		return nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}

	if quantity == 0 {
		if err := s.Remove(ctx, userID, productID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	product, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return nil, err
	}
	if quantity > product.Count {
		return nil, fmt.Errorf("%w: %d of %q requested, %d available",
			ErrInsufficientStock, quantity, product.Name, product.Count)
	}

	item, err := s.Repo.UpdateCartQuantity(ctx, userID, productID, quantity)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: cart item", ErrNotFound)
	}
	return item, err
}

func (s *CartService) Remove(ctx context.Context, userID, productID uint) error {
	err := s.Repo.RemoveFromCart(ctx, userID, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: cart item", ErrNotFound)
	}
	return err
}

func (s *CartService) Clear(ctx context.Context, userID uint) error {
	return s.Repo.ClearCart(ctx, userID)
}
