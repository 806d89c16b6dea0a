package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/kersko/storefront/internal/models"
	"github.com/kersko/storefront/internal/repo"
)

type InvoiceService struct {
	Repo *repo.GormRepo
}

func (s *InvoiceService) Overview(ctx context.Context, userID uint, limit, offset int) ([]models.Invoice, error) {
	return s.Repo.ListInvoices(ctx, userID, limit, offset)
}

// Detail returns one invoice with its items. Admins may read any invoice,
// users only their own.
func (s *InvoiceService) Detail(ctx context.Context, requesterID uint, role string, invoiceID uint) (*models.Invoice, []models.InvoiceItem, error) {
	invoice, items, err := s.Repo.GetInvoice(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: invoice %d", ErrNotFound, invoiceID)
		}
		return nil, nil, err
	}

	if role != "admin" && invoice.UserID != requesterID {
		return nil, nil, fmt.Errorf("%w: invoice %d", ErrForbidden, invoiceID)
	}
	return invoice, items, nil
}

func (s *InvoiceService) All(ctx context.Context, limit, offset int) ([]models.Invoice, error) {
	return s.Repo.ListAllInvoices(ctx, limit, offset)
}
