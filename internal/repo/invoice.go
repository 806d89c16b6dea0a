package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kersko/storefront/internal/models"
)

// CreateInvoice writes the invoice row and all of its items in a single
// transaction; either everything is visible or nothing is.
func (r *GormRepo) CreateInvoice(ctx context.Context, invoice *models.Invoice, items []models.InvoiceItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if invoice.CreatedAt.IsZero() {
			invoice.CreatedAt = time.Now().UTC()
		}
		if err := tx.Create(invoice).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].InvoiceID = invoice.ID
		}
		return tx.Create(&items).Error
	})
}

func (r *GormRepo) GetInvoice(ctx context.Context, id uint) (*models.Invoice, []models.InvoiceItem, error) {
	var invoice models.Invoice
	if err := r.DB.WithContext(ctx).First(&invoice, id).Error; err != nil {
		return nil, nil, err
	}

	var items []models.InvoiceItem
	if err := r.DB.WithContext(ctx).Where("invoice_id = ?", id).Order("product_id ASC").Find(&items).Error; err != nil {
		return nil, nil, err
	}
	return &invoice, items, nil
}

// GetInvoiceByRef is the idempotency probe: a payment reference settles at
// most once.
func (r *GormRepo) GetInvoiceByRef(ctx context.Context, ref string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.DB.WithContext(ctx).Where("payment_ref = ?", ref).First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *GormRepo) ListInvoices(ctx context.Context, userID uint, limit, offset int) ([]models.Invoice, error) {
	var invoices []models.Invoice
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *GormRepo) ListAllInvoices(ctx context.Context, limit, offset int) ([]models.Invoice, error) {
	var invoices []models.Invoice
	if err := r.DB.WithContext(ctx).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}
