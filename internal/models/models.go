package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string  `gorm:"not null"                  json:"name"`
	Description string  `json:"description"`
	Category    string  `gorm:"index"                     json:"category"`
	Image       string  `json:"image"`
	Price       float64 `gorm:"not null"                  json:"price"`
	Count       uint    `json:"count"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	Email        string `gorm:"not null"                 json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Address      string `json:"address"`
	Contact      string `json:"contact"`
	Role         string `gorm:"not null"                 json:"role"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"      json:"id"`
	Token     string    `gorm:"unique;not null" json:"token"`
	UserID    uint      `gorm:"index;not null"  json:"user_id"`
	Role      string    `gorm:"not null"        json:"role"`
	ExpiresAt time.Time `gorm:"not null"        json:"expires_at"`
	Revoked   bool      `gorm:"default:false"   json:"revoked"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey"                             json:"id"`
	UserID    uint `gorm:"uniqueIndex:idx_user_product;not null"  json:"user_id"`
	ProductID uint `gorm:"uniqueIndex:idx_user_product;not null"  json:"product_id"`
	Quantity  uint `gorm:"default:1;check:quantity>0"             json:"quantity"`
}

// Payment intent lifecycle. An intent is the durable record that a payment is
// in flight; exactly one non-terminal intent may exist per user, enforced by
// a partial unique index on the live statuses.
const (
	IntentStatusCreated  = "CREATED"
	IntentStatusAwaiting = "AWAITING_PROVIDER"
	IntentStatusSettled  = "SETTLED"
	IntentStatusFailed   = "FAILED"
	IntentStatusExpired  = "EXPIRED"
)

type PaymentIntent struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uint      `gorm:"index;not null;uniqueIndex:uniq_live_intent_per_user,where:status = 'CREATED' OR status = 'AWAITING_PROVIDER'" json:"user_id"`
	Method          string    `gorm:"not null"             json:"method"`
	Status          string    `gorm:"not null"             json:"status"`
	CartTotal       float64   `gorm:"not null"             json:"cart_total"`
	ProviderOrderID string    `gorm:"index"                json:"provider_order_id"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `gorm:"not null"             json:"expires_at"`
}

func (i *PaymentIntent) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// PaymentIntentItem snapshots product and quantity only. Prices are
// recomputed from the catalog at settlement, never read from the snapshot.
type PaymentIntentItem struct {
	ID        uint      `gorm:"primaryKey"                 json:"id"`
	IntentID  uuid.UUID `gorm:"type:uuid;index;not null"   json:"intent_id"`
	ProductID uint      `gorm:"not null"                   json:"product_id"`
	Quantity  uint      `gorm:"check:quantity>0"           json:"quantity"`
}

// Invoice is immutable once written. PaymentRef carries the provider
// reference; the unique index is the guard against double settlement.
type Invoice struct {
	ID            uint      `gorm:"primaryKey"     json:"id"`
	UserID        uint      `gorm:"index;not null" json:"user_id"`
	TotalAmount   float64   `gorm:"not null"       json:"total_amount"`
	PaymentMethod string    `gorm:"not null"       json:"payment_method"`
	PaymentStatus string    `gorm:"not null"       json:"payment_status"`
	PaymentRef    *string   `gorm:"uniqueIndex"    json:"payment_ref"`
	CreatedAt     time.Time `json:"created_at"`
	PaidAt        time.Time `json:"paid_at"`
}

type InvoiceItem struct {
	ID        uint    `gorm:"primaryKey"     json:"id"`
	InvoiceID uint    `gorm:"index;not null" json:"invoice_id"`
	ProductID uint    `gorm:"not null"       json:"product_id"`
	Quantity  uint    `gorm:"check:quantity>0" json:"quantity"`
	UnitPrice float64 `gorm:"not null"       json:"unit_price"`
}

type Feedback struct {
	ID        uint      `gorm:"primaryKey"                                      json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_user_product_feedback;not null"  json:"user_id"`
	ProductID uint      `gorm:"uniqueIndex:idx_user_product_feedback;not null"  json:"product_id"`
	Rating    uint      `gorm:"not null;check:rating>=1 AND rating<=5"          json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
