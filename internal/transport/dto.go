package transport

import "github.com/google/uuid"

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Address         string `json:"address"`
	Contact         string `json:"contact"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	AccessExp    int64  `json:"access_exp"`
	RefreshExp   int64  `json:"refresh_exp"`
}

type CreateProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Price       float64 `json:"price"`
	Count       uint    `json:"count"`
}

type PatchProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Image       *string  `json:"image"`
	Price       *float64 `json:"price"`
	Count       *uint    `json:"count"`
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  uint `json:"quantity"`
}

type UpdateQuantityRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  uint `json:"quantity"`
}

type CartProductRequest struct {
	ProductID uint `json:"product_id"`
}

type CheckoutRequest struct {
	Method string `json:"method"`
}

// BeginCheckoutResponse carries either a provider redirect (PayPal) or an
// inline QR payload (NETS), never both.
type BeginCheckoutResponse struct {
	IntentID    uuid.UUID `json:"intent_id"`
	Method      string    `json:"method"`
	Total       float64   `json:"total"`
	RedirectURL string    `json:"redirect_url,omitempty"`
	QRCode      string    `json:"qr_code,omitempty"`
}

type SettlementResponse struct {
	InvoiceID   uint    `json:"invoice_id"`
	TotalAmount float64 `json:"total_amount"`
	Warning     string  `json:"warning,omitempty"`
}

type FeedbackRequest struct {
	Rating  uint   `json:"rating"`
	Comment string `json:"comment"`
}
