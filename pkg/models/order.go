package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/medicarehub-backend/pkg/enums"
)

// Order is a customer's prescription or medicine request against one store.
type Order struct {
	ID               string            `json:"id"`
	StoreID          int               `json:"storeId"`
	StoreName        string            `json:"storeName"`
	StoreWhatsApp    string            `json:"storeWhatsapp"`
	ImageData        string            `json:"imageData,omitempty"`
	PrescriptionText string            `json:"prescriptionText,omitempty"`
	Note             string            `json:"note"`
	Address          string            `json:"address"`
	Phone            string            `json:"phone"`
	OrderType        enums.OrderType   `json:"orderType"`
	Status           enums.OrderStatus `json:"status"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
	AIVerification   *AIVerification   `json:"aiVerification"`
	RejectionReason  *string           `json:"rejectionReason"`
	Billing          *Billing          `json:"billing,omitempty"`
}

// AIVerification is the externally produced prescription check attached to an order.
type AIVerification struct {
	Verified   bool      `json:"verified"`
	Confidence float64   `json:"confidence"`
	Findings   []string  `json:"findings,omitempty"`
	CheckedAt  time.Time `json:"checkedAt"`
}

// Billing is attached once, when a store accepts an order with a bill.
type Billing struct {
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	FinalAmount        decimal.Decimal `json:"finalAmount"`
	BilledAt           time.Time       `json:"billedAt"`
}
