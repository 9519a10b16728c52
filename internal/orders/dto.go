package orders

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/medicarehub-backend/pkg/enums"
)

// CreateOrderInput is what a customer submits when placing an order.
type CreateOrderInput struct {
	StoreID          int             `json:"storeId" validate:"required,gt=0"`
	ImageData        string          `json:"imageData"`
	PrescriptionText string          `json:"prescriptionText"`
	Note             string          `json:"note"`
	Address          string          `json:"address"`
	Phone            string          `json:"phone"`
	OrderType        enums.OrderType `json:"orderType"`
}

func (in CreateOrderInput) normalized() CreateOrderInput {
	in.Note = strings.TrimSpace(in.Note)
	in.Address = strings.TrimSpace(in.Address)
	in.Phone = strings.TrimSpace(in.Phone)
	in.PrescriptionText = strings.TrimSpace(in.PrescriptionText)
	return in
}

// BillingInput carries the bill a store attaches when accepting.
type BillingInput struct {
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
}
