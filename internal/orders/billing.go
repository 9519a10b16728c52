package orders

import (
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
	"github.com/angelmondragon/medicarehub-backend/pkg/models"
)

var hundred = decimal.NewFromInt(100)

// ComputeBilling validates the bill and derives the final amount rounded to
// two decimal places.
func ComputeBilling(in BillingInput, billedAt time.Time) (models.Billing, error) {
	if !in.TotalAmount.IsPositive() {
		return models.Billing{}, pkgerrors.New(pkgerrors.CodeValidation, "total amount must be greater than zero")
	}
	if in.DiscountPercentage.IsNegative() || in.DiscountPercentage.GreaterThan(hundred) {
		return models.Billing{}, pkgerrors.New(pkgerrors.CodeValidation, "discount percentage must be between 0 and 100")
	}
	factor := decimal.NewFromInt(1).Sub(in.DiscountPercentage.Div(hundred))
	return models.Billing{
		TotalAmount:        in.TotalAmount,
		DiscountPercentage: in.DiscountPercentage,
		FinalAmount:        in.TotalAmount.Mul(factor).Round(2),
		BilledAt:           billedAt.UTC(),
	}, nil
}
