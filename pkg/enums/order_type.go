package enums

import "fmt"

// OrderType distinguishes urgent orders from regular requests.
type OrderType string

const (
	OrderTypeUrgent  OrderType = "urgent"
	OrderTypeRequest OrderType = "request"
)

// IsValid reports whether the value is a known OrderType.
func (t OrderType) IsValid() bool {
	return t == OrderTypeUrgent || t == OrderTypeRequest
}

// ParseOrderType converts raw input into an OrderType, defaulting blanks to request.
func ParseOrderType(value string) (OrderType, error) {
	switch OrderType(value) {
	case "":
		return OrderTypeRequest, nil
	case OrderTypeUrgent, OrderTypeRequest:
		return OrderType(value), nil
	}
	return "", fmt.Errorf("invalid order type %q", value)
}
