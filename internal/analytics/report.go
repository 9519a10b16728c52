package analytics

import (
	"github.com/angelmondragon/medicarehub-backend/pkg/enums"
	"github.com/angelmondragon/medicarehub-backend/pkg/models"
)

// OrderCounts tallies orders by lifecycle status.
type OrderCounts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Accepted  int `json:"accepted"`
	Delivered int `json:"delivered"`
	Rejected  int `json:"rejected"`
}

// StoreCounts tallies the store catalog.
type StoreCounts struct {
	Total    int `json:"total"`
	Verified int `json:"verified"`
	Active   int `json:"active"`
}

// Report is the admin dashboard summary.
type Report struct {
	Orders           OrderCounts    `json:"orders"`
	Stores           StoreCounts    `json:"stores"`
	RejectionReasons map[string]int `json:"rejectionReasons"`
}

// Compute builds a report from the given snapshot. Orders with an empty or
// missing rejection reason are left out of the reason breakdown.
func Compute(orders []models.Order, stores []models.Store) Report {
	r := Report{RejectionReasons: make(map[string]int)}
	r.Orders.Total = len(orders)
	for _, o := range orders {
		switch o.Status {
		case enums.OrderStatusPending:
			r.Orders.Pending++
		case enums.OrderStatusAccepted:
			r.Orders.Accepted++
		case enums.OrderStatusDelivered:
			r.Orders.Delivered++
		case enums.OrderStatusRejected:
			r.Orders.Rejected++
		}
		if o.RejectionReason != nil && *o.RejectionReason != "" {
			r.RejectionReasons[*o.RejectionReason]++
		}
	}

	r.Stores.Total = len(stores)
	for _, s := range stores {
		if s.IsVerified {
			r.Stores.Verified++
		}
		if s.IsOpen {
			r.Stores.Active++
		}
	}
	return r
}
