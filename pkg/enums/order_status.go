package enums

import "fmt"

// OrderStatus tracks the fulfillment lifecycle of a commission.
type OrderStatus string

const (
	OrderStatusPending               OrderStatus = "pending"
	OrderStatusPendingLyricsApproval OrderStatus = "pending_lyrics_approval"
	OrderStatusInProduction          OrderStatus = "in_production"
	OrderStatusReadyForReview        OrderStatus = "ready_for_review"
	OrderStatusCompleted             OrderStatus = "completed"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPendingLyricsApproval,
	OrderStatusInProduction,
	OrderStatusReadyForReview,
	OrderStatusCompleted,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
