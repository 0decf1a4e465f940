package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SubscriptionStatusPending   = "pending"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusCompleted = "completed"
	SubscriptionStatusFailed    = "failed"
)

type Subscription struct {
	ID uint64

	DonorEmail string

	Amount   decimal.Decimal
	Currency string

	// Period is in the host vocabulary (day/week/month/quarter/year);
	// translation to the vendor's terms happens inside the gateway adapter.
	Period       string
	Installments int32

	PaymentMethod string
	Status        string

	GatewaySubscriptionID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *Subscription) Cancelable() bool {
	return s.Status == SubscriptionStatusActive &&
		s.GatewaySubscriptionID != nil && *s.GatewaySubscriptionID != ""
}
