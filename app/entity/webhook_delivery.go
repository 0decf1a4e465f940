package entity

import "time"

const (
	WebhookDeliveryProcessed int32 = 10
	WebhookDeliveryRejected  int32 = 20
)

// WebhookDelivery records every payload the vendor posts to the listener,
// processed or not, so a rejected event can be replayed by hand.
type WebhookDelivery struct {
	ID uint64

	DonationID *uint64

	Listener    string
	EventType   string
	PayloadJSON string
	Status      int32
	Error       *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
