package entity

import "time"

type DonationEvent struct {
	ID uint64

	DonationID uint64

	EventType string

	OldStatus *string
	NewStatus string

	CreatedAt time.Time
}

// DonationNote is the host-visible audit trail: failure reasons, refund and
// cancel confirmations. Notes are append-only.
type DonationNote struct {
	ID uint64

	DonationID uint64

	Content string

	CreatedAt time.Time
}
