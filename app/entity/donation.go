package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Donation statuses follow the host vocabulary: a donation starts Pending,
// moves to Complete (card) or Processing (ACH, settles later), and a
// completed charge can later be Refunded or Cancelled through the
// refund-or-cancel reconciliation.
const (
	DonationStatusPending    = "pending"
	DonationStatusProcessing = "processing"
	DonationStatusComplete   = "complete"
	DonationStatusFailed     = "failed"
	DonationStatusRefunded   = "refunded"
	DonationStatusCancelled  = "cancelled"
	DonationStatusAbandoned  = "abandoned"
)

const (
	PaymentMethodCard = "card"
	PaymentMethodACH  = "ach"
)

const (
	DonationTypeOneTime      = "one_time"
	DonationTypeSubscription = "subscription"
)

type Donation struct {
	ID uint64

	RequestID     string
	CallerService string
	PurchaseKey   string

	FirstName string
	LastName  string
	Email     string

	Address string
	City    string
	State   string
	Zip     string
	Country string

	Amount   decimal.Decimal
	Currency string

	Status        string
	PaymentMethod string
	DonationType  string

	GatewayTransactionID *string
	SubscriptionID       *uint64

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (d *Donation) DonorName() string {
	name := d.FirstName
	if d.LastName != "" {
		if name != "" {
			name += " "
		}
		name += d.LastName
	}
	return name
}

// Refundable reports whether the refund-or-cancel protocol may run against
// this donation. Failed and already-terminal donations accept no further
// transition.
func (d *Donation) Refundable() bool {
	if d.GatewayTransactionID == nil || *d.GatewayTransactionID == "" {
		return false
	}
	return d.Status == DonationStatusComplete || d.Status == DonationStatusProcessing
}
