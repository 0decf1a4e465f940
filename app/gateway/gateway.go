package gateway

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Environment selects which EasyMerchant base URL the client talks to.
type Environment string

const (
	EnvironmentTest Environment = "test"
	EnvironmentLive Environment = "live"
)

func ParseEnvironment(raw string) (Environment, error) {
	switch Environment(strings.ToLower(strings.TrimSpace(raw))) {
	case EnvironmentTest:
		return EnvironmentTest, nil
	case EnvironmentLive:
		return EnvironmentLive, nil
	default:
		return "", errors.New("environment must be test or live")
	}
}

type CardDetails struct {
	HolderName string
	Number     string
	ExpMonth   string
	ExpYear    string
	CVC        string
}

type BankAccount struct {
	RoutingNumber string
	AccountNumber string
	AccountType   string
}

// RecurringSchedule carries the host-vocabulary billing period; the adapter
// translates it to the vendor vocabulary on the wire.
type RecurringSchedule struct {
	Period        string
	AllowedCycles int32
}

type ChargeInput struct {
	Amount   decimal.Decimal
	Currency string

	Name  string
	Email string

	Address string
	City    string
	State   string
	Zip     string
	Country string

	Card        *CardDetails
	BankAccount *BankAccount

	Recurring *RecurringSchedule
}

func (in *ChargeInput) Validate() error {
	if in.Amount.IsNegative() || in.Amount.IsZero() {
		return errors.New("amount must be positive")
	}
	if (in.Card == nil) == (in.BankAccount == nil) {
		return errors.New("exactly one of card or bank account is required")
	}
	return nil
}

type ChargeOutput struct {
	ChargeID       string
	SubscriptionID string
	Message        string
}

// ChargeStatus is the vendor's view of an existing charge, from
// GET /charges/{id}.
type ChargeStatus struct {
	Status        string
	Amount        decimal.Decimal
	TransactionID string
}

type RefundKind int32

const (
	RefundKindRefunded RefundKind = 1
	RefundKindCanceled RefundKind = 2
)

type RefundOutcome struct {
	Kind     RefundKind
	ChargeID string
	Amount   decimal.Decimal
	Message  string
}

type Gateway interface {
	ChargeCard(ctx context.Context, in *ChargeInput) (*ChargeOutput, error)
	ChargeACH(ctx context.Context, in *ChargeInput) (*ChargeOutput, error)
	CreateCardSubscription(ctx context.Context, in *ChargeInput) (*ChargeOutput, error)
	CreateACHSubscription(ctx context.Context, in *ChargeInput) (*ChargeOutput, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	GetCharge(ctx context.Context, chargeID string) (*ChargeStatus, error)
	RefundOrCancel(ctx context.Context, chargeID string, requestedAmount decimal.Decimal, reason string) (*RefundOutcome, error)
}
