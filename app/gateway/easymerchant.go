package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	paymentModeAuthAndCapture = "auth_and_capture"
	paymentTypeRecurring      = "recurring"

	cardDescription = "GiveWp Donation"
	achDescription  = "ACH Donation From Give"

	entryClassCodeWeb = "WEB"
	entryClassCodeCCD = "CCD"

	cardDeclinedFallback = "Payment not successful!"
	achDeclinedFallback  = "Payment Not Successful!"
)

// EasyMerchant maps donation and subscription intents onto the vendor's
// charge endpoints and the vendor's replies back onto local outcomes. It
// holds no state across calls.
type EasyMerchant struct {
	client *Client
}

func NewEasyMerchant(client *Client) *EasyMerchant {
	return &EasyMerchant{client: client}
}

type cardChargeRequest struct {
	PaymentMode    string          `json:"payment_mode"`
	Amount         decimal.Decimal `json:"amount"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Address        string          `json:"address,omitempty"`
	City           string          `json:"city,omitempty"`
	State          string          `json:"state,omitempty"`
	Zip            string          `json:"zip,omitempty"`
	Country        string          `json:"country,omitempty"`
	Description    string          `json:"description"`
	Currency       string          `json:"currency"`
	CardNumber     string          `json:"card_number"`
	ExpMonth       string          `json:"exp_month"`
	ExpYear        string          `json:"exp_year"`
	CVC            string          `json:"cvc"`
	CardholderName string          `json:"cardholder_name"`
	PaymentType    string          `json:"payment_type,omitempty"`
	Interval       string          `json:"interval,omitempty"`
	AllowedCycles  int32           `json:"allowed_cycles,omitempty"`
}

type achChargeRequest struct {
	PaymentMode    string          `json:"payment_mode,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Address        string          `json:"address,omitempty"`
	City           string          `json:"city,omitempty"`
	State          string          `json:"state,omitempty"`
	Zip            string          `json:"zip,omitempty"`
	Country        string          `json:"country,omitempty"`
	Description    string          `json:"description"`
	Currency       string          `json:"currency,omitempty"`
	RoutingNumber  string          `json:"routing_number"`
	AccountNumber  string          `json:"account_number"`
	AccountType    string          `json:"account_type"`
	EntryClassCode string          `json:"entry_class_code"`
	PaymentType    string          `json:"payment_type,omitempty"`
	Interval       string          `json:"interval,omitempty"`
	AllowedCycles  int32           `json:"allowed_cycles,omitempty"`
}

type chargeResponse struct {
	Status         flexBool `json:"status"`
	ChargeID       string   `json:"charge_id"`
	SubscriptionID string   `json:"subscription_id"`
	Message        string   `json:"message"`
}

type chargeLookupResponse struct {
	Data struct {
		Status        string          `json:"status"`
		Amount        decimal.Decimal `json:"amount"`
		TransactionID string          `json:"transaction_id"`
	} `json:"data"`
}

type refundRequest struct {
	ChargeID string          `json:"charge_id"`
	Amount   decimal.Decimal `json:"amount"`
}

type achCancelRequest struct {
	ChargeID     string `json:"charge_id"`
	CancelReason string `json:"cancel_reason"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (g *EasyMerchant) ChargeCard(ctx context.Context, in *ChargeInput) (*ChargeOutput, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Card == nil {
		return nil, &DeclinedError{Message: cardDeclinedFallback}
	}

	return g.postCharge(ctx, "/charges/", g.cardRequest(in), cardDeclinedFallback)
}

func (g *EasyMerchant) ChargeACH(ctx context.Context, in *ChargeInput) (*ChargeOutput, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.BankAccount == nil {
		return nil, &DeclinedError{Message: achDeclinedFallback}
	}

	req := &achChargeRequest{
		Amount:         in.Amount,
		Name:           in.Name,
		Email:          in.Email,
		Address:        in.Address,
		City:           in.City,
		State:          in.State,
		Zip:            in.Zip,
		Country:        in.Country,
		Description:    achDescription,
		RoutingNumber:  in.BankAccount.RoutingNumber,
		AccountNumber:  in.BankAccount.AccountNumber,
		AccountType:    in.BankAccount.AccountType,
		EntryClassCode: entryClassCodeWeb,
	}

	return g.postCharge(ctx, "/ach/charge/", req, achDeclinedFallback)
}

func (g *EasyMerchant) CreateCardSubscription(ctx context.Context, in *ChargeInput) (*ChargeOutput, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Card == nil || in.Recurring == nil {
		return nil, &DeclinedError{Message: cardDeclinedFallback}
	}

	req := g.cardRequest(in)
	req.PaymentType = paymentTypeRecurring
	req.Interval = VendorInterval(in.Recurring.Period)
	req.AllowedCycles = in.Recurring.AllowedCycles

	return g.postCharge(ctx, "/charges/", req, cardDeclinedFallback)
}

func (g *EasyMerchant) CreateACHSubscription(ctx context.Context, in *ChargeInput) (*ChargeOutput, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.BankAccount == nil || in.Recurring == nil {
		return nil, &DeclinedError{Message: achDeclinedFallback}
	}

	req := &achChargeRequest{
		PaymentMode:    paymentModeAuthAndCapture,
		Amount:         in.Amount,
		Name:           in.Name,
		Email:          in.Email,
		Description:    achDescription,
		Currency:       in.Currency,
		RoutingNumber:  in.BankAccount.RoutingNumber,
		AccountNumber:  in.BankAccount.AccountNumber,
		AccountType:    in.BankAccount.AccountType,
		EntryClassCode: entryClassCodeCCD,
		PaymentType:    paymentTypeRecurring,
		Interval:       VendorInterval(in.Recurring.Period),
		AllowedCycles:  in.Recurring.AllowedCycles,
	}

	return g.postCharge(ctx, "/ach/charge/", req, achDeclinedFallback)
}

func (g *EasyMerchant) CancelSubscription(ctx context.Context, subscriptionID string) error {
	subscriptionID = strings.TrimSpace(subscriptionID)
	if subscriptionID == "" {
		return fmt.Errorf("unable to cancel subscription: subscription id is empty")
	}

	path := "/subscriptions/" + url.PathEscape(subscriptionID) + "/cancel/"
	if _, err := g.client.do(ctx, "POST", path, nil); err != nil {
		return fmt.Errorf("unable to cancel subscription: %w", err)
	}
	return nil
}

func (g *EasyMerchant) GetCharge(ctx context.Context, chargeID string) (*ChargeStatus, error) {
	path := "/charges/" + url.PathEscape(strings.TrimSpace(chargeID))
	body, err := g.client.do(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var payload chargeLookupResponse
	if err := decodeResponse("GET "+path, body, &payload); err != nil {
		return nil, err
	}
	if payload.Data.Status == "" {
		return nil, &DecodeError{Op: "GET " + path, Err: fmt.Errorf("missing data.status")}
	}

	return &ChargeStatus{
		Status:        payload.Data.Status,
		Amount:        payload.Data.Amount,
		TransactionID: payload.Data.TransactionID,
	}, nil
}

// RefundOrCancel inspects the charge's settlement state before choosing a
// branch: a settled ("Paid") charge is refunded for the difference between
// the vendor's amount and the requested amount, an unsettled one is canceled
// outright. Any other status stops the protocol with no further call.
func (g *EasyMerchant) RefundOrCancel(ctx context.Context, chargeID string, requestedAmount decimal.Decimal, reason string) (*RefundOutcome, error) {
	status, err := g.GetCharge(ctx, chargeID)
	if err != nil {
		return nil, err
	}

	switch status.Status {
	case "Paid":
		refundAmount := status.Amount.Sub(requestedAmount)
		body, err := g.client.do(ctx, "POST", "/refunds/", &refundRequest{
			ChargeID: chargeID,
			Amount:   refundAmount,
		})
		if err != nil {
			return nil, err
		}
		var payload messageResponse
		if err := decodeResponse("POST /refunds/", body, &payload); err != nil {
			return nil, err
		}
		return &RefundOutcome{
			Kind:     RefundKindRefunded,
			ChargeID: chargeID,
			Amount:   refundAmount,
			Message:  payload.Message,
		}, nil

	case "Paid Unsettled":
		body, err := g.client.do(ctx, "POST", "/ach/cancel/", &achCancelRequest{
			ChargeID:     status.TransactionID,
			CancelReason: reason,
		})
		if err != nil {
			return nil, err
		}
		var payload messageResponse
		if err := decodeResponse("POST /ach/cancel/", body, &payload); err != nil {
			return nil, err
		}
		return &RefundOutcome{
			Kind:     RefundKindCanceled,
			ChargeID: status.TransactionID,
			Message:  payload.Message,
		}, nil

	default:
		return nil, &ReconciliationError{ChargeID: chargeID, Status: status.Status}
	}
}

func (g *EasyMerchant) cardRequest(in *ChargeInput) *cardChargeRequest {
	return &cardChargeRequest{
		PaymentMode:    paymentModeAuthAndCapture,
		Amount:         in.Amount,
		Name:           in.Name,
		Email:          in.Email,
		Address:        in.Address,
		City:           in.City,
		State:          in.State,
		Zip:            in.Zip,
		Country:        in.Country,
		Description:    cardDescription,
		Currency:       in.Currency,
		CardNumber:     in.Card.Number,
		ExpMonth:       in.Card.ExpMonth,
		ExpYear:        in.Card.ExpYear,
		CVC:            in.Card.CVC,
		CardholderName: in.Card.HolderName,
	}
}

func (g *EasyMerchant) postCharge(ctx context.Context, path string, req any, fallback string) (*ChargeOutput, error) {
	body, err := g.client.do(ctx, "POST", path, req)
	if err != nil {
		return nil, err
	}

	var payload chargeResponse
	if err := decodeResponse("POST "+path, body, &payload); err != nil {
		return nil, err
	}

	if !bool(payload.Status) {
		message := strings.TrimSpace(payload.Message)
		if message == "" {
			message = fallback
		}
		return nil, &DeclinedError{Message: message}
	}

	return &ChargeOutput{
		ChargeID:       payload.ChargeID,
		SubscriptionID: payload.SubscriptionID,
		Message:        payload.Message,
	}, nil
}

// flexBool tolerates the vendor's loose status encoding: booleans, numbers,
// and the strings "true"/"success" all count as truthy.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch {
	case len(data) == 0 || string(data) == "null":
		*b = false
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.ToLower(strings.TrimSpace(s))
		*b = flexBool(s != "" && s != "false" && s != "0")
	case string(data) == "true":
		*b = true
	case string(data) == "false":
		*b = false
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*b = flexBool(n.String() != "0")
	}
	return nil
}
