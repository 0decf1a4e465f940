package types

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const (
	PaymentMethodCard = "card"
	PaymentMethodACH  = "ach"
)

type CardFields struct {
	HolderName string `json:"holder_name"`
	Number     string `json:"number"`
	ExpMonth   string `json:"exp_month"`
	ExpYear    string `json:"exp_year"`
	CVC        string `json:"cvc"`
}

type BankAccountFields struct {
	RoutingNumber string `json:"routing_number"`
	AccountNumber string `json:"account_number"`
	AccountType   string `json:"account_type"`
}

type CreateDonationRequest struct {
	RequestID     string `json:"request_id"`
	CallerService string `json:"caller_service"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`

	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`

	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`

	PaymentMethod string             `json:"payment_method"`
	Card          *CardFields        `json:"card,omitempty"`
	BankAccount   *BankAccountFields `json:"bank_account,omitempty"`
}

func NewCreateDonationRequestFromContext(ctx echo.Context) (*CreateDonationRequest, error) {
	var body CreateDonationRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.RequestID = strings.TrimSpace(body.RequestID)
	if body.RequestID == "" {
		body.RequestID = strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
	}
	body.CallerService = strings.TrimSpace(body.CallerService)
	body.FirstName = strings.TrimSpace(body.FirstName)
	body.LastName = strings.TrimSpace(body.LastName)
	body.Email = strings.TrimSpace(body.Email)
	body.Currency = strings.ToUpper(strings.TrimSpace(body.Currency))
	body.PaymentMethod = strings.ToLower(strings.TrimSpace(body.PaymentMethod))

	return &body, nil
}

func (r *CreateDonationRequest) Validate() error {
	if r.RequestID == "" {
		return errors.New("request_id is required")
	}
	if r.CallerService == "" {
		return errors.New("caller_service is required")
	}
	if r.Email == "" {
		return errors.New("email is required")
	}
	if !r.Amount.IsPositive() {
		return errors.New("amount must be > 0")
	}
	if len(r.Currency) != 3 {
		return errors.New("currency must be 3 letters")
	}
	return validatePaymentFields(r.PaymentMethod, r.Card, r.BankAccount)
}

type GetDonationRequest struct {
	ID uint64
}

func NewGetDonationRequestFromContext(ctx echo.Context) (*GetDonationRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}
	return &GetDonationRequest{ID: id}, nil
}

func (r *GetDonationRequest) Validate() error {
	if r.ID == 0 {
		return errors.New("invalid donation id")
	}
	return nil
}

type ListDonationsRequest struct {
	RequestID     string
	CallerService string
	Email         string
	Status        string
	PaymentMethod string
	Limit         int32
	Offset        int32
}

func NewListDonationsRequestFromContext(ctx echo.Context) (*ListDonationsRequest, error) {
	req := &ListDonationsRequest{
		RequestID:     strings.TrimSpace(ctx.QueryParam("request_id")),
		CallerService: strings.TrimSpace(ctx.QueryParam("caller_service")),
		Email:         strings.TrimSpace(ctx.QueryParam("email")),
		Status:        strings.ToLower(strings.TrimSpace(ctx.QueryParam("status"))),
		PaymentMethod: strings.ToLower(strings.TrimSpace(ctx.QueryParam("payment_method"))),
		Limit:         100,
		Offset:        0,
	}

	if limitRaw := strings.TrimSpace(ctx.QueryParam("limit")); limitRaw != "" {
		limit, err := strconv.ParseInt(limitRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Limit = int32(limit)
	}

	if offsetRaw := strings.TrimSpace(ctx.QueryParam("offset")); offsetRaw != "" {
		offset, err := strconv.ParseInt(offsetRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Offset = int32(offset)
	}

	return req, nil
}

func (r *ListDonationsRequest) Validate() error {
	if r.Limit <= 0 || r.Limit > 500 {
		return errors.New("limit must be between 1 and 500")
	}
	if r.Offset < 0 {
		return errors.New("offset must be >= 0")
	}
	if r.PaymentMethod != "" && r.PaymentMethod != PaymentMethodCard && r.PaymentMethod != PaymentMethodACH {
		return errors.New("payment_method must be card or ach")
	}
	return nil
}

type RefundDonationRequest struct {
	ID     uint64 `json:"-"`
	Reason string `json:"reason"`
}

func NewRefundDonationRequestFromContext(ctx echo.Context) (*RefundDonationRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}

	var body RefundDonationRequest
	if err = ctx.Bind(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	body.ID = id
	body.Reason = strings.TrimSpace(body.Reason)

	return &body, nil
}

func (r *RefundDonationRequest) Validate() error {
	if r.ID == 0 {
		return errors.New("invalid donation id")
	}
	return nil
}

type CreateSubscriptionRequest struct {
	CreateDonationRequest

	Period       string `json:"period"`
	Installments int32  `json:"installments"`
}

func NewCreateSubscriptionRequestFromContext(ctx echo.Context) (*CreateSubscriptionRequest, error) {
	var body CreateSubscriptionRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.RequestID = strings.TrimSpace(body.RequestID)
	if body.RequestID == "" {
		body.RequestID = strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
	}
	body.CallerService = strings.TrimSpace(body.CallerService)
	body.FirstName = strings.TrimSpace(body.FirstName)
	body.LastName = strings.TrimSpace(body.LastName)
	body.Email = strings.TrimSpace(body.Email)
	body.Currency = strings.ToUpper(strings.TrimSpace(body.Currency))
	body.PaymentMethod = strings.ToLower(strings.TrimSpace(body.PaymentMethod))
	body.Period = strings.ToLower(strings.TrimSpace(body.Period))

	return &body, nil
}

func (r *CreateSubscriptionRequest) Validate() error {
	if err := r.CreateDonationRequest.Validate(); err != nil {
		return err
	}
	switch r.Period {
	case "day", "week", "month", "quarter", "year":
	default:
		return errors.New("period must be day, week, month, quarter, or year")
	}
	if r.Installments < 0 {
		return errors.New("installments must be >= 0")
	}
	return nil
}

type CancelSubscriptionRequest struct {
	ID uint64
}

func NewCancelSubscriptionRequestFromContext(ctx echo.Context) (*CancelSubscriptionRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}
	return &CancelSubscriptionRequest{ID: id}, nil
}

func (r *CancelSubscriptionRequest) Validate() error {
	if r.ID == 0 {
		return errors.New("invalid subscription id")
	}
	return nil
}

// WebhookRequest is the raw body the vendor posts to the listener endpoint.
// The legacy host integration triggers on a give-listener query parameter.
type WebhookRequest struct {
	RequestID string
	Listener  string
	Payload   []byte
}

func NewWebhookRequestFromContext(ctx echo.Context) (*WebhookRequest, error) {
	listener := strings.TrimSpace(ctx.QueryParam("give-listener"))
	if listener == "" {
		listener = strings.TrimSpace(ctx.Param("listener"))
	}

	payload, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return nil, err
	}

	return &WebhookRequest{
		RequestID: strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID)),
		Listener:  listener,
		Payload:   payload,
	}, nil
}

func (r *WebhookRequest) Validate() error {
	if r.Listener == "" {
		return errors.New("listener is required")
	}
	if len(r.Payload) == 0 {
		return errors.New("payload is required")
	}
	return nil
}

func validatePaymentFields(method string, card *CardFields, bankAccount *BankAccountFields) error {
	switch method {
	case PaymentMethodCard:
		if card == nil || bankAccount != nil {
			return errors.New("card payment requires card fields and no bank account")
		}
		if card.Number == "" || card.ExpMonth == "" || card.ExpYear == "" || card.CVC == "" {
			return errors.New("card number, expiry, and cvc are required")
		}
	case PaymentMethodACH:
		if bankAccount == nil || card != nil {
			return errors.New("ach payment requires bank account fields and no card")
		}
		if bankAccount.RoutingNumber == "" || bankAccount.AccountNumber == "" {
			return errors.New("routing and account numbers are required")
		}
		switch strings.ToLower(bankAccount.AccountType) {
		case "checking", "savings":
		default:
			return errors.New("account_type must be checking or savings")
		}
	default:
		return errors.New("payment_method must be card or ach")
	}
	return nil
}
