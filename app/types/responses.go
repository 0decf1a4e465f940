package types

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type Donation struct {
	ID            uint64 `json:"id"`
	RequestID     string `json:"request_id"`
	CallerService string `json:"caller_service"`
	PurchaseKey   string `json:"purchase_key"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`

	Amount   string `json:"amount"`
	Currency string `json:"currency"`

	Status        string `json:"status"`
	PaymentMethod string `json:"payment_method"`
	DonationType  string `json:"donation_type"`

	GatewayTransactionID string `json:"gateway_transaction_id,omitempty"`
	SubscriptionID       uint64 `json:"subscription_id,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type DonationEnvelopeResponse struct {
	Donation *Donation `json:"donation"`
}

type DonationNote struct {
	ID         uint64 `json:"id"`
	DonationID uint64 `json:"donation_id"`
	Content    string `json:"content"`
	CreatedAt  string `json:"created_at"`
}

type ListDonationNotesResponse struct {
	Notes []*DonationNote `json:"notes"`
}

type ListDonationsResponse struct {
	Donations []*Donation `json:"donations"`
}

type Subscription struct {
	ID         uint64 `json:"id"`
	DonorEmail string `json:"donor_email"`

	Amount   string `json:"amount"`
	Currency string `json:"currency"`

	Period       string `json:"period"`
	Installments int32  `json:"installments"`

	PaymentMethod string `json:"payment_method"`
	Status        string `json:"status"`

	GatewaySubscriptionID string `json:"gateway_subscription_id,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type SubscriptionEnvelopeResponse struct {
	Subscription *Subscription `json:"subscription"`
	Donation     *Donation     `json:"donation,omitempty"`
}
