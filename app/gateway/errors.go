package gateway

import "fmt"

// The adapter reports failures in distinct tiers so callers can tell a
// network problem apart from a vendor decline: a TransportError may be worth
// retrying by a human, a DeclinedError never is.

// TransportError is a network, DNS, or timeout failure reaching the vendor,
// or a non-2xx reply whose body was not parseable JSON.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("easymerchant: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is a response body that is not valid JSON or is missing the
// keys the operation requires.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("easymerchant: %s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DeclinedError is an application-level rejection: the vendor answered, but
// with a falsy status. Message is the vendor's text when present, otherwise
// a fixed fallback.
type DeclinedError struct {
	Message string
}

func (e *DeclinedError) Error() string { return e.Message }

// ReconciliationError reports a charge whose vendor status is neither
// "Paid" nor "Paid Unsettled", so the refund-or-cancel protocol cannot
// choose a branch. No transition should be made by the caller.
type ReconciliationError struct {
	ChargeID string
	Status   string
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("easymerchant: charge %s has unexpected status %q, refusing to refund or cancel", e.ChargeID, e.Status)
}
