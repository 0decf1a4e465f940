package service

import "errors"

var (
	ErrInvalidRequest        = errors.New("invalid request")
	ErrDonationNotFound      = errors.New("donation not found")
	ErrDonationAlreadyExists = errors.New("donation already exists")
	ErrSubscriptionNotFound  = errors.New("subscription not found")
	ErrInvalidStatus         = errors.New("invalid status")
	ErrWebhookRejected       = errors.New("webhook rejected")
)
