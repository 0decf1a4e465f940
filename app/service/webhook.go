package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/givebridge/ms-go-donations/app/entity"
	"github.com/givebridge/ms-go-donations/app/types"
)

// ListenerName is the give-listener query value the vendor dashboard is
// configured with.
const ListenerName = "easymerchant"

type webhookEvent struct {
	EventType       string `json:"event_type"`
	ReferenceNumber string `json:"reference_number"`
	ChargeID        string `json:"charge_id"`
	SubscriptionID  string `json:"subscription_id"`
	Status          string `json:"status"`
}

func (e *webhookEvent) chargeReference() string {
	if ref := strings.TrimSpace(e.ReferenceNumber); ref != "" {
		return ref
	}
	return strings.TrimSpace(e.ChargeID)
}

// HandleWebhook consumes a raw payload the vendor posted to the listener
// endpoint. Every delivery is recorded, processed or not; status values the
// service does not recognize reject the delivery without touching any
// donation.
func (s *DonationService) HandleWebhook(ctx context.Context, req *types.WebhookRequest) error {
	if req.Listener != ListenerName {
		return fmt.Errorf("%w: unknown listener %q", ErrWebhookRejected, req.Listener)
	}

	now := time.Now().UTC()
	delivery := &entity.WebhookDelivery{
		Listener:    req.Listener,
		PayloadJSON: string(req.Payload),
		Status:      entity.WebhookDeliveryProcessed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var event webhookEvent
	if err := json.Unmarshal(req.Payload, &event); err != nil {
		s.rejectDelivery(ctx, delivery, "payload is not valid JSON")
		return fmt.Errorf("%w: payload is not valid JSON", ErrWebhookRejected)
	}
	delivery.EventType = event.EventType

	chargeRef := event.chargeReference()
	if chargeRef == "" {
		s.rejectDelivery(ctx, delivery, "missing charge reference")
		return fmt.Errorf("%w: missing charge reference", ErrWebhookRejected)
	}

	donation, err := s.donationRepo.FindByGatewayTransactionID(ctx, chargeRef)
	if err != nil {
		return err
	}
	if donation == nil {
		s.rejectDelivery(ctx, delivery, "no donation for charge "+chargeRef)
		return ErrDonationNotFound
	}
	delivery.DonationID = &donation.ID

	switch event.Status {
	case "Paid":
		if donation.Status == entity.DonationStatusProcessing || donation.Status == entity.DonationStatusPending {
			s.transition(ctx, donation, entity.DonationStatusComplete, "donation_settled", now)
		}
	case "Failed", "Returned":
		s.transition(ctx, donation, entity.DonationStatusFailed, "donation_failed", now)
		s.recordNote(ctx, donation.ID, fmt.Sprintf("Donation failed. Reason: gateway reported %s", event.Status), now)
	case "Refunded":
		s.transition(ctx, donation, entity.DonationStatusRefunded, "donation_refunded", now)
	default:
		s.rejectDelivery(ctx, delivery, "unrecognized status "+event.Status)
		return fmt.Errorf("%w: unrecognized status %q", ErrWebhookRejected, event.Status)
	}

	if err := s.donationRepo.Update(ctx, donation); err != nil {
		return err
	}
	_ = s.webhookRepo.Create(ctx, delivery)
	return nil
}

func (s *DonationService) rejectDelivery(ctx context.Context, delivery *entity.WebhookDelivery, reason string) {
	delivery.Status = entity.WebhookDeliveryRejected
	delivery.Error = &reason
	_ = s.webhookRepo.Create(ctx, delivery)
}
