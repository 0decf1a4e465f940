package service

import (
	"context"
	"strings"
	"time"

	"github.com/givebridge/ms-go-donations/app/entity"
)

// RunReconcileBatch polls the vendor for donations still in processing
// (unsettled ACH) whose last update is older than the staleness threshold,
// and settles or fails them from the vendor's view of the charge.
func (s *DonationService) RunReconcileBatch(ctx context.Context) error {
	now := time.Now().UTC()
	before := now.Add(-s.donationsCfg.ReconcileStaleAfter)
	items, err := s.donationRepo.ListProcessingForReconcile(ctx, before, s.batchSize())
	if err != nil {
		return err
	}

	var firstErr error
	for _, donation := range items {
		if donation == nil || donation.GatewayTransactionID == nil || strings.TrimSpace(*donation.GatewayTransactionID) == "" {
			continue
		}

		status, err := s.gw.GetCharge(ctx, *donation.GatewayTransactionID)
		if err != nil {
			firstErr = keepFirstErr(firstErr, err)
			continue
		}

		switch status.Status {
		case "Paid":
			s.transition(ctx, donation, entity.DonationStatusComplete, "donation_settled", now)
		case "Failed", "Returned", "Declined":
			s.transition(ctx, donation, entity.DonationStatusFailed, "donation_failed", now)
			s.recordNote(ctx, donation.ID, "Donation failed. Reason: gateway reported "+status.Status, now)
		default:
			// Still unsettled; leave it for the next pass.
			continue
		}

		if err := s.donationRepo.Update(ctx, donation); err != nil {
			firstErr = keepFirstErr(firstErr, err)
		}
	}

	return firstErr
}

// RunExpirePendingBatch abandons donations that never made it past pending,
// typically because the process died between the local insert and the
// vendor call.
func (s *DonationService) RunExpirePendingBatch(ctx context.Context) error {
	now := time.Now().UTC()
	cutoff := now.Add(-s.donationsCfg.PendingTimeout)
	items, err := s.donationRepo.ListExpiredPending(ctx, cutoff, s.batchSize())
	if err != nil {
		return err
	}

	var firstErr error
	for _, donation := range items {
		if donation == nil || donation.Status != entity.DonationStatusPending {
			continue
		}

		s.transition(ctx, donation, entity.DonationStatusAbandoned, "donation_abandoned", now)
		if err := s.donationRepo.Update(ctx, donation); err != nil {
			firstErr = keepFirstErr(firstErr, err)
		}
	}

	return firstErr
}

func keepFirstErr(current error, candidate error) error {
	if current != nil {
		return current
	}
	return candidate
}
