package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/givebridge/ms-go-donations/app/entity"
	"github.com/givebridge/ms-go-donations/app/gateway"
	"github.com/givebridge/ms-go-donations/app/repository"
	"github.com/givebridge/ms-go-donations/app/types"
	"github.com/givebridge/ms-go-donations/config"
)

const (
	defaultListLimit = int32(100)
	defaultBatchSize = int32(100)

	refundReasonDefault = "refunded by user"
	cancelReasonDefault = "canceled by user"
)

type donationRepository interface {
	Create(ctx context.Context, donation *entity.Donation) error
	Update(ctx context.Context, donation *entity.Donation) error
	FindByID(ctx context.Context, id uint64) (*entity.Donation, error)
	FindByCallerRequestID(ctx context.Context, callerService, requestID string) (*entity.Donation, error)
	FindByGatewayTransactionID(ctx context.Context, transactionID string) (*entity.Donation, error)
	List(ctx context.Context, filter repository.DonationFilter) ([]*entity.Donation, error)
	ListProcessingForReconcile(ctx context.Context, before time.Time, limit int32) ([]*entity.Donation, error)
	ListExpiredPending(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Donation, error)
}

type donationNoteRepository interface {
	Create(ctx context.Context, note *entity.DonationNote) error
	ListByDonationID(ctx context.Context, donationID uint64) ([]*entity.DonationNote, error)
}

type donationEventRepository interface {
	Create(ctx context.Context, event *entity.DonationEvent) error
}

type webhookDeliveryRepository interface {
	Create(ctx context.Context, delivery *entity.WebhookDelivery) error
}

type DonationService struct {
	donationRepo donationRepository
	noteRepo     donationNoteRepository
	eventRepo    donationEventRepository
	webhookRepo  webhookDeliveryRepository
	gw           gateway.Gateway
	donationsCfg config.DonationsConfig
}

func NewDonationService(
	donationRepo donationRepository,
	noteRepo donationNoteRepository,
	eventRepo donationEventRepository,
	webhookRepo webhookDeliveryRepository,
	gw gateway.Gateway,
	donationsCfg config.DonationsConfig,
) *DonationService {
	return &DonationService{
		donationRepo: donationRepo,
		noteRepo:     noteRepo,
		eventRepo:    eventRepo,
		webhookRepo:  webhookRepo,
		gw:           gw,
		donationsCfg: donationsCfg,
	}
}

// CreateDonation records a pending donation, forwards the charge to the
// vendor, and settles the local status from the outcome. A gateway failure
// marks the donation failed with a note carrying the reason, then surfaces
// the gateway error unchanged so the caller can tell a decline from a
// transport problem.
func (s *DonationService) CreateDonation(ctx context.Context, req *types.CreateDonationRequest) (*entity.Donation, error) {
	if req.RequestID == "" || req.CallerService == "" {
		return nil, ErrInvalidRequest
	}

	existing, err := s.donationRepo.FindByCallerRequestID(ctx, req.CallerService, req.RequestID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	donation := &entity.Donation{
		RequestID:     req.RequestID,
		CallerService: req.CallerService,
		PurchaseKey:   uuid.NewString(),
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
		Zip:           req.Zip,
		Country:       req.Country,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Status:        entity.DonationStatusPending,
		PaymentMethod: req.PaymentMethod,
		DonationType:  entity.DonationTypeOneTime,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.donationRepo.Create(ctx, donation); err != nil {
		if errors.Is(err, repository.ErrDonationAlreadyExists) {
			return nil, ErrDonationAlreadyExists
		}
		return nil, err
	}
	s.recordEvent(ctx, donation.ID, "donation_created", nil, donation.Status, now)

	input := chargeInputFromRequest(req)

	var output *gateway.ChargeOutput
	var chargeErr error
	switch req.PaymentMethod {
	case entity.PaymentMethodCard:
		output, chargeErr = s.gw.ChargeCard(ctx, input)
	case entity.PaymentMethodACH:
		output, chargeErr = s.gw.ChargeACH(ctx, input)
	default:
		chargeErr = ErrInvalidRequest
	}

	if chargeErr != nil {
		s.failDonation(ctx, donation, chargeErr)
		return nil, chargeErr
	}

	newStatus := entity.DonationStatusComplete
	eventType := "donation_completed"
	if req.PaymentMethod == entity.PaymentMethodACH {
		// ACH charges settle later; the reconcile job or the vendor webhook
		// promotes them to complete.
		newStatus = entity.DonationStatusProcessing
		eventType = "donation_processing"
	}

	s.transition(ctx, donation, newStatus, eventType, time.Now().UTC())
	donation.GatewayTransactionID = &output.ChargeID
	if err := s.donationRepo.Update(ctx, donation); err != nil {
		return nil, err
	}

	return donation, nil
}

func (s *DonationService) GetDonation(ctx context.Context, id uint64) (*entity.Donation, error) {
	donation, err := s.donationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, ErrDonationNotFound
	}
	return donation, nil
}

func (s *DonationService) ListDonationNotes(ctx context.Context, donationID uint64) ([]*entity.DonationNote, error) {
	donation, err := s.donationRepo.FindByID(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, ErrDonationNotFound
	}
	return s.noteRepo.ListByDonationID(ctx, donationID)
}

func (s *DonationService) ListDonations(ctx context.Context, req *types.ListDonationsRequest) ([]*entity.Donation, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	return s.donationRepo.List(ctx, repository.DonationFilter{
		RequestID:     req.RequestID,
		CallerService: req.CallerService,
		Email:         req.Email,
		Status:        req.Status,
		PaymentMethod: req.PaymentMethod,
		Limit:         limit,
		Offset:        req.Offset,
	})
}

// RefundDonation runs the two-step refund-or-cancel protocol: the vendor's
// settlement state decides whether the charge is refunded (settled) or
// canceled (unsettled). On any gateway error, including an unexpected
// settlement status, no local transition is made.
func (s *DonationService) RefundDonation(ctx context.Context, req *types.RefundDonationRequest) (*entity.Donation, error) {
	donation, err := s.donationRepo.FindByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, ErrDonationNotFound
	}
	if !donation.Refundable() {
		return nil, fmt.Errorf("%w: donation %d cannot be refunded from status %s", ErrInvalidStatus, donation.ID, donation.Status)
	}

	reason := req.Reason
	if reason == "" {
		reason = cancelReasonDefault
	}

	outcome, err := s.gw.RefundOrCancel(ctx, *donation.GatewayTransactionID, donation.Amount, reason)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	switch outcome.Kind {
	case gateway.RefundKindRefunded:
		s.transition(ctx, donation, entity.DonationStatusRefunded, "donation_refunded", now)
		s.recordNote(ctx, donation.ID, fmt.Sprintf("Refund processed successfully. Reason: %s", refundReasonDefault), now)
	case gateway.RefundKindCanceled:
		s.transition(ctx, donation, entity.DonationStatusCancelled, "donation_cancelled", now)
		s.recordNote(ctx, donation.ID, fmt.Sprintf("ACH Payment cancelled successfully. Reason: %s", reason), now)
	}

	if err := s.donationRepo.Update(ctx, donation); err != nil {
		return nil, err
	}
	return donation, nil
}

func (s *DonationService) failDonation(ctx context.Context, donation *entity.Donation, cause error) {
	now := time.Now().UTC()
	s.transition(ctx, donation, entity.DonationStatusFailed, "donation_failed", now)
	s.recordNote(ctx, donation.ID, fmt.Sprintf("Donation failed. Reason: %s", cause.Error()), now)
	_ = s.donationRepo.Update(ctx, donation)
}

func (s *DonationService) transition(ctx context.Context, donation *entity.Donation, newStatus, eventType string, now time.Time) {
	oldStatus := donation.Status
	donation.Status = newStatus
	donation.UpdatedAt = now
	s.recordEvent(ctx, donation.ID, eventType, &oldStatus, newStatus, now)
}

func (s *DonationService) recordEvent(ctx context.Context, donationID uint64, eventType string, oldStatus *string, newStatus string, now time.Time) {
	_ = s.eventRepo.Create(ctx, &entity.DonationEvent{
		DonationID: donationID,
		EventType:  eventType,
		OldStatus:  oldStatus,
		NewStatus:  newStatus,
		CreatedAt:  now,
	})
}

func (s *DonationService) recordNote(ctx context.Context, donationID uint64, content string, now time.Time) {
	_ = s.noteRepo.Create(ctx, &entity.DonationNote{
		DonationID: donationID,
		Content:    content,
		CreatedAt:  now,
	})
}

func (s *DonationService) batchSize() int32 {
	if s.donationsCfg.JobBatchSize > 0 {
		return s.donationsCfg.JobBatchSize
	}
	return defaultBatchSize
}

func chargeInputFromRequest(req *types.CreateDonationRequest) *gateway.ChargeInput {
	input := &gateway.ChargeInput{
		Amount:   req.Amount,
		Currency: req.Currency,
		Name:     donorName(req.FirstName, req.LastName),
		Email:    req.Email,
		Address:  req.Address,
		City:     req.City,
		State:    req.State,
		Zip:      req.Zip,
		Country:  req.Country,
	}
	if req.Card != nil {
		input.Card = &gateway.CardDetails{
			HolderName: req.Card.HolderName,
			Number:     req.Card.Number,
			ExpMonth:   req.Card.ExpMonth,
			ExpYear:    req.Card.ExpYear,
			CVC:        req.Card.CVC,
		}
	}
	if req.BankAccount != nil {
		input.BankAccount = &gateway.BankAccount{
			RoutingNumber: req.BankAccount.RoutingNumber,
			AccountNumber: req.BankAccount.AccountNumber,
			AccountType:   req.BankAccount.AccountType,
		}
	}
	return input
}

func donorName(firstName, lastName string) string {
	if firstName == "" {
		return lastName
	}
	if lastName == "" {
		return firstName
	}
	return firstName + " " + lastName
}
