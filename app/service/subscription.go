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
)

type subscriptionRepository interface {
	Create(ctx context.Context, subscription *entity.Subscription) error
	Update(ctx context.Context, subscription *entity.Subscription) error
	FindByID(ctx context.Context, id uint64) (*entity.Subscription, error)
	FindByGatewaySubscriptionID(ctx context.Context, gatewaySubscriptionID string) (*entity.Subscription, error)
}

type SubscriptionService struct {
	subscriptionRepo subscriptionRepository
	donationRepo     donationRepository
	noteRepo         donationNoteRepository
	eventRepo        donationEventRepository
	gw               gateway.Gateway
}

func NewSubscriptionService(
	subscriptionRepo subscriptionRepository,
	donationRepo donationRepository,
	noteRepo donationNoteRepository,
	eventRepo donationEventRepository,
	gw gateway.Gateway,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		donationRepo:     donationRepo,
		noteRepo:         noteRepo,
		eventRepo:        eventRepo,
		gw:               gw,
	}
}

type SubscriptionResult struct {
	Subscription *entity.Subscription
	Donation     *entity.Donation
}

// CreateSubscription sets up recurring billing with the vendor and records
// both the subscription and its initial donation. Card subscriptions come
// back settled; ACH ones stay processing until settlement.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, req *types.CreateSubscriptionRequest) (*SubscriptionResult, error) {
	if req.RequestID == "" || req.CallerService == "" {
		return nil, ErrInvalidRequest
	}

	existing, err := s.donationRepo.FindByCallerRequestID(ctx, req.CallerService, req.RequestID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.resultForExisting(ctx, existing)
	}

	now := time.Now().UTC()
	subscription := &entity.Subscription{
		DonorEmail:    req.Email,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Period:        req.Period,
		Installments:  req.Installments,
		PaymentMethod: req.PaymentMethod,
		Status:        entity.SubscriptionStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.subscriptionRepo.Create(ctx, subscription); err != nil {
		return nil, err
	}

	donation := &entity.Donation{
		RequestID:      req.RequestID,
		CallerService:  req.CallerService,
		PurchaseKey:    uuid.NewString(),
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Address:        req.Address,
		City:           req.City,
		State:          req.State,
		Zip:            req.Zip,
		Country:        req.Country,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Status:         entity.DonationStatusPending,
		PaymentMethod:  req.PaymentMethod,
		DonationType:   entity.DonationTypeSubscription,
		SubscriptionID: &subscription.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.donationRepo.Create(ctx, donation); err != nil {
		if errors.Is(err, repository.ErrDonationAlreadyExists) {
			return nil, ErrDonationAlreadyExists
		}
		return nil, err
	}

	input := chargeInputFromRequest(&req.CreateDonationRequest)
	input.Recurring = &gateway.RecurringSchedule{
		Period:        req.Period,
		AllowedCycles: req.Installments,
	}

	var output *gateway.ChargeOutput
	var chargeErr error
	switch req.PaymentMethod {
	case entity.PaymentMethodCard:
		output, chargeErr = s.gw.CreateCardSubscription(ctx, input)
	case entity.PaymentMethodACH:
		output, chargeErr = s.gw.CreateACHSubscription(ctx, input)
	default:
		chargeErr = ErrInvalidRequest
	}

	if chargeErr != nil {
		s.failSubscription(ctx, subscription, donation, chargeErr)
		return nil, chargeErr
	}

	now = time.Now().UTC()
	newStatus := entity.DonationStatusComplete
	eventType := "donation_completed"
	if req.PaymentMethod == entity.PaymentMethodACH {
		newStatus = entity.DonationStatusProcessing
		eventType = "donation_processing"
	}

	oldStatus := donation.Status
	donation.Status = newStatus
	donation.GatewayTransactionID = &output.ChargeID
	donation.UpdatedAt = now
	if err := s.donationRepo.Update(ctx, donation); err != nil {
		return nil, err
	}
	_ = s.eventRepo.Create(ctx, &entity.DonationEvent{
		DonationID: donation.ID,
		EventType:  eventType,
		OldStatus:  &oldStatus,
		NewStatus:  newStatus,
		CreatedAt:  now,
	})

	subscription.Status = entity.SubscriptionStatusActive
	subscription.GatewaySubscriptionID = &output.SubscriptionID
	subscription.UpdatedAt = now
	if err := s.subscriptionRepo.Update(ctx, subscription); err != nil {
		return nil, err
	}

	return &SubscriptionResult{Subscription: subscription, Donation: donation}, nil
}

// CancelSubscription terminates recurring billing with the vendor, then
// transitions the local record. The vendor's cancel endpoint is not
// guaranteed idempotent; a second call for the same id may fail upstream.
func (s *SubscriptionService) CancelSubscription(ctx context.Context, req *types.CancelSubscriptionRequest) (*entity.Subscription, error) {
	subscription, err := s.subscriptionRepo.FindByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if subscription == nil {
		return nil, ErrSubscriptionNotFound
	}
	if !subscription.Cancelable() {
		return nil, fmt.Errorf("%w: subscription %d cannot be cancelled from status %s", ErrInvalidStatus, subscription.ID, subscription.Status)
	}

	if err := s.gw.CancelSubscription(ctx, *subscription.GatewaySubscriptionID); err != nil {
		return nil, err
	}

	subscription.Status = entity.SubscriptionStatusCancelled
	subscription.UpdatedAt = time.Now().UTC()
	if err := s.subscriptionRepo.Update(ctx, subscription); err != nil {
		return nil, err
	}
	return subscription, nil
}

func (s *SubscriptionService) GetSubscription(ctx context.Context, id uint64) (*entity.Subscription, error) {
	subscription, err := s.subscriptionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if subscription == nil {
		return nil, ErrSubscriptionNotFound
	}
	return subscription, nil
}

func (s *SubscriptionService) resultForExisting(ctx context.Context, donation *entity.Donation) (*SubscriptionResult, error) {
	result := &SubscriptionResult{Donation: donation}
	if donation.SubscriptionID != nil {
		subscription, err := s.subscriptionRepo.FindByID(ctx, *donation.SubscriptionID)
		if err != nil {
			return nil, err
		}
		result.Subscription = subscription
	}
	return result, nil
}

func (s *SubscriptionService) failSubscription(ctx context.Context, subscription *entity.Subscription, donation *entity.Donation, cause error) {
	now := time.Now().UTC()

	oldStatus := donation.Status
	donation.Status = entity.DonationStatusFailed
	donation.UpdatedAt = now
	_ = s.donationRepo.Update(ctx, donation)
	_ = s.eventRepo.Create(ctx, &entity.DonationEvent{
		DonationID: donation.ID,
		EventType:  "donation_failed",
		OldStatus:  &oldStatus,
		NewStatus:  donation.Status,
		CreatedAt:  now,
	})
	_ = s.noteRepo.Create(ctx, &entity.DonationNote{
		DonationID: donation.ID,
		Content:    fmt.Sprintf("Donation failed. Reason: %s", cause.Error()),
		CreatedAt:  now,
	})

	subscription.Status = entity.SubscriptionStatusFailed
	subscription.UpdatedAt = now
	_ = s.subscriptionRepo.Update(ctx, subscription)
}
