package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/givebridge/ms-go-donations/app/entity"
	"github.com/givebridge/ms-go-donations/app/gateway"
	"github.com/givebridge/ms-go-donations/app/types"
)

type serviceSubscriptionRepo struct {
	subscriptions map[uint64]*entity.Subscription
	nextID        uint64
}

func newServiceSubscriptionRepo() *serviceSubscriptionRepo {
	return &serviceSubscriptionRepo{
		subscriptions: map[uint64]*entity.Subscription{},
		nextID:        1,
	}
}

func (r *serviceSubscriptionRepo) Create(_ context.Context, subscription *entity.Subscription) error {
	id := r.nextID
	r.nextID++
	copyItem := *subscription
	copyItem.ID = id
	r.subscriptions[id] = &copyItem
	subscription.ID = id
	return nil
}

func (r *serviceSubscriptionRepo) Update(_ context.Context, subscription *entity.Subscription) error {
	copyItem := *subscription
	r.subscriptions[subscription.ID] = &copyItem
	return nil
}

func (r *serviceSubscriptionRepo) FindByID(_ context.Context, id uint64) (*entity.Subscription, error) {
	item, ok := r.subscriptions[id]
	if !ok {
		return nil, nil
	}
	copyItem := *item
	return &copyItem, nil
}

func (r *serviceSubscriptionRepo) FindByGatewaySubscriptionID(_ context.Context, gatewaySubscriptionID string) (*entity.Subscription, error) {
	for _, item := range r.subscriptions {
		if item.GatewaySubscriptionID != nil && *item.GatewaySubscriptionID == gatewaySubscriptionID {
			copyItem := *item
			return &copyItem, nil
		}
	}
	return nil, nil
}

type subscriptionFixture struct {
	subs   *serviceSubscriptionRepo
	repo   *serviceDonationRepo
	notes  *serviceNoteRepo
	events *serviceEventRepo
	gw     *serviceGateway
	svc    *SubscriptionService
}

func newSubscriptionFixture() *subscriptionFixture {
	subs := newServiceSubscriptionRepo()
	repo := newServiceDonationRepo()
	notes := &serviceNoteRepo{}
	events := &serviceEventRepo{}
	gw := &serviceGateway{}
	svc := NewSubscriptionService(subs, repo, notes, events, gw)
	return &subscriptionFixture{subs: subs, repo: repo, notes: notes, events: events, gw: gw, svc: svc}
}

func cardSubscriptionRequest() *types.CreateSubscriptionRequest {
	return &types.CreateSubscriptionRequest{
		CreateDonationRequest: *cardDonationRequest(),
		Period:                "month",
		Installments:          12,
	}
}

func TestCreateSubscriptionCardActivates(t *testing.T) {
	f := newSubscriptionFixture()
	f.gw.chargeOutput = &gateway.ChargeOutput{ChargeID: "ch_1", SubscriptionID: "sub_1"}

	result, err := f.svc.CreateSubscription(context.Background(), cardSubscriptionRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Subscription.Status != entity.SubscriptionStatusActive {
		t.Fatalf("unexpected subscription status: %s", result.Subscription.Status)
	}
	if result.Subscription.GatewaySubscriptionID == nil || *result.Subscription.GatewaySubscriptionID != "sub_1" {
		t.Fatal("expected gateway subscription id to be recorded")
	}
	if result.Donation.Status != entity.DonationStatusComplete {
		t.Fatalf("unexpected donation status: %s", result.Donation.Status)
	}
	if result.Donation.SubscriptionID == nil || *result.Donation.SubscriptionID != result.Subscription.ID {
		t.Fatal("expected donation to be linked to the subscription")
	}
	if result.Donation.DonationType != entity.DonationTypeSubscription {
		t.Fatalf("unexpected donation type: %s", result.Donation.DonationType)
	}
}

func TestCreateSubscriptionACHStaysProcessing(t *testing.T) {
	f := newSubscriptionFixture()
	f.gw.chargeOutput = &gateway.ChargeOutput{ChargeID: "ach_1", SubscriptionID: "sub_2"}

	req := &types.CreateSubscriptionRequest{
		CreateDonationRequest: *achDonationRequest(),
		Period:                "week",
		Installments:          4,
	}
	result, err := f.svc.CreateSubscription(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Donation.Status != entity.DonationStatusProcessing {
		t.Fatalf("unexpected donation status: %s", result.Donation.Status)
	}
	if result.Subscription.Status != entity.SubscriptionStatusActive {
		t.Fatalf("unexpected subscription status: %s", result.Subscription.Status)
	}
}

func TestCreateSubscriptionDeclineFailsBoth(t *testing.T) {
	f := newSubscriptionFixture()
	f.gw.chargeErr = &gateway.DeclinedError{Message: "Card declined"}

	_, err := f.svc.CreateSubscription(context.Background(), cardSubscriptionRequest())
	var declined *gateway.DeclinedError
	if !errors.As(err, &declined) {
		t.Fatalf("expected DeclinedError, got %v", err)
	}

	donation, _ := f.repo.FindByCallerRequestID(context.Background(), "give-host", "req-1")
	if donation == nil || donation.Status != entity.DonationStatusFailed {
		t.Fatal("expected donation to be marked failed")
	}
	subscription, _ := f.subs.FindByID(context.Background(), *donation.SubscriptionID)
	if subscription.Status != entity.SubscriptionStatusFailed {
		t.Fatalf("unexpected subscription status: %s", subscription.Status)
	}
}

func TestCreateSubscriptionIsIdempotent(t *testing.T) {
	f := newSubscriptionFixture()
	f.gw.chargeOutput = &gateway.ChargeOutput{ChargeID: "ch_1", SubscriptionID: "sub_1"}

	first, err := f.svc.CreateSubscription(context.Background(), cardSubscriptionRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.svc.CreateSubscription(context.Background(), cardSubscriptionRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Donation.ID != second.Donation.ID {
		t.Fatal("expected the same donation for the same caller/request pair")
	}
	if second.Subscription == nil || second.Subscription.ID != first.Subscription.ID {
		t.Fatal("expected the linked subscription to be returned")
	}
	if f.gw.chargeCalls != 1 {
		t.Fatalf("expected a single gateway call, got %d", f.gw.chargeCalls)
	}
}

func TestCancelSubscription(t *testing.T) {
	f := newSubscriptionFixture()
	f.gw.chargeOutput = &gateway.ChargeOutput{ChargeID: "ch_1", SubscriptionID: "sub_1"}
	result, err := f.svc.CreateSubscription(context.Background(), cardSubscriptionRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelled, err := f.svc.CancelSubscription(context.Background(), &types.CancelSubscriptionRequest{ID: result.Subscription.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != entity.SubscriptionStatusCancelled {
		t.Fatalf("unexpected status: %s", cancelled.Status)
	}
	if f.gw.cancelCalls != 1 {
		t.Fatalf("expected a single vendor cancel, got %d", f.gw.cancelCalls)
	}
}

func TestCancelSubscriptionVendorErrorLeavesStatus(t *testing.T) {
	f := newSubscriptionFixture()
	f.gw.chargeOutput = &gateway.ChargeOutput{ChargeID: "ch_1", SubscriptionID: "sub_1"}
	result, err := f.svc.CreateSubscription(context.Background(), cardSubscriptionRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.gw.cancelErr = &gateway.TransportError{Op: "POST /subscriptions/sub_1/cancel/", Err: context.DeadlineExceeded}
	_, err = f.svc.CancelSubscription(context.Background(), &types.CancelSubscriptionRequest{ID: result.Subscription.ID})
	if err == nil {
		t.Fatal("expected the vendor error to surface")
	}

	stored, _ := f.subs.FindByID(context.Background(), result.Subscription.ID)
	if stored.Status != entity.SubscriptionStatusActive {
		t.Fatalf("status must not change when the vendor cancel fails, got %s", stored.Status)
	}
}

func TestCancelSubscriptionRequiresCancelableStatus(t *testing.T) {
	f := newSubscriptionFixture()
	subscription := &entity.Subscription{
		DonorEmail: "jane@example.com",
		Amount:     decimal.NewFromInt(25),
		Currency:   "USD",
		Status:     entity.SubscriptionStatusPending,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := f.subs.Create(context.Background(), subscription); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}

	_, err := f.svc.CancelSubscription(context.Background(), &types.CancelSubscriptionRequest{ID: subscription.ID})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}
