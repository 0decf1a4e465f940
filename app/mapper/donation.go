package mapper

import (
	"time"

	"github.com/givebridge/ms-go-donations/app/entity"
	"github.com/givebridge/ms-go-donations/app/types"
)

func DonationToResponse(item *entity.Donation) *types.Donation {
	if item == nil {
		return nil
	}

	return &types.Donation{
		ID:                   item.ID,
		RequestID:            item.RequestID,
		CallerService:        item.CallerService,
		PurchaseKey:          item.PurchaseKey,
		FirstName:            item.FirstName,
		LastName:             item.LastName,
		Email:                item.Email,
		Amount:               item.Amount.String(),
		Currency:             item.Currency,
		Status:               item.Status,
		PaymentMethod:        item.PaymentMethod,
		DonationType:         item.DonationType,
		GatewayTransactionID: derefString(item.GatewayTransactionID),
		SubscriptionID:       derefUint64(item.SubscriptionID),
		CreatedAt:            item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:            item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func DonationsToResponse(items []*entity.Donation) []*types.Donation {
	result := make([]*types.Donation, 0, len(items))
	for _, item := range items {
		result = append(result, DonationToResponse(item))
	}
	return result
}

func DonationNotesToResponse(items []*entity.DonationNote) []*types.DonationNote {
	result := make([]*types.DonationNote, 0, len(items))
	for _, item := range items {
		result = append(result, &types.DonationNote{
			ID:         item.ID,
			DonationID: item.DonationID,
			Content:    item.Content,
			CreatedAt:  item.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return result
}

func SubscriptionToResponse(item *entity.Subscription) *types.Subscription {
	if item == nil {
		return nil
	}

	return &types.Subscription{
		ID:                    item.ID,
		DonorEmail:            item.DonorEmail,
		Amount:                item.Amount.String(),
		Currency:              item.Currency,
		Period:                item.Period,
		Installments:          item.Installments,
		PaymentMethod:         item.PaymentMethod,
		Status:                item.Status,
		GatewaySubscriptionID: derefString(item.GatewaySubscriptionID),
		CreatedAt:             item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:             item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefUint64(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v
}
