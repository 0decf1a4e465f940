package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/givebridge/ms-go-donations/app/entity"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

type SubscriptionRepository struct {
	db DBTX
}

func NewSubscriptionRepository(db DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `
	id, donor_email, amount, currency, period, installments,
	payment_method, status, gateway_subscription_id, created_at, updated_at
`

func (r *SubscriptionRepository) Create(ctx context.Context, subscription *entity.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			donor_email, amount, currency, period, installments,
			payment_method, status, gateway_subscription_id, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		subscription.DonorEmail,
		subscription.Amount,
		subscription.Currency,
		subscription.Period,
		subscription.Installments,
		subscription.PaymentMethod,
		subscription.Status,
		nullableStringValue(subscription.GatewaySubscriptionID),
		subscription.CreatedAt,
		subscription.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	subscription.ID = uint64(id)
	return nil
}

func (r *SubscriptionRepository) Update(ctx context.Context, subscription *entity.Subscription) error {
	query := `
		UPDATE subscriptions SET
			status = ?,
			gateway_subscription_id = ?,
			updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		subscription.Status,
		nullableStringValue(subscription.GatewaySubscriptionID),
		subscription.UpdatedAt,
		subscription.ID,
	)
	return err
}

func (r *SubscriptionRepository) FindByID(ctx context.Context, id uint64) (*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = ?`
	return r.findOne(ctx, query, id)
}

func (r *SubscriptionRepository) FindByGatewaySubscriptionID(ctx context.Context, gatewaySubscriptionID string) (*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE gateway_subscription_id = ?`
	return r.findOne(ctx, query, gatewaySubscriptionID)
}

func (r *SubscriptionRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.Subscription, error) {
	var subscription entity.Subscription
	var gatewaySubscriptionID sql.NullString

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&subscription.ID,
		&subscription.DonorEmail,
		&subscription.Amount,
		&subscription.Currency,
		&subscription.Period,
		&subscription.Installments,
		&subscription.PaymentMethod,
		&subscription.Status,
		&gatewaySubscriptionID,
		&subscription.CreatedAt,
		&subscription.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	subscription.GatewaySubscriptionID = stringPtrFromNull(gatewaySubscriptionID)
	return &subscription, nil
}
