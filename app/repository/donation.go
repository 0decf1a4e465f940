package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/givebridge/ms-go-donations/app/entity"
)

var (
	ErrDonationNotFound      = errors.New("donation not found")
	ErrDonationAlreadyExists = errors.New("donation already exists")
)

type DonationFilter struct {
	RequestID     string
	CallerService string
	Email         string
	Status        string
	PaymentMethod string
	Limit         int32
	Offset        int32
}

type DonationRepository struct {
	db DBTX
}

func NewDonationRepository(db DBTX) *DonationRepository {
	return &DonationRepository{db: db}
}

const donationColumns = `
	id, request_id, caller_service, purchase_key,
	first_name, last_name, email,
	address, city, state, zip, country,
	amount, currency,
	status, payment_method, donation_type,
	gateway_transaction_id, subscription_id,
	created_at, updated_at
`

func (r *DonationRepository) Create(ctx context.Context, donation *entity.Donation) error {
	query := `
		INSERT INTO donations (
			request_id, caller_service, purchase_key,
			first_name, last_name, email,
			address, city, state, zip, country,
			amount, currency,
			status, payment_method, donation_type,
			gateway_transaction_id, subscription_id,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		donation.RequestID,
		donation.CallerService,
		donation.PurchaseKey,
		donation.FirstName,
		donation.LastName,
		donation.Email,
		donation.Address,
		donation.City,
		donation.State,
		donation.Zip,
		donation.Country,
		donation.Amount,
		donation.Currency,
		donation.Status,
		donation.PaymentMethod,
		donation.DonationType,
		nullableStringValue(donation.GatewayTransactionID),
		nullableUint64Value(donation.SubscriptionID),
		donation.CreatedAt,
		donation.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDonationAlreadyExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	donation.ID = uint64(id)
	return nil
}

func (r *DonationRepository) Update(ctx context.Context, donation *entity.Donation) error {
	query := `
		UPDATE donations SET
			status = ?,
			gateway_transaction_id = ?,
			subscription_id = ?,
			updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		donation.Status,
		nullableStringValue(donation.GatewayTransactionID),
		nullableUint64Value(donation.SubscriptionID),
		donation.UpdatedAt,
		donation.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if exists, existsErr := r.exists(ctx, donation.ID); existsErr == nil && !exists {
			return ErrDonationNotFound
		}
	}
	return nil
}

func (r *DonationRepository) FindByID(ctx context.Context, id uint64) (*entity.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE id = ?`
	return r.findOne(ctx, query, id)
}

func (r *DonationRepository) FindByCallerRequestID(ctx context.Context, callerService, requestID string) (*entity.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE caller_service = ? AND request_id = ?`
	return r.findOne(ctx, query, callerService, requestID)
}

func (r *DonationRepository) FindByGatewayTransactionID(ctx context.Context, transactionID string) (*entity.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE gateway_transaction_id = ?`
	return r.findOne(ctx, query, transactionID)
}

func (r *DonationRepository) List(ctx context.Context, filter DonationFilter) ([]*entity.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE 1=1`
	args := make([]interface{}, 0, 8)

	if filter.RequestID != "" {
		query += ` AND request_id = ?`
		args = append(args, filter.RequestID)
	}
	if filter.CallerService != "" {
		query += ` AND caller_service = ?`
		args = append(args, filter.CallerService)
	}
	if filter.Email != "" {
		query += ` AND email = ?`
		args = append(args, filter.Email)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.PaymentMethod != "" {
		query += ` AND payment_method = ?`
		args = append(args, filter.PaymentMethod)
	}

	query += ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	return r.findMany(ctx, query, args...)
}

// ListProcessingForReconcile returns ACH donations still waiting on vendor
// settlement whose last update is older than before.
func (r *DonationRepository) ListProcessingForReconcile(ctx context.Context, before time.Time, limit int32) ([]*entity.Donation, error) {
	query := `
		SELECT ` + donationColumns + `
		FROM donations
		WHERE status = ? AND gateway_transaction_id IS NOT NULL AND updated_at < ?
		ORDER BY updated_at ASC
		LIMIT ?
	`
	return r.findMany(ctx, query, entity.DonationStatusProcessing, before, limit)
}

func (r *DonationRepository) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Donation, error) {
	query := `
		SELECT ` + donationColumns + `
		FROM donations
		WHERE status = ? AND created_at < ?
		ORDER BY created_at ASC
		LIMIT ?
	`
	return r.findMany(ctx, query, entity.DonationStatusPending, cutoff, limit)
}

func (r *DonationRepository) exists(ctx context.Context, id uint64) (bool, error) {
	var found uint64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM donations WHERE id = ?`, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *DonationRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.Donation, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	donation, err := scanDonation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return donation, nil
}

func (r *DonationRepository) findMany(ctx context.Context, query string, args ...interface{}) ([]*entity.Donation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.Donation, 0)
	for rows.Next() {
		donation, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, donation)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDonation(row rowScanner) (*entity.Donation, error) {
	var donation entity.Donation
	var gatewayTransactionID sql.NullString
	var subscriptionID sql.NullInt64

	err := row.Scan(
		&donation.ID,
		&donation.RequestID,
		&donation.CallerService,
		&donation.PurchaseKey,
		&donation.FirstName,
		&donation.LastName,
		&donation.Email,
		&donation.Address,
		&donation.City,
		&donation.State,
		&donation.Zip,
		&donation.Country,
		&donation.Amount,
		&donation.Currency,
		&donation.Status,
		&donation.PaymentMethod,
		&donation.DonationType,
		&gatewayTransactionID,
		&subscriptionID,
		&donation.CreatedAt,
		&donation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	donation.GatewayTransactionID = stringPtrFromNull(gatewayTransactionID)
	donation.SubscriptionID = uint64PtrFromNull(subscriptionID)
	return &donation, nil
}
