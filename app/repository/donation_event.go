package repository

import (
	"context"

	"github.com/givebridge/ms-go-donations/app/entity"
)

type DonationEventRepository struct {
	db DBTX
}

func NewDonationEventRepository(db DBTX) *DonationEventRepository {
	return &DonationEventRepository{db: db}
}

func (r *DonationEventRepository) Create(ctx context.Context, event *entity.DonationEvent) error {
	query := `
		INSERT INTO donation_events (
			donation_id, event_type, old_status, new_status, created_at
		)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		event.DonationID,
		event.EventType,
		nullableStringValue(event.OldStatus),
		event.NewStatus,
		event.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	event.ID = uint64(id)

	return nil
}

type DonationNoteRepository struct {
	db DBTX
}

func NewDonationNoteRepository(db DBTX) *DonationNoteRepository {
	return &DonationNoteRepository{db: db}
}

func (r *DonationNoteRepository) Create(ctx context.Context, note *entity.DonationNote) error {
	query := `
		INSERT INTO donation_notes (donation_id, content, created_at)
		VALUES (?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		note.DonationID,
		note.Content,
		note.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	note.ID = uint64(id)

	return nil
}

func (r *DonationNoteRepository) ListByDonationID(ctx context.Context, donationID uint64) ([]*entity.DonationNote, error) {
	query := `
		SELECT id, donation_id, content, created_at
		FROM donation_notes
		WHERE donation_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, donationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.DonationNote, 0)
	for rows.Next() {
		var note entity.DonationNote
		if err := rows.Scan(&note.ID, &note.DonationID, &note.Content, &note.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &note)
	}
	return items, rows.Err()
}
