package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Mail repository errors
var (
	ErrMailNotFound = errors.New("mail not found")
)

// MailRepository defines the persistence contract for mail records. Each
// operation is atomic; MarkRead is idempotent. Ordering is descending by
// created_at with ties broken by id descending so the sequence is
// reproducible for records sharing a timestamp.
type MailRepository interface {
	FindByReceiver(ctx context.Context, receiverID uuid.UUID) ([]Mail, error)
	FindByListing(ctx context.Context, listingID uuid.UUID) ([]Mail, error)
	FindAll(ctx context.Context) ([]Mail, error)
	MarkRead(ctx context.Context, mailID uuid.UUID) error
	CountUnreadByReceiver(ctx context.Context, receiverID uuid.UUID) (int, error)
}

// MailRepo implements MailRepository using PostgreSQL
type MailRepo struct {
	db *sqlx.DB
}

// NewMailRepo creates a new MailRepo instance
func NewMailRepo(db *sqlx.DB) *MailRepo {
	return &MailRepo{db: db}
}

const mailColumns = `id, sender_id, receiver_id, listing_id, subject, body, is_read, created_at`

// FindByReceiver retrieves all personal mail for a receiver. Listing-scoped
// mail is excluded; it belongs to the listing's mailbox instead.
func (r *MailRepo) FindByReceiver(ctx context.Context, receiverID uuid.UUID) ([]Mail, error) {
	query := `
		SELECT ` + mailColumns + `
		FROM mails
		WHERE receiver_id = $1 AND listing_id IS NULL
		ORDER BY created_at DESC, id DESC
	`

	var mails []Mail
	if err := r.db.SelectContext(ctx, &mails, query, receiverID); err != nil {
		return nil, fmt.Errorf("failed to query mail by receiver: %w", err)
	}
	return mails, nil
}

// FindByListing retrieves all mail scoped to a listing
func (r *MailRepo) FindByListing(ctx context.Context, listingID uuid.UUID) ([]Mail, error) {
	query := `
		SELECT ` + mailColumns + `
		FROM mails
		WHERE listing_id = $1
		ORDER BY created_at DESC, id DESC
	`

	var mails []Mail
	if err := r.db.SelectContext(ctx, &mails, query, listingID); err != nil {
		return nil, fmt.Errorf("failed to query mail by listing: %w", err)
	}
	return mails, nil
}

// FindAll retrieves every mail record on the platform
func (r *MailRepo) FindAll(ctx context.Context) ([]Mail, error) {
	query := `
		SELECT ` + mailColumns + `
		FROM mails
		ORDER BY created_at DESC, id DESC
	`

	var mails []Mail
	if err := r.db.SelectContext(ctx, &mails, query); err != nil {
		return nil, fmt.Errorf("failed to query all mail: %w", err)
	}
	return mails, nil
}

// MarkRead sets is_read on a mail record. Marking an already-read mail is a
// no-op, not an error, so concurrent duplicate opens cannot corrupt state.
func (r *MailRepo) MarkRead(ctx context.Context, mailID uuid.UUID) error {
	query := `UPDATE mails SET is_read = true WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, mailID)
	if err != nil {
		return fmt.Errorf("failed to mark mail as read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrMailNotFound
	}

	return nil
}

// CountUnreadByReceiver returns the number of unread personal mail records
// for a receiver
func (r *MailRepo) CountUnreadByReceiver(ctx context.Context, receiverID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM mails
		WHERE receiver_id = $1 AND listing_id IS NULL AND is_read = false
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, receiverID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count unread mail: %w", err)
	}
	return count, nil
}
