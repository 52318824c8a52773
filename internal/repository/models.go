package repository

import (
	"time"

	"github.com/google/uuid"
)

// User represents a platform account in the database. Role is the persisted
// role record, kept independently of the identity provider's claim so the
// two can corroborate each other.
type User struct {
	ID        uuid.UUID  `db:"id"`
	Email     string     `db:"email"`
	Name      string     `db:"name"`
	AvatarURL *string    `db:"avatar_url"`
	Role      string     `db:"role"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

// Listing represents a hotel listing in the database
type Listing struct {
	ID        uuid.UUID  `db:"id"`
	OwnerID   uuid.UUID  `db:"owner_id"`
	Title     string     `db:"title"`
	City      string     `db:"city"`
	ImageURL  *string    `db:"image_url"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

// Mail represents a persisted mail record. A record with a listing ID lives
// in that listing's mailbox; a record without one lives in the receiver's
// personal mailbox. The two memberships are mutually exclusive by
// construction; the admin mailbox sees every record regardless.
type Mail struct {
	ID         uuid.UUID  `db:"id"`
	SenderID   *uuid.UUID `db:"sender_id"` // nil for system-originated notices
	ReceiverID uuid.UUID  `db:"receiver_id"`
	ListingID  *uuid.UUID `db:"listing_id"`
	Subject    string     `db:"subject"`
	Body       string     `db:"body"`
	IsRead     bool       `db:"is_read"`
	CreatedAt  time.Time  `db:"created_at"`
}
