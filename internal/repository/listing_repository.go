package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Listing repository errors
var (
	ErrListingNotFound = errors.New("listing not found")
)

// ListingRepository defines the interface for listing data access
type ListingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Listing, error)
	IsOwner(ctx context.Context, actorID, listingID uuid.UUID) (bool, error)
}

// listingRepository implements ListingRepository using PostgreSQL
type listingRepository struct {
	pool *pgxpool.Pool
}

// NewListingRepository creates a new ListingRepository instance
func NewListingRepository(pool *pgxpool.Pool) ListingRepository {
	return &listingRepository{pool: pool}
}

// GetByID retrieves a listing by its ID
func (r *listingRepository) GetByID(ctx context.Context, id uuid.UUID) (*Listing, error) {
	query := `
		SELECT id, owner_id, title, city, image_url, created_at, updated_at, deleted_at
		FROM listings
		WHERE id = $1 AND deleted_at IS NULL
	`

	listing := &Listing{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&listing.ID,
		&listing.OwnerID,
		&listing.Title,
		&listing.City,
		&listing.ImageURL,
		&listing.CreatedAt,
		&listing.UpdatedAt,
		&listing.DeletedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	return listing, nil
}

// IsOwner reports whether the actor is the verified owner of the listing.
// An unknown listing is simply not owned; it is not an error here, so the
// caller's deny path stays indistinguishable from not-found.
func (r *listingRepository) IsOwner(ctx context.Context, actorID, listingID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM listings
			WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
		)
	`

	var owned bool
	if err := r.pool.QueryRow(ctx, query, listingID, actorID).Scan(&owned); err != nil {
		return false, err
	}

	return owned, nil
}
