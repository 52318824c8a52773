package mailbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Mitul30M/exploreinn-sub002/internal/metrics"
	"github.com/Mitul30M/exploreinn-sub002/internal/repository"
	"github.com/Mitul30M/exploreinn-sub002/internal/sanitizer"
)

// previewLength is the plain-text preview length for mail list entries
const previewLength = 160

// ActorSummary is display-only sender/receiver data derived from the live
// identity record at view time; it is never persisted with the mail.
type ActorSummary struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	System      bool   `json:"system,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// ListingSummary is display-only listing data attached to listing-scoped mail
type ListingSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	City        string `json:"city,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// DisplayMail is a mail record combined with its enrichment data, safe for
// direct presentation.
type DisplayMail struct {
	ID         uuid.UUID       `json:"id"`
	Subject    string          `json:"subject"`
	Body       string          `json:"body"`
	Preview    string          `json:"preview"`
	IsRead     bool            `json:"is_read"`
	CreatedAt  time.Time       `json:"created_at"`
	Sender     ActorSummary    `json:"sender"`
	Receiver   ActorSummary    `json:"receiver"`
	Listing    *ListingSummary `json:"listing,omitempty"`
	ReceiverID uuid.UUID       `json:"-"`
}

// UserDirectory resolves actor identity records for display
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*repository.User, error)
}

// ListingDirectory resolves listing records for display
type ListingDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Listing, error)
}

// Enricher attaches display summaries to raw mail records. A reference that
// no longer resolves degrades to a placeholder summary; one broken reference
// must not blank the whole mailbox view.
type Enricher struct {
	users     UserDirectory
	listings  ListingDirectory
	sanitizer sanitizer.BodySanitizer
	logger    *slog.Logger
}

// NewEnricher creates a new Enricher instance
func NewEnricher(users UserDirectory, listings ListingDirectory, bodySanitizer sanitizer.BodySanitizer, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	if bodySanitizer == nil {
		bodySanitizer = sanitizer.NewBodySanitizer()
	}
	return &Enricher{
		users:     users,
		listings:  listings,
		sanitizer: bodySanitizer,
		logger:    logger,
	}
}

// Enrich decorates a single mail record for display
func (e *Enricher) Enrich(ctx context.Context, mail repository.Mail) DisplayMail {
	display := DisplayMail{
		ID:         mail.ID,
		Subject:    mail.Subject,
		Body:       e.sanitizer.Sanitize(mail.Body),
		Preview:    e.sanitizer.Preview(mail.Body, previewLength),
		IsRead:     mail.IsRead,
		CreatedAt:  mail.CreatedAt,
		Receiver:   e.actorSummary(ctx, mail.ReceiverID),
		ReceiverID: mail.ReceiverID,
	}

	if mail.SenderID != nil {
		display.Sender = e.actorSummary(ctx, *mail.SenderID)
	} else {
		// System-originated notice, not a dangling reference
		display.Sender = ActorSummary{Name: "ExploreInn", System: true}
	}

	if mail.ListingID != nil {
		display.Listing = e.listingSummary(ctx, *mail.ListingID)
	}

	return display
}

// EnrichAll decorates a mail sequence in order
func (e *Enricher) EnrichAll(ctx context.Context, mails []repository.Mail) []DisplayMail {
	displays := make([]DisplayMail, len(mails))
	for i, m := range mails {
		displays[i] = e.Enrich(ctx, m)
	}
	return displays
}

// actorSummary resolves a user reference, degrading to a placeholder when
// the record is gone or the lookup fails.
func (e *Enricher) actorSummary(ctx context.Context, id uuid.UUID) ActorSummary {
	user, err := e.users.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			e.logger.Warn("failed to resolve actor for display", "actor_id", id, "error", err)
		}
		metrics.MailboxDanglingReferences.WithLabelValues("user").Inc()
		return ActorSummary{ID: id.String(), Name: "Unavailable account", Placeholder: true}
	}

	summary := ActorSummary{ID: user.ID.String(), Name: user.Name}
	if user.AvatarURL != nil {
		summary.AvatarURL = *user.AvatarURL
	}
	return summary
}

// listingSummary resolves a listing reference, degrading to a placeholder
// when the record is gone or the lookup fails.
func (e *Enricher) listingSummary(ctx context.Context, id uuid.UUID) *ListingSummary {
	listing, err := e.listings.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrListingNotFound) {
			e.logger.Warn("failed to resolve listing for display", "listing_id", id, "error", err)
		}
		metrics.MailboxDanglingReferences.WithLabelValues("listing").Inc()
		return &ListingSummary{ID: id.String(), Title: "Unavailable listing", Placeholder: true}
	}

	summary := &ListingSummary{ID: listing.ID.String(), Title: listing.Title, City: listing.City}
	if listing.ImageURL != nil {
		summary.ImageURL = *listing.ImageURL
	}
	return summary
}
