package mailbox

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/Mitul30M/exploreinn-sub002/internal/repository"
)

// Query retrieves the ordered mail set for an authorized mailbox target.
// It must only be called after the Gate has allowed the target.
type Query struct {
	mails repository.MailRepository
}

// NewQuery creates a new Query service
func NewQuery(mails repository.MailRepository) *Query {
	return &Query{mails: mails}
}

// ListMail returns the mail records belonging to the target, most recent
// first. An empty mailbox yields an empty slice, not an error.
func (q *Query) ListMail(ctx context.Context, target Target) ([]repository.Mail, error) {
	var (
		mails []repository.Mail
		err   error
	)

	switch target.Kind {
	case KindUser:
		mails, err = q.mails.FindByReceiver(ctx, target.UserID)
	case KindListing:
		mails, err = q.mails.FindByListing(ctx, target.ListingID)
	case KindAdmin:
		mails, err = q.mails.FindAll(ctx)
	default:
		return nil, ErrMailboxNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list mail for %s: %w", target, err)
	}

	sortMail(mails)
	return mails, nil
}

// sortMail orders mail descending by creation time, ties broken by ID
// descending. The store already orders its results; sorting again here keeps
// the sequence reproducible regardless of which repository implementation
// backs the query.
func sortMail(mails []repository.Mail) {
	sort.SliceStable(mails, func(i, j int) bool {
		if !mails[i].CreatedAt.Equal(mails[j].CreatedAt) {
			return mails[i].CreatedAt.After(mails[j].CreatedAt)
		}
		return bytes.Compare(mails[i].ID[:], mails[j].ID[:]) > 0
	})
}
