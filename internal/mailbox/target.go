// Package mailbox implements the mailbox access-control and
// presentation-state core: resolving a requested mailbox, authorizing the
// caller, listing and enriching mail, and tracking which mail a view
// currently has open.
package mailbox

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind identifies which of the three mailbox shapes a target refers to.
type Kind string

const (
	// KindUser is a user's personal mailbox
	KindUser Kind = "user"
	// KindListing is a listing's mailbox
	KindListing Kind = "listing"
	// KindAdmin is the platform-wide admin mailbox
	KindAdmin Kind = "admin"
)

// Target is a tagged reference to one mailbox. It is a virtual grouping key,
// never persisted; exactly one constructor below produces each valid shape.
type Target struct {
	Kind      Kind
	UserID    uuid.UUID
	ListingID uuid.UUID
}

// UserMailbox targets the personal mailbox of the given user
func UserMailbox(userID uuid.UUID) Target {
	return Target{Kind: KindUser, UserID: userID}
}

// ListingMailbox targets the mailbox of the given listing
func ListingMailbox(listingID uuid.UUID) Target {
	return Target{Kind: KindListing, ListingID: listingID}
}

// AdminMailbox targets the platform-wide mailbox
func AdminMailbox() Target {
	return Target{Kind: KindAdmin}
}

// String returns a loggable description of the target
func (t Target) String() string {
	switch t.Kind {
	case KindUser:
		return fmt.Sprintf("user:%s", t.UserID)
	case KindListing:
		return fmt.Sprintf("listing:%s", t.ListingID)
	case KindAdmin:
		return "admin"
	default:
		return "unknown"
	}
}
