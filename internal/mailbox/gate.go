package mailbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Mitul30M/exploreinn-sub002/internal/identity"
	"github.com/Mitul30M/exploreinn-sub002/internal/repository"
)

// RoleSource supplies the persisted role record for an actor. This is the
// second, independent source consulted when the identity provider claims an
// actor is an admin.
type RoleSource interface {
	RoleOf(ctx context.Context, id uuid.UUID) (string, error)
}

// OwnershipVerifier answers whether an actor is the verified owner of a
// listing. Ownership data lives outside the mailbox core.
type OwnershipVerifier interface {
	IsOwner(ctx context.Context, actorID, listingID uuid.UUID) (bool, error)
}

// Gate decides whether an actor may open a mailbox before any mail is
// fetched. Rules are evaluated in order, first match wins; no rule matching
// means DENY, and DENY is reported as ErrMailboxNotFound.
type Gate struct {
	roles     RoleSource
	ownership OwnershipVerifier
	logger    *slog.Logger
}

// NewGate creates a new authorization Gate
func NewGate(roles RoleSource, ownership OwnershipVerifier, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		roles:     roles,
		ownership: ownership,
		logger:    logger,
	}
}

// Authorize returns nil when the actor may open the target mailbox and
// ErrMailboxNotFound when they may not. Any other error means the decision
// could not be made (role record or ownership lookup unavailable) and is
// retryable by the caller.
func (g *Gate) Authorize(ctx context.Context, actor identity.Actor, target Target) error {
	switch target.Kind {
	case KindAdmin:
		ok, err := g.corroborateAdmin(ctx, actor)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		return ErrMailboxNotFound

	case KindUser:
		// Only the owner's exact durable identifier opens a personal
		// mailbox. Admins go through the admin mailbox instead.
		if !actor.IsAnonymous() && actor.ID == target.UserID {
			return nil
		}
		return ErrMailboxNotFound

	case KindListing:
		if actor.IsAnonymous() {
			return ErrMailboxNotFound
		}
		owned, err := g.ownership.IsOwner(ctx, actor.ID, target.ListingID)
		if err != nil {
			return fmt.Errorf("failed to verify listing ownership: %w", err)
		}
		if owned {
			return nil
		}
		ok, err := g.corroborateAdmin(ctx, actor)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		return ErrMailboxNotFound

	default:
		return ErrMailboxNotFound
	}
}

// ActsAsReceiver reports whether opening mail through this target should be
// attributed to the owning receiver, i.e. whether a select may flip the
// unread flag. The admin mailbox is always read-only with respect to unread
// state, even when the admin happens to be the addressed receiver; an
// admin's own mail flips only through their own user mailbox.
func (g *Gate) ActsAsReceiver(ctx context.Context, actor identity.Actor, target Target) (bool, error) {
	switch target.Kind {
	case KindUser:
		return actor.ID == target.UserID, nil
	case KindListing:
		owned, err := g.ownership.IsOwner(ctx, actor.ID, target.ListingID)
		if err != nil {
			return false, fmt.Errorf("failed to verify listing ownership: %w", err)
		}
		return owned, nil
	default:
		return false, nil
	}
}

// corroborateAdmin checks the admin role against both independent sources:
// the identity provider's (duplicated) claim and the persisted role record.
// Both must agree; a mismatch is DENY, never "trust whichever says admin".
func (g *Gate) corroborateAdmin(ctx context.Context, actor identity.Actor) (bool, error) {
	if actor.IsAnonymous() || !actor.ClaimsAdmin() {
		return false, nil
	}

	persisted, err := g.roles.RoleOf(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// A claimed admin with no role record is untrusted
			g.logger.Warn("admin claim with no persisted role record", "actor_id", actor.ID)
			return false, nil
		}
		return false, fmt.Errorf("failed to load persisted role: %w", err)
	}

	if identity.ParseRole(persisted) != identity.RoleAdmin {
		g.logger.Warn("admin role sources disagree", "actor_id", actor.ID, "persisted_role", persisted)
		return false, nil
	}

	return true, nil
}
