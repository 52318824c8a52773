package mailbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Mitul30M/exploreinn-sub002/internal/identity"
	"github.com/Mitul30M/exploreinn-sub002/internal/metrics"
)

// UnreadCounter supplies unread totals for the personal mailbox badge
type UnreadCounter interface {
	CountUnreadByReceiver(ctx context.Context, receiverID uuid.UUID) (int, error)
}

// ViewService is the mailbox-view contract exposed to the presentation
// layer: authorize, fetch, enrich, and manage view sessions. Authorization
// always completes before any query runs; there is no speculative prefetch
// past an unresolved decision.
type ViewService struct {
	gate     *Gate
	query    *Query
	enricher *Enricher
	marker   ReadMarker
	unread   UnreadCounter
	registry *ViewRegistry
	logger   *slog.Logger
}

// ViewServiceConfig contains dependencies for the ViewService
type ViewServiceConfig struct {
	Gate     *Gate
	Query    *Query
	Enricher *Enricher
	Marker   ReadMarker
	Unread   UnreadCounter
	Registry *ViewRegistry
	Logger   *slog.Logger
}

// NewViewService creates a new ViewService instance
func NewViewService(cfg ViewServiceConfig) *ViewService {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &ViewService{
		gate:     cfg.Gate,
		query:    cfg.Query,
		enricher: cfg.Enricher,
		marker:   cfg.Marker,
		unread:   cfg.Unread,
		registry: cfg.Registry,
		logger:   cfg.Logger,
	}
}

// LoadMailbox authorizes the actor against the target, then fetches and
// enriches its mail. A deny is indistinguishable from a missing mailbox. A
// context canceled mid-fetch discards the result rather than returning a
// partial view.
func (v *ViewService) LoadMailbox(ctx context.Context, actor identity.Actor, target Target) ([]DisplayMail, error) {
	start := time.Now()

	if err := v.gate.Authorize(ctx, actor, target); err != nil {
		if err == ErrMailboxNotFound {
			metrics.MailboxAuthzDecisions.WithLabelValues(string(target.Kind), "deny").Inc()
			return nil, err
		}
		return nil, err
	}
	metrics.MailboxAuthzDecisions.WithLabelValues(string(target.Kind), "allow").Inc()

	mails, err := v.query.ListMail(ctx, target)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	displays := v.enricher.EnrichAll(ctx, mails)

	metrics.MailboxLoads.WithLabelValues(string(target.Kind)).Inc()
	metrics.MailboxLoadDuration.WithLabelValues(string(target.Kind)).Observe(time.Since(start).Seconds())
	return displays, nil
}

// OpenView loads the mailbox and creates a view session over the result.
// The session decides whether selects flip unread state: only a viewer who
// entered through their own mailbox (or a listing they own) acts as the
// receiving actor; admin viewing is read-only.
func (v *ViewService) OpenView(ctx context.Context, actor identity.Actor, target Target) (*Session, []DisplayMail, error) {
	displays, err := v.LoadMailbox(ctx, actor, target)
	if err != nil {
		return nil, nil, err
	}

	asReceiver, err := v.gate.ActsAsReceiver(ctx, actor, target)
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	session := newSession(actor, target, displays, asReceiver, v.marker, v.logger)
	v.registry.Add(session)

	v.logger.Info("mailbox view opened",
		"view_id", session.ID(),
		"mailbox", target.String(),
		"actor_id", actor.ID,
		"mail_count", len(displays),
		"as_receiver", asReceiver,
	)
	return session, displays, nil
}

// SelectMail opens a mail inside an existing view
func (v *ViewService) SelectMail(ctx context.Context, actor identity.Actor, viewID, mailID uuid.UUID) (*DisplayMail, error) {
	session, err := v.registry.Get(viewID, actor.ID)
	if err != nil {
		return nil, err
	}
	return session.Select(ctx, mailID)
}

// CloseMail closes the open mail inside an existing view
func (v *ViewService) CloseMail(actor identity.Actor, viewID uuid.UUID) error {
	session, err := v.registry.Get(viewID, actor.ID)
	if err != nil {
		return err
	}
	session.Close()
	return nil
}

// DiscardView tears a view session down. Unknown views are ignored so
// teardown is idempotent.
func (v *ViewService) DiscardView(actor identity.Actor, viewID uuid.UUID) {
	if _, err := v.registry.Get(viewID, actor.ID); err != nil {
		return
	}
	v.registry.Remove(viewID)
}

// UnreadCount returns the number of unread personal mail records for the
// actor's own mailbox.
func (v *ViewService) UnreadCount(ctx context.Context, actor identity.Actor) (int, error) {
	if actor.IsAnonymous() {
		return 0, ErrMailboxNotFound
	}
	count, err := v.unread.CountUnreadByReceiver(ctx, actor.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread mail: %w", err)
	}
	return count, nil
}
