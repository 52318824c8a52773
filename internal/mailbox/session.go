package mailbox

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Mitul30M/exploreinn-sub002/internal/identity"
	"github.com/Mitul30M/exploreinn-sub002/internal/metrics"
)

// ReadMarker persists the read-state transition for a mail record. The write
// must be idempotent: marking an already-read mail is a harmless no-op.
type ReadMarker interface {
	MarkRead(ctx context.Context, mailID uuid.UUID) error
}

// Session is the per-view state machine tracking which mail (if any) is
// currently open. It lives for the duration of one mailbox view and is
// discarded when the view is torn down; nothing about the selection is
// persisted. Concurrent selects resolve last-write-wins.
type Session struct {
	id          uuid.UUID
	viewerID    uuid.UUID
	target      Target
	asReceiver  bool
	marker      ReadMarker
	logger      *slog.Logger

	mu       sync.Mutex
	mails    map[uuid.UUID]*DisplayMail
	openID   uuid.UUID
	isOpen   bool
	lastUsed time.Time
}

// newSession creates a session over an already-loaded, already-authorized
// mail set. asReceiver controls the read-state side effect: only a viewer
// acting as the owning receiver may flip unread mail to read.
func newSession(viewer identity.Actor, target Target, mails []DisplayMail, asReceiver bool, marker ReadMarker, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	byID := make(map[uuid.UUID]*DisplayMail, len(mails))
	for i := range mails {
		byID[mails[i].ID] = &mails[i]
	}

	return &Session{
		id:         uuid.New(),
		viewerID:   viewer.ID,
		target:     target,
		asReceiver: asReceiver,
		marker:     marker,
		logger:     logger,
		mails:      byID,
		lastUsed:   time.Now(),
	}
}

// ID returns the session's identifier
func (s *Session) ID() uuid.UUID {
	return s.id
}

// ViewerID returns the ID of the actor the session was opened for
func (s *Session) ViewerID() uuid.UUID {
	return s.viewerID
}

// OpenMail returns the currently open mail ID, if any
func (s *Session) OpenMail() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openID, s.isOpen
}

// Select opens the given mail. The mail must be part of the loaded view;
// selecting while another mail is open switches directly to the new one.
// When the viewer acts as the owning receiver and the mail is unread, the
// read-state transition is written exactly once; repeating the select is a
// no-op write. A canceled context leaves the session state untouched.
func (s *Session) Select(ctx context.Context, mailID uuid.UUID) (*DisplayMail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mail, ok := s.mails[mailID]
	if !ok {
		return nil, ErrMailNotInView
	}

	if s.asReceiver && !mail.IsRead {
		if err := s.marker.MarkRead(ctx, mailID); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				// The view went away mid-write; do not mutate state
				return nil, err
			}
			// A failed read-state write degrades the unread badge, not
			// the open transition
			s.logger.Warn("failed to mark mail as read", "mail_id", mailID, "error", err)
		} else {
			mail.IsRead = true
			metrics.MailboxReadWrites.Inc()
		}
	}

	s.openID = mailID
	s.isOpen = true
	s.lastUsed = time.Now()
	return mail, nil
}

// Close returns the session to the closed state. Closing a closed session
// is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openID = uuid.Nil
	s.isOpen = false
	s.lastUsed = time.Now()
}

// touch refreshes the idle timer
func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
}

// idleSince returns the last time the session was used
func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// ViewRegistry tracks live mailbox view sessions for the process. Each view
// holds its own snapshot; the registry is bookkeeping for teardown, not a
// shared mailbox cache.
type ViewRegistry struct {
	mu          sync.Mutex
	views       map[uuid.UUID]*Session
	idleTimeout time.Duration
	logger      *slog.Logger
}

// NewViewRegistry creates a registry that discards sessions idle for longer
// than idleTimeout.
func NewViewRegistry(idleTimeout time.Duration, logger *slog.Logger) *ViewRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ViewRegistry{
		views:       make(map[uuid.UUID]*Session),
		idleTimeout: idleTimeout,
		logger:      logger,
	}
}

// Add registers a session
func (r *ViewRegistry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	r.views[s.ID()] = s
	metrics.MailboxViewsLive.Set(float64(len(r.views)))
}

// Get returns the session for a view ID, refreshing its idle timer. Views
// belonging to other actors are reported as missing, not as forbidden.
func (r *ViewRegistry) Get(viewID uuid.UUID, viewerID uuid.UUID) (*Session, error) {
	r.mu.Lock()
	s, ok := r.views[viewID]
	r.mu.Unlock()

	if !ok || s.ViewerID() != viewerID {
		return nil, ErrViewNotFound
	}
	s.touch()
	return s, nil
}

// Remove tears a view down. Removing an unknown view is a no-op.
func (r *ViewRegistry) Remove(viewID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.views, viewID)
	metrics.MailboxViewsLive.Set(float64(len(r.views)))
}

// sweepLocked discards sessions past the idle timeout. Caller holds r.mu.
func (r *ViewRegistry) sweepLocked() {
	if r.idleTimeout <= 0 {
		return
	}
	cutoff := time.Now().Add(-r.idleTimeout)
	for id, s := range r.views {
		if s.idleSince().Before(cutoff) {
			delete(r.views, id)
			r.logger.Debug("discarded idle mailbox view", "view_id", id)
		}
	}
}
