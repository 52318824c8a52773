package mailbox

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Mitul30M/exploreinn-sub002/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func sessionFixture(t *testing.T, asReceiver bool) (*Session, *mockMailStore, []DisplayMail) {
	t.Helper()

	viewer := regularActor(uuid.New())
	store := newMockMailStore()

	mails := make([]DisplayMail, 3)
	for i := range mails {
		id := uuid.New()
		store.AddMail(repository.Mail{ID: id, ReceiverID: viewer.ID, CreatedAt: time.Now()})
		mails[i] = DisplayMail{ID: id, ReceiverID: viewer.ID}
	}

	session := newSession(viewer, UserMailbox(viewer.ID), mails, asReceiver, store, discardLogger())
	return session, store, mails
}

func TestSessionStartsClosed(t *testing.T) {
	session, _, _ := sessionFixture(t, true)

	if _, open := session.OpenMail(); open {
		t.Fatal("new session must start with no open mail")
	}
}

func TestSessionSelectMarksReadOnce(t *testing.T) {
	session, store, mails := sessionFixture(t, true)
	ctx := context.Background()
	target := mails[0].ID

	mail, err := session.Select(ctx, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mail.IsRead {
		t.Fatal("selected mail should be read in the view")
	}
	if !store.IsRead(target) {
		t.Fatal("read state not persisted")
	}
	if open, ok := session.OpenMail(); !ok || open != target {
		t.Fatalf("expected %s open, got %s (%v)", target, open, ok)
	}

	// Re-selecting must not write again
	if _, err := session.Select(ctx, target); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls := store.MarkCalls(target); calls != 1 {
		t.Fatalf("read-state transition written %d times, want exactly 1", calls)
	}
}

func TestSessionSelectSwitchesDirectly(t *testing.T) {
	session, store, mails := sessionFixture(t, true)
	ctx := context.Background()

	if _, err := session.Select(ctx, mails[0].ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := session.Select(ctx, mails[1].ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if open, ok := session.OpenMail(); !ok || open != mails[1].ID {
		t.Fatalf("switch should leave second mail open, got %s (%v)", open, ok)
	}
	if store.MarkCalls(mails[0].ID) != 1 || store.MarkCalls(mails[1].ID) != 1 {
		t.Fatal("each opened mail should be marked exactly once")
	}
}

func TestSessionSelectUnknownMail(t *testing.T) {
	session, _, _ := sessionFixture(t, true)

	_, err := session.Select(context.Background(), uuid.New())
	if !errors.Is(err, ErrMailNotInView) {
		t.Fatalf("expected ErrMailNotInView, got %v", err)
	}
	if _, open := session.OpenMail(); open {
		t.Fatal("failed select must not change the open state")
	}
}

func TestSessionReadOnlyViewerNeverWrites(t *testing.T) {
	// An admin viewing the platform mailbox opens mail without touching
	// anyone's unread state.
	session, store, mails := sessionFixture(t, false)
	ctx := context.Background()

	mail, err := session.Select(ctx, mails[0].ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mail.IsRead {
		t.Fatal("read-only viewer must not flip the unread flag in the view")
	}
	if store.MarkCalls(mails[0].ID) != 0 {
		t.Fatal("read-only viewer must not write read state")
	}
	if open, ok := session.OpenMail(); !ok || open != mails[0].ID {
		t.Fatal("read-only viewer still opens the mail")
	}
}

func TestSessionCanceledContextLeavesStateUntouched(t *testing.T) {
	session, store, mails := sessionFixture(t, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := session.Select(ctx, mails[0].ID)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, open := session.OpenMail(); open {
		t.Fatal("canceled select must not open mail")
	}
	if store.IsRead(mails[0].ID) {
		t.Fatal("canceled select must not persist read state")
	}
}

func TestSessionMarkerFailureStillOpens(t *testing.T) {
	session, store, mails := sessionFixture(t, true)
	store.markErr = errors.New("connection refused")
	ctx := context.Background()

	mail, err := session.Select(ctx, mails[0].ID)
	if err != nil {
		t.Fatalf("a failed read-state write must not block opening, got %v", err)
	}
	if mail.IsRead {
		t.Fatal("view must not claim read when the write failed")
	}
	if open, ok := session.OpenMail(); !ok || open != mails[0].ID {
		t.Fatal("mail should be open despite the failed write")
	}
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	session, _, mails := sessionFixture(t, true)
	ctx := context.Background()

	session.Close() // closing a closed session is a no-op

	if _, err := session.Select(ctx, mails[0].ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	session.Close()
	if _, open := session.OpenMail(); open {
		t.Fatal("close should return the session to the closed state")
	}
	session.Close()
}

func TestViewRegistryLookup(t *testing.T) {
	registry := NewViewRegistry(time.Hour, discardLogger())
	viewer := regularActor(uuid.New())
	stranger := regularActor(uuid.New())

	session := newSession(viewer, UserMailbox(viewer.ID), nil, true, newMockMailStore(), discardLogger())
	registry.Add(session)

	if _, err := registry.Get(session.ID(), viewer.ID); err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}

	// A foreign view must look exactly like a missing one
	if _, err := registry.Get(session.ID(), stranger.ID); !errors.Is(err, ErrViewNotFound) {
		t.Fatalf("expected ErrViewNotFound for foreign viewer, got %v", err)
	}
	if _, err := registry.Get(uuid.New(), viewer.ID); !errors.Is(err, ErrViewNotFound) {
		t.Fatalf("expected ErrViewNotFound for unknown view, got %v", err)
	}

	registry.Remove(session.ID())
	if _, err := registry.Get(session.ID(), viewer.ID); !errors.Is(err, ErrViewNotFound) {
		t.Fatalf("expected ErrViewNotFound after remove, got %v", err)
	}
	registry.Remove(session.ID()) // removing again is a no-op
}

func TestViewRegistrySweepsIdleSessions(t *testing.T) {
	registry := NewViewRegistry(10*time.Millisecond, discardLogger())
	viewer := regularActor(uuid.New())

	stale := newSession(viewer, UserMailbox(viewer.ID), nil, true, newMockMailStore(), discardLogger())
	registry.Add(stale)

	time.Sleep(20 * time.Millisecond)

	// Adding another session triggers the sweep
	fresh := newSession(viewer, UserMailbox(viewer.ID), nil, true, newMockMailStore(), discardLogger())
	registry.Add(fresh)

	if _, err := registry.Get(stale.ID(), viewer.ID); !errors.Is(err, ErrViewNotFound) {
		t.Fatalf("idle session should have been discarded, got %v", err)
	}
	if _, err := registry.Get(fresh.ID(), viewer.ID); err != nil {
		t.Fatalf("fresh session should survive the sweep: %v", err)
	}
}

func TestSessionLastWriteWins(t *testing.T) {
	session, _, mails := sessionFixture(t, true)
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 2; i++ {
		go func(id uuid.UUID) {
			defer func() { done <- struct{}{} }()
			if _, err := session.Select(ctx, id); err != nil {
				t.Errorf("concurrent select failed: %v", err)
			}
		}(mails[i].ID)
	}
	<-done
	<-done

	open, ok := session.OpenMail()
	if !ok {
		t.Fatal("one of the concurrent selects should have left a mail open")
	}
	if open != mails[0].ID && open != mails[1].ID {
		t.Fatalf("open mail %s is neither contender", open)
	}
}
