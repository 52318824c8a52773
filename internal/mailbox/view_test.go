package mailbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Mitul30M/exploreinn-sub002/internal/identity"
	"github.com/Mitul30M/exploreinn-sub002/internal/repository"
	"github.com/Mitul30M/exploreinn-sub002/internal/sanitizer"
)

// viewFixture wires a full ViewService over in-memory stores
type viewFixture struct {
	service  *ViewService
	store    *mockMailStore
	roles    *mockRoleSource
	owners   *mockOwnership
	users    *mockUserDirectory
	listings *mockListingDirectory
}

func newViewFixture() *viewFixture {
	store := newMockMailStore()
	roles := newMockRoleSource()
	owners := newMockOwnership()
	users := newMockUserDirectory()
	listings := newMockListingDirectory()
	log := discardLogger()

	service := NewViewService(ViewServiceConfig{
		Gate:     NewGate(roles, owners, log),
		Query:    NewQuery(store),
		Enricher: NewEnricher(users, listings, sanitizer.NewBodySanitizer(), log),
		Marker:   store,
		Unread:   store,
		Registry: NewViewRegistry(time.Hour, log),
		Logger:   log,
	})

	return &viewFixture{
		service:  service,
		store:    store,
		roles:    roles,
		owners:   owners,
		users:    users,
		listings: listings,
	}
}

func (f *viewFixture) addUser(name string) identity.Actor {
	id := uuid.New()
	f.users.AddUser(&repository.User{ID: id, Name: name, Role: "user"})
	f.roles.SetRole(id, "user")
	return regularActor(id)
}

func (f *viewFixture) addAdmin(name string) identity.Actor {
	id := uuid.New()
	f.users.AddUser(&repository.User{ID: id, Name: name, Role: "admin"})
	f.roles.SetRole(id, "admin")
	return adminActor(id)
}

func (f *viewFixture) addMail(receiverID uuid.UUID, listingID *uuid.UUID, subject string, at time.Time) uuid.UUID {
	id := uuid.New()
	f.store.AddMail(repository.Mail{
		ID:         id,
		ReceiverID: receiverID,
		ListingID:  listingID,
		Subject:    subject,
		CreatedAt:  at,
	})
	return id
}

func TestLoadMailboxDeniesForeignMailbox(t *testing.T) {
	f := newViewFixture()
	ctx := context.Background()

	alice := f.addUser("Alice")
	bob := f.addUser("Bob")
	f.addMail(bob.ID, nil, "private", time.Now())

	_, err := f.service.LoadMailbox(ctx, alice, UserMailbox(bob.ID))
	if !errors.Is(err, ErrMailboxNotFound) {
		t.Fatalf("expected ErrMailboxNotFound, got %v", err)
	}
}

func TestLoadMailboxReturnsOrderedOwnedMail(t *testing.T) {
	f := newViewFixture()
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	owner := f.addUser("Owner")
	listingID := uuid.New()
	f.owners.SetOwner(listingID, owner.ID)
	f.listings.AddListing(&repository.Listing{ID: listingID, OwnerID: owner.ID, Title: "Harbor House", City: "Porto"})

	f.addMail(owner.ID, &listingID, "older inquiry", base)
	f.addMail(owner.ID, &listingID, "newer inquiry", base.Add(time.Hour))

	mails, err := f.service.LoadMailbox(ctx, owner, ListingMailbox(listingID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mails) != 2 {
		t.Fatalf("expected 2 mails, got %d", len(mails))
	}
	if mails[0].Subject != "newer inquiry" || mails[1].Subject != "older inquiry" {
		t.Fatalf("mail not ordered most recent first: %q, %q", mails[0].Subject, mails[1].Subject)
	}
	if mails[0].Listing == nil || mails[0].Listing.Title != "Harbor House" {
		t.Fatalf("listing enrichment missing: %+v", mails[0].Listing)
	}
}

func TestLoadMailboxCanceledContextDiscardsResult(t *testing.T) {
	f := newViewFixture()
	user := f.addUser("Alice")
	f.addMail(user.ID, nil, "hello", time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.service.LoadMailbox(ctx, user, UserMailbox(user.ID)); err == nil {
		t.Fatal("canceled load must not return a view")
	}
}

func TestAdminViewIsReadOnlyThenOwnerFlips(t *testing.T) {
	f := newViewFixture()
	ctx := context.Background()

	admin := f.addAdmin("Root")
	alice := f.addUser("Alice")
	mailID := f.addMail(alice.ID, nil, "booking update", time.Now())

	// Admin inspects the platform mailbox and opens the mail
	adminSession, mails, err := f.service.OpenView(ctx, admin, AdminMailbox())
	if err != nil {
		t.Fatalf("admin open failed: %v", err)
	}
	if len(mails) != 1 {
		t.Fatalf("admin should see the record, got %d", len(mails))
	}

	if _, err := f.service.SelectMail(ctx, admin, adminSession.ID(), mailID); err != nil {
		t.Fatalf("admin select failed: %v", err)
	}
	if f.store.IsRead(mailID) {
		t.Fatal("admin viewing must not consume the receiver's unread state")
	}

	// The receiver still sees it unread and their open flips it
	count, err := f.service.UnreadCount(ctx, alice)
	if err != nil || count != 1 {
		t.Fatalf("expected 1 unread for receiver, got %d (%v)", count, err)
	}

	aliceSession, _, err := f.service.OpenView(ctx, alice, UserMailbox(alice.ID))
	if err != nil {
		t.Fatalf("owner open failed: %v", err)
	}
	if _, err := f.service.SelectMail(ctx, alice, aliceSession.ID(), mailID); err != nil {
		t.Fatalf("owner select failed: %v", err)
	}
	if !f.store.IsRead(mailID) {
		t.Fatal("owner opening their own mail must persist read state")
	}

	count, err = f.service.UnreadCount(ctx, alice)
	if err != nil || count != 0 {
		t.Fatalf("expected 0 unread after owner read, got %d (%v)", count, err)
	}
}

func TestSelectMailRequiresOwnView(t *testing.T) {
	f := newViewFixture()
	ctx := context.Background()

	alice := f.addUser("Alice")
	mallory := f.addUser("Mallory")
	mailID := f.addMail(alice.ID, nil, "private", time.Now())

	session, _, err := f.service.OpenView(ctx, alice, UserMailbox(alice.ID))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	if _, err := f.service.SelectMail(ctx, mallory, session.ID(), mailID); !errors.Is(err, ErrViewNotFound) {
		t.Fatalf("foreign actor must not reach the view, got %v", err)
	}
}

func TestSelectMailOutsideViewSnapshot(t *testing.T) {
	f := newViewFixture()
	ctx := context.Background()

	alice := f.addUser("Alice")
	f.addMail(alice.ID, nil, "in view", time.Now())

	session, _, err := f.service.OpenView(ctx, alice, UserMailbox(alice.ID))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	// A record that arrived after the view loaded is not selectable in it
	lateMail := f.addMail(alice.ID, nil, "too late", time.Now())
	if _, err := f.service.SelectMail(ctx, alice, session.ID(), lateMail); !errors.Is(err, ErrMailNotInView) {
		t.Fatalf("expected ErrMailNotInView, got %v", err)
	}
}

func TestCloseAndDiscardView(t *testing.T) {
	f := newViewFixture()
	ctx := context.Background()

	alice := f.addUser("Alice")
	mailID := f.addMail(alice.ID, nil, "hello", time.Now())

	session, _, err := f.service.OpenView(ctx, alice, UserMailbox(alice.ID))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	if _, err := f.service.SelectMail(ctx, alice, session.ID(), mailID); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if err := f.service.CloseMail(alice, session.ID()); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, open := session.OpenMail(); open {
		t.Fatal("close should leave no mail open")
	}

	f.service.DiscardView(alice, session.ID())
	if _, err := f.service.SelectMail(ctx, alice, session.ID(), mailID); !errors.Is(err, ErrViewNotFound) {
		t.Fatalf("discarded view must be gone, got %v", err)
	}

	// Discarding again is a no-op
	f.service.DiscardView(alice, session.ID())
}

func TestUnreadCountAnonymous(t *testing.T) {
	f := newViewFixture()

	if _, err := f.service.UnreadCount(context.Background(), identity.Anonymous()); !errors.Is(err, ErrMailboxNotFound) {
		t.Fatalf("expected ErrMailboxNotFound for anonymous, got %v", err)
	}
}

func TestOpenViewListingMailboxAsReceiver(t *testing.T) {
	f := newViewFixture()
	ctx := context.Background()

	owner := f.addUser("Owner")
	listingID := uuid.New()
	f.owners.SetOwner(listingID, owner.ID)
	f.listings.AddListing(&repository.Listing{ID: listingID, OwnerID: owner.ID, Title: "Harbor House", City: "Porto"})

	mailID := f.addMail(owner.ID, &listingID, "availability?", time.Now())

	session, _, err := f.service.OpenView(ctx, owner, ListingMailbox(listingID))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	if _, err := f.service.SelectMail(ctx, owner, session.ID(), mailID); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if !f.store.IsRead(mailID) {
		t.Fatal("listing owner acts as receiver, read state should persist")
	}
}
