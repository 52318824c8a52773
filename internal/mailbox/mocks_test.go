package mailbox

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Mitul30M/exploreinn-sub002/internal/repository"
)

// mockMailStore implements a simple in-memory mail repository for testing
type mockMailStore struct {
	mu    sync.Mutex
	mails map[uuid.UUID]*repository.Mail

	findErr   error
	markErr   error
	markCalls map[uuid.UUID]int
}

func newMockMailStore() *mockMailStore {
	return &mockMailStore{
		mails:     make(map[uuid.UUID]*repository.Mail),
		markCalls: make(map[uuid.UUID]int),
	}
}

func (m *mockMailStore) AddMail(mail repository.Mail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := mail
	m.mails[mail.ID] = &stored
}

func (m *mockMailStore) FindByReceiver(ctx context.Context, receiverID uuid.UUID) ([]repository.Mail, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []repository.Mail
	for _, mail := range m.mails {
		if mail.ReceiverID == receiverID && mail.ListingID == nil {
			result = append(result, *mail)
		}
	}
	sortStored(result)
	return result, nil
}

func (m *mockMailStore) FindByListing(ctx context.Context, listingID uuid.UUID) ([]repository.Mail, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []repository.Mail
	for _, mail := range m.mails {
		if mail.ListingID != nil && *mail.ListingID == listingID {
			result = append(result, *mail)
		}
	}
	sortStored(result)
	return result, nil
}

func (m *mockMailStore) FindAll(ctx context.Context) ([]repository.Mail, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []repository.Mail
	for _, mail := range m.mails {
		result = append(result, *mail)
	}
	sortStored(result)
	return result, nil
}

func (m *mockMailStore) MarkRead(ctx context.Context, mailID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markCalls[mailID]++
	if m.markErr != nil {
		return m.markErr
	}
	mail, ok := m.mails[mailID]
	if !ok {
		return repository.ErrMailNotFound
	}
	mail.IsRead = true
	return nil
}

func (m *mockMailStore) CountUnreadByReceiver(ctx context.Context, receiverID uuid.UUID) (int, error) {
	if m.findErr != nil {
		return 0, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, mail := range m.mails {
		if mail.ReceiverID == receiverID && mail.ListingID == nil && !mail.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *mockMailStore) MarkCalls(mailID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markCalls[mailID]
}

func (m *mockMailStore) IsRead(mailID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mail, ok := m.mails[mailID]; ok {
		return mail.IsRead
	}
	return false
}

// sortStored mimics the store's ORDER BY created_at DESC, id DESC
func sortStored(mails []repository.Mail) {
	sort.Slice(mails, func(i, j int) bool {
		if !mails[i].CreatedAt.Equal(mails[j].CreatedAt) {
			return mails[i].CreatedAt.After(mails[j].CreatedAt)
		}
		return mails[i].ID.String() > mails[j].ID.String()
	})
}

// mockRoleSource implements an in-memory persisted role record store
type mockRoleSource struct {
	roles map[uuid.UUID]string
	err   error
}

func newMockRoleSource() *mockRoleSource {
	return &mockRoleSource{roles: make(map[uuid.UUID]string)}
}

func (m *mockRoleSource) SetRole(id uuid.UUID, role string) {
	m.roles[id] = role
}

func (m *mockRoleSource) RoleOf(ctx context.Context, id uuid.UUID) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	role, ok := m.roles[id]
	if !ok {
		return "", repository.ErrUserNotFound
	}
	return role, nil
}

// mockOwnership implements an in-memory listing ownership check
type mockOwnership struct {
	owners map[uuid.UUID]uuid.UUID // listingID -> ownerID
	err    error
}

func newMockOwnership() *mockOwnership {
	return &mockOwnership{owners: make(map[uuid.UUID]uuid.UUID)}
}

func (m *mockOwnership) SetOwner(listingID, ownerID uuid.UUID) {
	m.owners[listingID] = ownerID
}

func (m *mockOwnership) IsOwner(ctx context.Context, actorID, listingID uuid.UUID) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	owner, ok := m.owners[listingID]
	return ok && owner == actorID, nil
}

// mockUserDirectory implements an in-memory user lookup for enrichment
type mockUserDirectory struct {
	users map[uuid.UUID]*repository.User
	err   error
}

func newMockUserDirectory() *mockUserDirectory {
	return &mockUserDirectory{users: make(map[uuid.UUID]*repository.User)}
}

func (m *mockUserDirectory) AddUser(user *repository.User) {
	m.users[user.ID] = user
}

func (m *mockUserDirectory) GetByID(ctx context.Context, id uuid.UUID) (*repository.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

// mockListingDirectory implements an in-memory listing lookup for enrichment
type mockListingDirectory struct {
	listings map[uuid.UUID]*repository.Listing
	err      error
}

func newMockListingDirectory() *mockListingDirectory {
	return &mockListingDirectory{listings: make(map[uuid.UUID]*repository.Listing)}
}

func (m *mockListingDirectory) AddListing(listing *repository.Listing) {
	m.listings[listing.ID] = listing
}

func (m *mockListingDirectory) GetByID(ctx context.Context, id uuid.UUID) (*repository.Listing, error) {
	if m.err != nil {
		return nil, m.err
	}
	listing, ok := m.listings[id]
	if !ok {
		return nil, repository.ErrListingNotFound
	}
	return listing, nil
}
