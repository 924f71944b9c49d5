package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	apperrors "authsvc/internal/errors"
	"authsvc/internal/hasher"
	"authsvc/internal/logging"
	"authsvc/internal/model"
	"authsvc/internal/repository"
)

var testLogger = logging.Discard()

func testHasher() hasher.Hasher {
	return hasher.NewBcrypt(bcrypt.MinCost)
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCredentialRepository is a mock implementation of CredentialRepository.
type MockCredentialRepository struct {
	mock.Mock
}

func (m *MockCredentialRepository) Create(ctx context.Context, credential *model.Credential) error {
	args := m.Called(ctx, credential)
	return args.Error(0)
}

func (m *MockCredentialRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Credential, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Credential), args.Error(1)
}

// assignID mimics the BeforeCreate hook for mocked Create calls.
func assignID(args mock.Arguments) {
	u := args.Get(1).(*model.User)
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
}

// stubHasher returns fixed results.
type stubHasher struct {
	secret    string
	hashErr   error
	ok        bool
	verifyErr error
}

func (s stubHasher) Hash(context.Context, string) (string, error) { return s.secret, s.hashErr }

func (s stubHasher) Verify(context.Context, string, string) (bool, error) { return s.ok, s.verifyErr }

// flakyHasher fails the first failHashes Hash calls and counts Verify calls.
type flakyHasher struct {
	mu         sync.Mutex
	failHashes int
	hashes     int
	verifies   int
}

func (h *flakyHasher) Hash(context.Context, string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hashes++
	if h.failHashes > 0 {
		h.failHashes--
		return "", apperrors.ErrCryptoFailure
	}
	return "decoy", nil
}

func (h *flakyHasher) Verify(context.Context, string, string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.verifies++
	return false, nil
}

// memStore is an in-memory user and credential store with a unique email
// index and snapshot transactions.
type memStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]model.User
	credentials map[uuid.UUID]model.Credential

	failCredentialCreate error
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[uuid.UUID]model.User{},
		credentials: map[uuid.UUID]model.Credential{},
	}
}

func (s *memStore) Users() repository.UserRepository             { return memUsers{s} }
func (s *memStore) Credentials() repository.CredentialRepository { return memCredentials{s} }

func (s *memStore) WithinTransaction(ctx context.Context, fn repository.TxFunc) error {
	s.mu.Lock()
	users := make(map[uuid.UUID]model.User, len(s.users))
	for k, v := range s.users {
		users[k] = v
	}
	credentials := make(map[uuid.UUID]model.Credential, len(s.credentials))
	for k, v := range s.credentials {
		credentials[k] = v
	}
	s.mu.Unlock()

	if err := fn(ctx, s.Users(), s.Credentials()); err != nil {
		s.mu.Lock()
		s.users, s.credentials = users, credentials
		s.mu.Unlock()
		return err
	}
	return nil
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return apperrors.ErrDuplicateIdentity
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r memUsers) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r memUsers) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.s.users, id)
	delete(r.s.credentials, id)
	return nil
}

type memCredentials struct{ s *memStore }

func (r memCredentials) Create(_ context.Context, c *model.Credential) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failCredentialCreate != nil {
		return r.s.failCredentialCreate
	}
	if _, ok := r.s.users[c.UserID]; !ok {
		return apperrors.ErrNotFound
	}
	if _, ok := r.s.credentials[c.UserID]; ok {
		return apperrors.ErrDuplicateIdentity
	}
	r.s.credentials[c.UserID] = *c
	return nil
}

func (r memCredentials) FindByUserID(_ context.Context, userID uuid.UUID) (*model.Credential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.credentials[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &c, nil
}
