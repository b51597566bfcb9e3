package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/calmana/calmana-api/internal/models"
	"github.com/calmana/calmana-api/internal/store"
	"github.com/calmana/calmana-api/internal/utils"
)

type accountStoreMock struct {
	findByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	findByIDFunc    func(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	insertFunc      func(ctx context.Context, user *models.User) error
}

func (m *accountStoreMock) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findByEmailFunc(ctx, email)
}

func (m *accountStoreMock) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *accountStoreMock) Insert(ctx context.Context, user *models.User) error {
	return m.insertFunc(ctx, user)
}

// memStore is a map-backed AccountStore for multi-step tests.
type memStore struct {
	mu      sync.Mutex
	users   []*models.User
	inserts int
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) Insert(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return store.ErrDuplicateEmail
		}
	}
	copied := *user
	m.users = append(m.users, &copied)
	m.inserts++
	return nil
}

func TestResolveCreatesAccountForUnseenEmail(t *testing.T) {
	mem := &memStore{}
	svc := NewAccountService(mem)

	account, created, err := svc.Resolve(context.Background(), "a@x.com", "pw1", models.RolePatient)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatalf("expected account to be created")
	}
	if account.ID.IsZero() {
		t.Fatalf("expected a generated id")
	}
	if account.Email != "a@x.com" || account.Role != models.RolePatient {
		t.Fatalf("unexpected account: %+v", account)
	}
	if account.Password == "pw1" {
		t.Fatalf("password stored in plaintext")
	}
	if !utils.CheckPasswordHash("pw1", account.Password) {
		t.Fatalf("stored hash does not verify against the password")
	}
	if mem.inserts != 1 {
		t.Fatalf("expected exactly one insert, got %d", mem.inserts)
	}
}

func TestResolveIsCreateThenLogin(t *testing.T) {
	mem := &memStore{}
	svc := NewAccountService(mem)
	ctx := context.Background()

	first, created, err := svc.Resolve(ctx, "a@x.com", "pw1", models.RolePatient)
	if err != nil || !created {
		t.Fatalf("first call: created=%v err=%v", created, err)
	}

	second, created, err := svc.Resolve(ctx, "a@x.com", "pw1", models.RolePatient)
	if err != nil {
		t.Fatalf("second call: unexpected error: %v", err)
	}
	if created {
		t.Fatalf("second call must log in, not create")
	}
	if second.ID != first.ID {
		t.Fatalf("expected the same account, got %s and %s", first.ID.Hex(), second.ID.Hex())
	}
	if mem.inserts != 1 {
		t.Fatalf("expected exactly one insert, got %d", mem.inserts)
	}
}

func TestResolveInvalidPassword(t *testing.T) {
	mem := &memStore{}
	svc := NewAccountService(mem)
	ctx := context.Background()

	if _, _, err := svc.Resolve(ctx, "a@x.com", "pw1", models.RolePatient); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, _, err := svc.Resolve(ctx, "a@x.com", "wrong", models.RolePatient)
	if !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if mem.inserts != 1 {
		t.Fatalf("failed login must not write, inserts=%d", mem.inserts)
	}
}

func TestResolveRoleMismatch(t *testing.T) {
	mem := &memStore{}
	svc := NewAccountService(mem)
	ctx := context.Background()

	if _, _, err := svc.Resolve(ctx, "a@x.com", "pw1", models.RolePatient); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, _, err := svc.Resolve(ctx, "a@x.com", "pw1", models.RoleDoctor)
	var mismatch *RoleMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected RoleMismatchError, got %v", err)
	}
	if mismatch.Registered != models.RolePatient || mismatch.Requested != models.RoleDoctor {
		t.Fatalf("unexpected mismatch: %+v", mismatch)
	}
	if got, want := mismatch.Error(), "You are registered as patient, not doctor"; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}
	if mem.inserts != 1 {
		t.Fatalf("role mismatch must not write, inserts=%d", mem.inserts)
	}
}

func TestResolveMissingFieldsNeverTouchesStore(t *testing.T) {
	mock := &accountStoreMock{
		findByEmailFunc: func(context.Context, string) (*models.User, error) {
			t.Fatal("store must not be queried when fields are missing")
			return nil, nil
		},
		insertFunc: func(context.Context, *models.User) error {
			t.Fatal("store must not be written when fields are missing")
			return nil
		},
	}
	svc := NewAccountService(mock)
	ctx := context.Background()

	cases := [][3]string{
		{"", "pw1", models.RolePatient},
		{"a@x.com", "", models.RolePatient},
		{"a@x.com", "pw1", ""},
	}
	for _, tc := range cases {
		if _, _, err := svc.Resolve(ctx, tc[0], tc[1], tc[2]); !errors.Is(err, ErrMissingFields) {
			t.Fatalf("Resolve(%q, %q, %q): expected ErrMissingFields, got %v", tc[0], tc[1], tc[2], err)
		}
	}
}

func TestResolveRejectsUnknownRole(t *testing.T) {
	svc := NewAccountService(&memStore{})

	_, _, err := svc.Resolve(context.Background(), "a@x.com", "pw1", "admin")
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestResolveLostInsertRaceFallsBackToLogin(t *testing.T) {
	hash, err := utils.HashPassword("pw1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	winner := &models.User{
		ID:       primitive.NewObjectID(),
		Email:    "a@x.com",
		Password: hash,
		Role:     models.RolePatient,
	}

	lookups := 0
	mock := &accountStoreMock{
		findByEmailFunc: func(context.Context, string) (*models.User, error) {
			lookups++
			if lookups == 1 {
				// Concurrent request inserts between our lookup and insert.
				return nil, store.ErrNotFound
			}
			return winner, nil
		},
		insertFunc: func(context.Context, *models.User) error {
			return store.ErrDuplicateEmail
		},
	}
	svc := NewAccountService(mock)

	account, created, err := svc.Resolve(context.Background(), "a@x.com", "pw1", models.RolePatient)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatalf("losing the race must not report creation")
	}
	if account.ID != winner.ID {
		t.Fatalf("expected the winner's account")
	}

	// Same race with the wrong password resolves as a failed login.
	lookups = 0
	if _, _, err := svc.Resolve(context.Background(), "a@x.com", "wrong", models.RolePatient); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestFetchByID(t *testing.T) {
	mem := &memStore{}
	svc := NewAccountService(mem)
	ctx := context.Background()

	created, _, err := svc.Resolve(ctx, "a@x.com", "pw1", models.RoleDoctor)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := svc.FetchByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Email != created.Email || got.Role != created.Role {
		t.Fatalf("fetched account differs: %+v vs %+v", got, created)
	}

	if _, err := svc.FetchByID(ctx, primitive.NewObjectID()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
