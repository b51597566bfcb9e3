package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/calmana/calmana-api/internal/models"
	"github.com/calmana/calmana-api/internal/store"
	"github.com/calmana/calmana-api/internal/utils"
)

var (
	// ErrMissingFields means email, password or role was empty.
	ErrMissingFields = errors.New("all fields required")

	// ErrInvalidRole means the role was neither patient nor doctor.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidPassword means the account exists but the password
	// did not match.
	ErrInvalidPassword = errors.New("invalid password")
)

// RoleMismatchError means the account exists under a different portal
// role than the one the caller signed in through.
type RoleMismatchError struct {
	Registered string
	Requested  string
}

func (e *RoleMismatchError) Error() string {
	return fmt.Sprintf("You are registered as %s, not %s", e.Registered, e.Requested)
}

// AccountStore is the slice of the users collection the service needs.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Insert(ctx context.Context, user *models.User) error
}

// AccountService implements the find-or-create sign-in contract: the
// first request for an unseen email provisions the account, every later
// request authenticates against it. There is no separate register step.
type AccountService struct {
	store AccountStore
}

func NewAccountService(s AccountStore) *AccountService {
	return &AccountService{store: s}
}

// Resolve authenticates or provisions the account for email. It returns
// the account and whether it was created by this call.
//
// A concurrent first request for the same email can win the insert; the
// unique index on email rejects the loser, which then re-reads the
// winner's account and authenticates against it. At most one account
// per email ever exists and both callers get a deterministic outcome.
func (s *AccountService) Resolve(ctx context.Context, email, password, role string) (*models.User, bool, error) {
	if email == "" || password == "" || role == "" {
		return nil, false, ErrMissingFields
	}
	if !models.ValidRole(role) {
		return nil, false, ErrInvalidRole
	}

	account, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return s.create(ctx, email, password, role)
	}
	if err != nil {
		return nil, false, err
	}

	if err := s.login(account, password, role); err != nil {
		return nil, false, err
	}
	return account, false, nil
}

// FetchByID is the point lookup behind GET /api/users/:id.
func (s *AccountService) FetchByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.store.FindByID(ctx, id)
}

func (s *AccountService) create(ctx context.Context, email, password, role string) (*models.User, bool, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, false, err
	}

	account := &models.User{
		ID:        primitive.NewObjectID(),
		Email:     email,
		Password:  hash,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	err = s.store.Insert(ctx, account)
	if errors.Is(err, store.ErrDuplicateEmail) {
		// Lost the race; authenticate against the winner.
		account, err = s.store.FindByEmail(ctx, email)
		if err != nil {
			return nil, false, err
		}
		if err := s.login(account, password, role); err != nil {
			return nil, false, err
		}
		return account, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return account, true, nil
}

func (s *AccountService) login(account *models.User, password, role string) error {
	if !utils.CheckPasswordHash(password, account.Password) {
		return ErrInvalidPassword
	}
	if account.Role != role {
		return &RoleMismatchError{Registered: account.Role, Requested: role}
	}
	return nil
}
