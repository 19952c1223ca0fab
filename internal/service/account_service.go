package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cdlite/portal-api/internal/domain"
	"github.com/cdlite/portal-api/internal/observability"
	"github.com/cdlite/portal-api/internal/repository"
)

// AccountService covers the authenticated account surface: profile reads and
// updates, plus the admin-only account listing and role management.
type AccountService struct {
	accounts repository.AccountRepository
	sessions *SessionService
}

func NewAccountService(accounts repository.AccountRepository, sessions *SessionService) *AccountService {
	return &AccountService{accounts: accounts, sessions: sessions}
}

func (s *AccountService) Get(ctx context.Context, accountID uint) (*domain.Account, error) {
	account, err := s.accounts.FindByID(accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

type ProfileUpdateInput struct {
	Name         string
	Organization string
	Country      string
	Phone        string
}

func (s *AccountService) UpdateProfile(ctx context.Context, accountID uint, in ProfileUpdateInput) (*domain.Account, error) {
	verr := newValidationError()
	name := strings.TrimSpace(in.Name)
	if name == "" {
		verr.add("name", "name is required")
	}
	if len(name) > 255 {
		verr.add("name", "name must be at most 255 characters")
	}
	if len(in.Organization) > 255 {
		verr.add("organization", "organization must be at most 255 characters")
	}
	if len(in.Country) > 128 {
		verr.add("country", "country must be at most 128 characters")
	}
	if len(in.Phone) > 64 {
		verr.add("phone", "phone must be at most 64 characters")
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	update := repository.ProfileUpdate{
		Name:         name,
		Organization: strings.TrimSpace(in.Organization),
		Country:      strings.TrimSpace(in.Country),
		Phone:        strings.TrimSpace(in.Phone),
	}
	if err := s.accounts.UpdateProfile(accountID, update); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.Get(ctx, accountID)
}

func (s *AccountService) List(ctx context.Context, page repository.PageRequest) (repository.PageResult[domain.Account], error) {
	return s.accounts.List(page)
}

// SetRole changes an account's stored role. Admins cannot change their own
// role, which keeps at least the acting admin in place.
func (s *AccountService) SetRole(ctx context.Context, actorID, targetID uint, role string) (*domain.Account, error) {
	switch role {
	case domain.StoredRoleRegistered, domain.StoredRoleVerified, domain.StoredRoleAdmin:
	default:
		return nil, ErrUnknownRole
	}
	if actorID == targetID {
		return nil, ErrSelfRoleChange
	}

	target, err := s.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.SetRole(targetID, role); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("set role: %w", err)
	}
	// A role change must take effect on the next request, not on the next
	// login; live sessions carry the old role inside the signed token.
	if err := s.sessions.RevokeAllForAccount(ctx, targetID); err != nil {
		return nil, fmt.Errorf("revoke sessions: %w", err)
	}
	observability.RecordAuthFlow(ctx, "role_change", strings.ToLower(role))

	target.Role = role
	return target, nil
}
