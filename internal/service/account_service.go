package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"skinvault/internal/domain"
	"skinvault/internal/repository"
)

// syntheticEmailDomain scopes the per-Steam-ID account identifier. It is never mailed.
const syntheticEmailDomain = "steam.skinvault.local"

// SyntheticEmail derives the idempotency key for a Steam account.
func SyntheticEmail(steamID string) string {
	return steamID + "@" + syntheticEmailDomain
}

// AccountService provisions users from Steam logins and manages admin flags.
type AccountService interface {
	Provision(ctx context.Context, steamID string, profile *domain.SteamProfile) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	SetAdmin(ctx context.Context, userID string, isAdmin bool) (*domain.User, error)
	GrantAdmin(ctx context.Context, userID string) error
	RevokeAdmin(ctx context.Context, userID string) error
}

type accountService struct {
	users  repository.UserRepository
	logger logrus.FieldLogger
}

func NewAccountService(users repository.UserRepository, logger logrus.FieldLogger) AccountService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &accountService{users: users, logger: logger}
}

func (s *accountService) Provision(ctx context.Context, steamID string, profile *domain.SteamProfile) (*domain.User, error) {
	steamID = strings.TrimSpace(steamID)
	if steamID == "" {
		return nil, domain.ErrMissingIdentifier
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: steam profile is required", domain.ErrInvalidInput)
	}

	email := SyntheticEmail(steamID)
	logger := s.logger.WithField("steam_id", steamID)

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return s.refreshProfile(ctx, user, profile, logger), nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	user = &domain.User{
		Email:     email,
		SteamID:   steamID,
		Username:  profile.PersonaName,
		AvatarURL: profile.AvatarURL,
		IsAdmin:   false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, repository.ErrUserExists) {
			return nil, fmt.Errorf("create user: %w", err)
		}
		// a concurrent login for the same steam id created the row first
		logger.Debug("lost provisioning race, re-fetching user")
		existing, getErr := s.users.GetByEmail(ctx, email)
		if getErr != nil {
			return nil, fmt.Errorf("re-fetch user: %w", getErr)
		}
		return existing, nil
	}

	logger.WithField("user_id", user.ID).Info("provisioned new user")
	return user, nil
}

// refreshProfile copies the fresh persona name and avatar onto an existing user. A failed
// write is logged and the stored user is returned unchanged.
func (s *accountService) refreshProfile(ctx context.Context, user *domain.User, profile *domain.SteamProfile, logger logrus.FieldLogger) *domain.User {
	if user.Username == profile.PersonaName && user.AvatarURL == profile.AvatarURL {
		return user
	}
	if err := s.users.UpdateProfile(ctx, user.ID, profile.PersonaName, profile.AvatarURL); err != nil {
		logger.Warnf("refresh profile: %v", err)
		return user
	}
	user.Username = profile.PersonaName
	user.AvatarURL = profile.AvatarURL
	return user
}

func (s *accountService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *accountService) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, limit, offset)
}

func (s *accountService) SetAdmin(ctx context.Context, userID string, isAdmin bool) (*domain.User, error) {
	if err := s.users.SetAdmin(ctx, userID, isAdmin); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "is_admin": isAdmin}).Info("admin flag changed")
	return s.users.GetByID(ctx, userID)
}

func (s *accountService) GrantAdmin(ctx context.Context, userID string) error {
	_, err := s.SetAdmin(ctx, userID, true)
	return err
}

func (s *accountService) RevokeAdmin(ctx context.Context, userID string) error {
	_, err := s.SetAdmin(ctx, userID, false)
	return err
}
