package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"skinvault/internal/domain"
	"skinvault/internal/repository"
)

// TokenPair is the credential handed to the browser after login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Principal is the authenticated caller, carried per request.
type Principal struct {
	UserID  string
	SteamID string
	IsAdmin bool
}

type accessClaims struct {
	jwt.RegisteredClaims
	SteamID string `json:"steam_id,omitempty"`
	Admin   bool   `json:"adm,omitempty"`
}

// SessionService issues and validates application sessions.
type SessionService interface {
	Issue(ctx context.Context, user *domain.User) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Revoke(ctx context.Context, refreshToken string) error
	Authenticate(accessToken string) (*Principal, error)
	// LoginTicket binds a resolved Steam ID to the login-completion redirect.
	LoginTicket(steamID string) (string, error)
	VerifyLoginTicket(ticket, steamID string) error
}

type SessionConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
}

type sessionService struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	cfg      SessionConfig
	now      func() time.Time
}

func NewSessionService(sessions repository.SessionRepository, users repository.UserRepository, cfg SessionConfig) (SessionService, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("session signing secret is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "skinvault"
	}
	return &sessionService{sessions: sessions, users: users, cfg: cfg, now: time.Now}, nil
}

func (s *sessionService) Issue(ctx context.Context, user *domain.User) (*TokenPair, error) {
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("%w: no user to issue a session for", domain.ErrAuthenticationFailed)
	}
	now := s.now()

	access, err := s.signAccess(user, now)
	if err != nil {
		return nil, fmt.Errorf("%w: sign access token: %v", domain.ErrAuthenticationFailed, err)
	}

	secret, err := randomSecret()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthenticationFailed, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%w: hash refresh secret: %v", domain.ErrAuthenticationFailed, err)
	}

	session := &domain.Session{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		SecretHash: string(hash),
		ExpiresAt:  now.Add(s.cfg.RefreshTTL),
		CreatedAt:  now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: store session: %v", domain.ErrAuthenticationFailed, err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: session.ID + "." + secret,
		ExpiresIn:    s.cfg.AccessTTL,
	}, nil
}

// Refresh rotates a refresh token: the presented session is consumed and a new pair is
// issued from the current user row, so admin changes take effect.
func (s *sessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	session, err := s.lookup(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.Issue(ctx, user)
}

func (s *sessionService) Revoke(ctx context.Context, refreshToken string) error {
	session, err := s.lookup(ctx, refreshToken)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, session.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *sessionService) Authenticate(accessToken string) (*Principal, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, domain.ErrUnauthenticated
	}

	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (interface{}, error) {
		return s.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(accessAudience),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, domain.ErrUnauthenticated
	}

	return &Principal{UserID: claims.Subject, SteamID: claims.SteamID, IsAdmin: claims.Admin}, nil
}

const (
	accessAudience      = "api"
	loginTicketAudience = "steam-login"
	loginTicketTTL      = 2 * time.Minute
)

func (s *sessionService) LoginTicket(steamID string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   steamID,
		Issuer:    s.cfg.Issuer,
		Audience:  jwt.ClaimStrings{loginTicketAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(loginTicketTTL)),
	})
	return token.SignedString(s.cfg.Secret)
}

func (s *sessionService) VerifyLoginTicket(ticket, steamID string) error {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(ticket, claims, func(t *jwt.Token) (interface{}, error) {
		return s.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(loginTicketAudience),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid || claims.Subject != steamID {
		return fmt.Errorf("%w: invalid login ticket", domain.ErrAuthenticationFailed)
	}
	return nil
}

func (s *sessionService) signAccess(user *domain.User, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{accessAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTTL)),
			ID:        uuid.NewString(),
		},
		SteamID: user.SteamID,
		Admin:   user.IsAdmin,
	})
	return token.SignedString(s.cfg.Secret)
}

// lookup splits <session id>.<secret> and checks the secret against the stored hash.
func (s *sessionService) lookup(ctx context.Context, refreshToken string) (*domain.Session, error) {
	id, secret, ok := strings.Cut(strings.TrimSpace(refreshToken), ".")
	if !ok || id == "" || secret == "" {
		return nil, domain.ErrUnauthenticated
	}
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	if !s.now().Before(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, domain.ErrUnauthenticated
	}
	if err := bcrypt.CompareHashAndPassword([]byte(session.SecretHash), []byte(secret)); err != nil {
		return nil, domain.ErrUnauthenticated
	}
	return session, nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
