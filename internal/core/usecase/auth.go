package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storyreelhq/storyreel/internal/auth"
	"github.com/storyreelhq/storyreel/internal/core/domain"
	"github.com/storyreelhq/storyreel/internal/core/ports"
)

const minPasswordLength = 8

// AuthUseCase registers users and issues signed bearer tokens. Registration
// is gated by configuration, except that the very first account can always be
// created so a fresh deployment is bootstrappable.
type AuthUseCase struct {
	users            ports.UserRepository
	signer           *auth.Signer
	registrationOpen bool
	logger           *slog.Logger
}

func NewAuthUseCase(users ports.UserRepository, signer *auth.Signer, registrationOpen bool, logger *slog.Logger) *AuthUseCase {
	return &AuthUseCase{
		users:            users,
		signer:           signer,
		registrationOpen: registrationOpen,
		logger:           logger,
	}
}

func (uc *AuthUseCase) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "register", fmt.Errorf("username is required"))
	}
	if len(password) < minPasswordLength {
		return nil, domain.WrapError(domain.ErrInvalidInput, "register", fmt.Errorf("password must be at least %d characters", minPasswordLength))
	}

	open, err := uc.RegistrationOpen(ctx)
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, domain.WrapError(domain.ErrUnauthorized, "register", fmt.Errorf("registration is closed"))
	}

	if _, err := uc.users.GetByUsername(ctx, username); err == nil {
		return nil, domain.WrapError(domain.ErrConflict, "register", fmt.Errorf("username %q is taken", username))
	} else if !domain.IsKind(err, domain.ErrNotFound) {
		return nil, err
	}

	digest, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		ID:             uuid.NewString(),
		Username:       username,
		PasswordDigest: digest,
		CreatedAt:      time.Now().UTC(),
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.logger.Info("user registered", slog.String("user_id", user.ID))
	return user, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, username, password string) (*ports.Session, error) {
	user, err := uc.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return nil, domain.WrapError(domain.ErrUnauthorized, "login", fmt.Errorf("bad credentials"))
		}
		return nil, err
	}
	if !auth.VerifyPassword(user.PasswordDigest, password) {
		return nil, domain.WrapError(domain.ErrUnauthorized, "login", fmt.Errorf("bad credentials"))
	}
	return uc.session(user)
}

func (uc *AuthUseCase) Refresh(ctx context.Context, userID string) (*ports.Session, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return nil, domain.WrapError(domain.ErrUnauthorized, "refresh", fmt.Errorf("unknown subject"))
		}
		return nil, err
	}
	return uc.session(user)
}

// RegistrationOpen reports whether new accounts are accepted: either the
// deployment opted in, or no account exists yet.
func (uc *AuthUseCase) RegistrationOpen(ctx context.Context) (bool, error) {
	if uc.registrationOpen {
		return true, nil
	}
	n, err := uc.users.Count(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

func (uc *AuthUseCase) VerifyToken(token string) (string, error) {
	return uc.signer.Verify(token)
}

func (uc *AuthUseCase) session(user *domain.User) (*ports.Session, error) {
	token, expiresAt, err := uc.signer.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &ports.Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
