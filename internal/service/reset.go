package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/culinary-compass/internal/apperror"
	"github.com/sakif/culinary-compass/internal/auth"
	"github.com/sakif/culinary-compass/internal/mail"
	"github.com/sakif/culinary-compass/internal/repository"
	"github.com/sakif/culinary-compass/internal/validation"
)

var errInvalidResetToken = apperror.ValidationFailed("token", "reset link is invalid or has expired")

// Mailer delivers password reset mails.
type Mailer interface {
	SendPasswordReset(ctx context.Context, m mail.ResetMail) error
}

// PasswordResetService runs the forgotten password flow:
//
//	RequestReset(email)         → signed reset token mailed to the account
//	ResetPassword(token, pass)  → new hash stored, token spent
//
// A reset token carries a stamp of the hash it replaces, so it works once.
type PasswordResetService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	mailer    Mailer
	ttl       time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewPasswordResetService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	mailer Mailer,
	ttl time.Duration,
	logger *slog.Logger,
) *PasswordResetService {
	return &PasswordResetService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		mailer:    mailer,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// ResetRequestInput names the account to reset.
type ResetRequestInput struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordInput is a reset token and the new password.
type ResetPasswordInput struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// RequestReset mails a reset token to the account with the given email.
// An unknown email returns nil so the caller cannot tell which emails are
// registered.
func (s *PasswordResetService) RequestReset(ctx context.Context, in ResetRequestInput) error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return err
	}

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Debug("password reset for unknown email")
			return nil
		}
		return fmt.Errorf("service/reset: looking up %s: %w", in.Email, err)
	}

	token, err := s.tokens.GenerateReset(user.ID, auth.PasswordStamp(user.PasswordHash), s.ttl)
	if err != nil {
		return fmt.Errorf("service/reset: %w", err)
	}

	err = s.mailer.SendPasswordReset(ctx, mail.ResetMail{
		To:        user.Email,
		Username:  user.Username,
		Token:     token,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
	})
	if err != nil {
		return fmt.Errorf("service/reset: mailing user %s: %w", user.ID, err)
	}

	s.logger.Info("password reset requested", slog.String("user_id", user.ID))
	return nil
}

// ResetPassword stores a new password for the token's user. Expired,
// forged and already used tokens all fail with the same validation error.
func (s *PasswordResetService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	in.Token = strings.TrimSpace(in.Token)
	if err := validation.Struct(in); err != nil {
		return err
	}

	userID, stamp, err := s.tokens.ValidateReset(in.Token)
	if err != nil {
		s.logger.Warn("rejected reset token", slog.String("error", err.Error()))
		return errInvalidResetToken
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return errInvalidResetToken
		}
		return fmt.Errorf("service/reset: fetching user %s: %w", userID, err)
	}
	if auth.PasswordStamp(user.PasswordHash) != stamp {
		return errInvalidResetToken
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return fmt.Errorf("service/reset: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, user.PasswordHash, hash); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return errInvalidResetToken
		}
		return fmt.Errorf("service/reset: storing password of %s: %w", user.ID, err)
	}

	s.logger.Info("password reset", slog.String("user_id", user.ID))
	return nil
}
