// Package service contains the business logic between the HTTP handlers
// and storage.
//
//	Handler (HTTP)        → parses requests, writes responses
//	Service (this package) → validates input, enforces rules, orchestrates
//	Repository (storage)  → reads and writes the database
//
// Services depend on the repository interfaces, never on *sqlite.DB, so
// tests can pass in-memory fakes and main.go picks the implementation.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/culinary-compass/internal/apperror"
	"github.com/sakif/culinary-compass/internal/model"
	"github.com/sakif/culinary-compass/internal/repository"
	"github.com/sakif/culinary-compass/internal/validation"
)

// AccountService reads the current user and updates their account details
// and dietary survey.
type AccountService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewAccountService(users repository.UserRepository, logger *slog.Logger) *AccountService {
	return &AccountService{users: users, logger: logger}
}

// SurveyInput is a complete set of survey answers. Every submission
// replaces the previous one.
type SurveyInput struct {
	Vegetarianism model.Vegetarianism `json:"vegetarianism" validate:"required,oneof=vegan vegetarian neither"`
	GlutenFree    bool                `json:"glutenFree"`
	Healthy       bool                `json:"healthy"`
	NoAlcohol     bool                `json:"noAlcohol"`
}

func (s SurveyInput) survey() model.Survey {
	return model.Survey{
		Vegetarianism: s.Vegetarianism,
		GlutenFree:    s.GlutenFree,
		Healthy:       s.Healthy,
		NoAlcohol:     s.NoAlcohol,
	}
}

// AccountInput is the editable part of an account.
type AccountInput struct {
	Username string `json:"username" validate:"required,min=2,max=20"`
	Email    string `json:"email"    validate:"required,email,max=254"`
}

// GetUser returns the account with the given ID.
func (s *AccountService) GetUser(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID must not be empty")
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/account: fetching user %s: %w", id, err)
	}
	return user, nil
}

// UpdateSurvey stores the survey answers and returns the updated user.
func (s *AccountService) UpdateSurvey(ctx context.Context, userID string, in SurveyInput) (*model.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	if err := s.users.UpdateSurvey(ctx, userID, in.survey()); err != nil {
		return nil, fmt.Errorf("service/account: updating survey of %s: %w", userID, err)
	}

	s.logger.Info("survey updated",
		slog.String("user_id", userID),
		slog.String("vegetarianism", string(in.Vegetarianism)),
		slog.Bool("gluten_free", in.GlutenFree),
		slog.Bool("healthy", in.Healthy),
		slog.Bool("no_alcohol", in.NoAlcohol),
	)
	return s.GetUser(ctx, userID)
}

// UpdateAccount changes the username and email. Values taken by another
// account are apperror.ErrConflict.
func (s *AccountService) UpdateAccount(ctx context.Context, userID string, in AccountInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	if err := s.users.UpdateAccount(ctx, userID, in.Username, in.Email); err != nil {
		return nil, fmt.Errorf("service/account: updating account of %s: %w", userID, err)
	}

	s.logger.Info("account updated",
		slog.String("user_id", userID),
		slog.String("username", in.Username),
	)
	return s.GetUser(ctx, userID)
}
