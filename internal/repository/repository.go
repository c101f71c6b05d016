// Package repository declares the storage interfaces the services and the
// recommendation engine depend on.
package repository

import (
	"context"

	"github.com/sakif/culinary-compass/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
	Query  string // optional case-insensitive match on venue name or address
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateSurvey(ctx context.Context, id string, survey model.Survey) error
	UpdateAccount(ctx context.Context, id, username, email string) error
	// UpdatePassword swaps the hash only while the stored one equals oldHash.
	UpdatePassword(ctx context.Context, id, oldHash, newHash string) error
}

type VenueRepository interface {
	GetVenue(ctx context.Context, id string) (*model.Venue, error)
	// ExistingVenueIDs returns the subset of ids already stored.
	ExistingVenueIDs(ctx context.Context, ids []string) (map[string]bool, error)
	// SaveVenues inserts each venue together with its profile. Venues whose
	// id is already stored are skipped.
	SaveVenues(ctx context.Context, records []model.VenueRecord) (int, error)
	// Profiles returns the feature profiles of the given venues, keyed by
	// venue id. Venues without a profile are absent from the map.
	Profiles(ctx context.Context, venueIDs []string) (map[string]model.VenueFeatureProfile, error)
	VenuesByIDs(ctx context.Context, ids []string) (map[string]model.Venue, error)
}

type VisitRepository interface {
	CreateVisit(ctx context.Context, visit *model.VenueVisit) error
	// ListRated returns the user's visits rated at least minRating, oldest first.
	ListRated(ctx context.Context, userID string, minRating int) ([]model.VenueVisit, error)
	HasRated(ctx context.Context, userID string, minRating int) (bool, error)
	ListHistory(ctx context.Context, userID string, opts ListOptions) ([]model.VisitWithVenue, error)
}
