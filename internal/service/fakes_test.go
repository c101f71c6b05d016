package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/sakif/culinary-compass/internal/apperror"
	"github.com/sakif/culinary-compass/internal/attribute"
	"github.com/sakif/culinary-compass/internal/mail"
	"github.com/sakif/culinary-compass/internal/model"
	"github.com/sakif/culinary-compass/internal/placesearch"
	"github.com/sakif/culinary-compass/internal/recommend"
	"github.com/sakif/culinary-compass/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeStore is an in-memory implementation of the three repositories.
// Set the *Err fields to simulate a database failure.
type fakeStore struct {
	users    map[string]*model.User
	venues   map[string]model.Venue
	profiles map[string]model.VenueFeatureProfile
	visits   []model.VenueVisit
	nextID   int

	createErr  error
	historyErr error
	lastOpts   repository.ListOptions
	saveCalls  int
}

var (
	_ repository.UserRepository  = (*fakeStore)(nil)
	_ repository.VenueRepository = (*fakeStore)(nil)
	_ repository.VisitRepository = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]*model.User),
		venues:   make(map[string]model.Venue),
		profiles: make(map[string]model.VenueFeatureProfile),
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) addVenue(v model.Venue, p attribute.Profile) {
	f.venues[v.ID] = v
	if len(p) > 0 {
		f.profiles[v.ID] = model.VenueFeatureProfile{VenueID: v.ID, Attributes: p}
	}
}

func (f *fakeStore) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return apperror.Conflict("user", u.Email)
		}
	}
	u.ID = f.id("user")
	copied := *u
	f.users[u.ID] = &copied
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeStore) UpdateSurvey(_ context.Context, id string, s model.Survey) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.ApplySurvey(s)
	return nil
}

func (f *fakeStore) UpdateAccount(_ context.Context, id, username, email string) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	for otherID, other := range f.users {
		if otherID != id && (other.Username == username || other.Email == email) {
			return apperror.Conflict("user", email)
		}
	}
	u.Username, u.Email = username, email
	return nil
}

func (f *fakeStore) UpdatePassword(_ context.Context, id, oldHash, newHash string) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	if u.PasswordHash != oldHash {
		return apperror.Conflict("user", id)
	}
	u.PasswordHash = newHash
	return nil
}

func (f *fakeStore) GetVenue(_ context.Context, id string) (*model.Venue, error) {
	v, ok := f.venues[id]
	if !ok {
		return nil, apperror.NotFound("venue", id)
	}
	return &v, nil
}

func (f *fakeStore) ExistingVenueIDs(_ context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, id := range ids {
		if _, ok := f.venues[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeStore) SaveVenues(_ context.Context, records []model.VenueRecord) (int, error) {
	f.saveCalls++
	n := 0
	for _, r := range records {
		if _, ok := f.venues[r.Venue.ID]; ok {
			continue
		}
		f.venues[r.Venue.ID] = r.Venue
		if r.Profile != nil {
			f.profiles[r.Venue.ID] = *r.Profile
		}
		n++
	}
	return n, nil
}

func (f *fakeStore) Profiles(_ context.Context, ids []string) (map[string]model.VenueFeatureProfile, error) {
	out := make(map[string]model.VenueFeatureProfile)
	for _, id := range ids {
		if p, ok := f.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeStore) VenuesByIDs(_ context.Context, ids []string) (map[string]model.Venue, error) {
	out := make(map[string]model.Venue)
	for _, id := range ids {
		if v, ok := f.venues[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (f *fakeStore) CreateVisit(_ context.Context, v *model.VenueVisit) error {
	if _, ok := f.venues[v.VenueID]; !ok {
		return apperror.NotFound("venue", v.VenueID)
	}
	v.ID = f.id("visit")
	f.visits = append(f.visits, *v)
	return nil
}

func (f *fakeStore) ListRated(_ context.Context, userID string, minRating int) ([]model.VenueVisit, error) {
	var out []model.VenueVisit
	for _, v := range f.visits {
		if v.UserID == userID && v.Rating >= minRating {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeStore) HasRated(ctx context.Context, userID string, minRating int) (bool, error) {
	rated, err := f.ListRated(ctx, userID, minRating)
	return len(rated) > 0, err
}

func (f *fakeStore) ListHistory(_ context.Context, userID string, opts repository.ListOptions) ([]model.VisitWithVenue, error) {
	f.lastOpts = opts
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	var out []model.VisitWithVenue
	for _, v := range f.visits {
		if v.UserID == userID {
			out = append(out, model.VisitWithVenue{VenueVisit: v, Venue: f.venues[v.VenueID]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].VisitedOn.After(out[j].VisitedOn) })
	return out, nil
}

// fakeMatcher returns a fixed place or error and counts calls.
type fakeMatcher struct {
	place *placesearch.Place
	err   error
	calls int
}

func (f *fakeMatcher) Match(context.Context, placesearch.MatchRequest) (*placesearch.Place, error) {
	f.calls++
	return f.place, f.err
}

// fakeRecommender returns fixed results and records its arguments.
type fakeRecommender struct {
	scored   []recommend.Scored
	err      error
	calls    int
	radiusKm float64
}

func (f *fakeRecommender) GenerateScored(_ context.Context, _, _ string, radiusKm float64) ([]recommend.Scored, error) {
	f.calls++
	f.radiusKm = radiusKm
	return f.scored, f.err
}

// fakeMailer records reset mails instead of sending them.
type fakeMailer struct {
	sent []mail.ResetMail
	err  error
}

func (f *fakeMailer) SendPasswordReset(_ context.Context, m mail.ResetMail) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
