package recommend

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/sakif/culinary-compass/internal/apperror"
	"github.com/sakif/culinary-compass/internal/attribute"
	"github.com/sakif/culinary-compass/internal/model"
	"github.com/sakif/culinary-compass/internal/placesearch"
	"github.com/sakif/culinary-compass/internal/repository"
)

// memStore is an in-memory implementation of the three repositories.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*model.User
	venues   map[string]model.Venue
	profiles map[string]model.VenueFeatureProfile
	visits   []model.VenueVisit

	saveCalls int
}

var (
	_ repository.UserRepository  = (*memStore)(nil)
	_ repository.VenueRepository = (*memStore)(nil)
	_ repository.VisitRepository = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*model.User),
		venues:   make(map[string]model.Venue),
		profiles: make(map[string]model.VenueFeatureProfile),
	}
}

func (m *memStore) addUser(u model.User) *model.User {
	m.users[u.ID] = &u
	return &u
}

func (m *memStore) addVenue(v model.Venue, profile attribute.Profile) {
	m.venues[v.ID] = v
	if len(profile) > 0 {
		m.profiles[v.ID] = model.VenueFeatureProfile{VenueID: v.ID, Attributes: profile}
	}
}

func (m *memStore) addVisit(userID, venueID string, rating int) {
	m.visits = append(m.visits, model.VenueVisit{UserID: userID, VenueID: venueID, Rating: rating})
}

// --- users ---

func (m *memStore) Create(_ context.Context, u *model.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *memStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *memStore) UpdateSurvey(_ context.Context, id string, s model.Survey) error {
	u, ok := m.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.ApplySurvey(s)
	return nil
}

func (m *memStore) UpdateAccount(_ context.Context, id, username, email string) error {
	u, ok := m.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.Username, u.Email = username, email
	return nil
}

func (m *memStore) UpdatePassword(_ context.Context, id, _, newHash string) error {
	u, ok := m.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.PasswordHash = newHash
	return nil
}

// --- venues ---

func (m *memStore) GetVenue(_ context.Context, id string) (*model.Venue, error) {
	v, ok := m.venues[id]
	if !ok {
		return nil, apperror.NotFound("venue", id)
	}
	return &v, nil
}

func (m *memStore) ExistingVenueIDs(_ context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, id := range ids {
		if _, ok := m.venues[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (m *memStore) SaveVenues(_ context.Context, records []model.VenueRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	n := 0
	for _, r := range records {
		if _, ok := m.venues[r.Venue.ID]; ok {
			continue
		}
		m.venues[r.Venue.ID] = r.Venue
		if r.Profile != nil {
			m.profiles[r.Venue.ID] = *r.Profile
		}
		n++
	}
	return n, nil
}

func (m *memStore) Profiles(_ context.Context, ids []string) (map[string]model.VenueFeatureProfile, error) {
	out := make(map[string]model.VenueFeatureProfile)
	for _, id := range ids {
		if p, ok := m.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *memStore) VenuesByIDs(_ context.Context, ids []string) (map[string]model.Venue, error) {
	out := make(map[string]model.Venue)
	for _, id := range ids {
		if v, ok := m.venues[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

// --- visits ---

func (m *memStore) CreateVisit(_ context.Context, v *model.VenueVisit) error {
	if _, ok := m.venues[v.VenueID]; !ok {
		return apperror.NotFound("venue", v.VenueID)
	}
	m.visits = append(m.visits, *v)
	return nil
}

func (m *memStore) ListRated(_ context.Context, userID string, minRating int) ([]model.VenueVisit, error) {
	var out []model.VenueVisit
	for _, v := range m.visits {
		if v.UserID == userID && v.Rating >= minRating {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memStore) HasRated(ctx context.Context, userID string, minRating int) (bool, error) {
	rated, _ := m.ListRated(ctx, userID, minRating)
	return len(rated) > 0, nil
}

func (m *memStore) ListHistory(context.Context, string, repository.ListOptions) ([]model.VisitWithVenue, error) {
	return nil, nil
}

// fakePlaces returns canned places or an error and counts calls.
type fakePlaces struct {
	places []placesearch.Place
	err    error
	calls  int
	last   placesearch.SearchRequest
}

func (f *fakePlaces) Search(_ context.Context, req placesearch.SearchRequest) ([]placesearch.Place, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.places, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
