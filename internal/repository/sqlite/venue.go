package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sakif/culinary-compass/internal/apperror"
	"github.com/sakif/culinary-compass/internal/model"
	"github.com/sakif/culinary-compass/internal/repository"
)

var _ repository.VenueRepository = (*DB)(nil)

const venueColumns = `id, name, address, category, website, menu, description, price, tastes, created_at`

// GetVenue retrieves a venue by provider id.
func (db *DB) GetVenue(ctx context.Context, id string) (*model.Venue, error) {
	var v model.Venue
	err := db.conn.GetContext(ctx, &v, `SELECT `+venueColumns+` FROM venues WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("venue", id)
		}
		return nil, fmt.Errorf("sqlite: getting venue %s: %w", id, err)
	}
	return &v, nil
}

// ExistingVenueIDs returns which of ids are already stored.
func (db *DB) ExistingVenueIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	found := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	query, args, err := sqlx.In(`SELECT id FROM venues WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("sqlite: building venue lookup: %w", err)
	}

	var existing []string
	if err := db.conn.SelectContext(ctx, &existing, db.conn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("sqlite: looking up venues: %w", err)
	}
	for _, id := range existing {
		found[id] = true
	}
	return found, nil
}

// SaveVenues writes the records in one transaction. A venue and its profile
// are written together; a venue id that is already stored (for instance
// inserted by a concurrent request) is left untouched and its profile is not
// written. It returns the number of venues inserted.
func (db *DB) SaveVenues(ctx context.Context, records []model.VenueRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: beginning venue batch: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for i := range records {
		rec := &records[i]
		if rec.Venue.CreatedAt.IsZero() {
			rec.Venue.CreatedAt = time.Now().UTC()
		}

		res, err := tx.NamedExecContext(ctx,
			`INSERT INTO venues (`+venueColumns+`)
			 VALUES (:id, :name, :address, :category, :website, :menu, :description, :price, :tastes, :created_at)
			 ON CONFLICT (id) DO NOTHING`,
			&rec.Venue,
		)
		if err != nil {
			return 0, fmt.Errorf("sqlite: inserting venue %s: %w", rec.Venue.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if n == 0 {
			continue
		}
		inserted++

		if rec.Profile == nil || len(rec.Profile.Attributes) == 0 {
			continue
		}
		rec.Profile.VenueID = rec.Venue.ID
		_, err = tx.NamedExecContext(ctx,
			`INSERT INTO venue_features (venue_id, attributes)
			 VALUES (:venue_id, :attributes)
			 ON CONFLICT (venue_id) DO UPDATE SET attributes = excluded.attributes`,
			rec.Profile,
		)
		if err != nil {
			return 0, fmt.Errorf("sqlite: inserting features of venue %s: %w", rec.Venue.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: committing venue batch: %w", err)
	}
	return inserted, nil
}

// Profiles returns the feature profiles of the given venues.
func (db *DB) Profiles(ctx context.Context, venueIDs []string) (map[string]model.VenueFeatureProfile, error) {
	out := make(map[string]model.VenueFeatureProfile, len(venueIDs))
	if len(venueIDs) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`SELECT venue_id, attributes FROM venue_features WHERE venue_id IN (?)`, venueIDs)
	if err != nil {
		return nil, fmt.Errorf("sqlite: building profile lookup: %w", err)
	}

	var rows []model.VenueFeatureProfile
	if err := db.conn.SelectContext(ctx, &rows, db.conn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("sqlite: loading venue profiles: %w", err)
	}
	for _, p := range rows {
		out[p.VenueID] = p
	}
	return out, nil
}

// VenuesByIDs loads venues keyed by id. Unknown ids are absent.
func (db *DB) VenuesByIDs(ctx context.Context, ids []string) (map[string]model.Venue, error) {
	out := make(map[string]model.Venue, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`SELECT `+venueColumns+` FROM venues WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("sqlite: building venue lookup: %w", err)
	}

	var rows []model.Venue
	if err := db.conn.SelectContext(ctx, &rows, db.conn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("sqlite: loading venues: %w", err)
	}
	for _, v := range rows {
		out[v.ID] = v
	}
	return out, nil
}
