package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/culinary-compass/internal/apperror"
	"github.com/sakif/culinary-compass/internal/model"
	"github.com/sakif/culinary-compass/internal/repository"
)

var _ repository.VisitRepository = (*DB)(nil)

const visitColumns = `id, user_id, venue_id, visited_on, rating, created_at`

// CreateVisit appends a visit. A visit that references an unknown venue or
// user is rejected by the foreign keys and reported as not found.
func (db *DB) CreateVisit(ctx context.Context, visit *model.VenueVisit) error {
	visit.ID = xid.New().String()
	visit.CreatedAt = time.Now().UTC()

	_, err := db.conn.NamedExecContext(ctx,
		`INSERT INTO venue_visits (`+visitColumns+`)
		 VALUES (:id, :user_id, :venue_id, :visited_on, :rating, :created_at)`,
		visit,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("venue", visit.VenueID)
		}
		return fmt.Errorf("sqlite: inserting visit of user %s: %w", visit.UserID, err)
	}
	return nil
}

// ListRated returns the user's visits with rating >= minRating in the order
// they happened.
func (db *DB) ListRated(ctx context.Context, userID string, minRating int) ([]model.VenueVisit, error) {
	visits := []model.VenueVisit{}
	err := db.conn.SelectContext(ctx, &visits,
		`SELECT `+visitColumns+` FROM venue_visits
		 WHERE user_id = ? AND rating >= ?
		 ORDER BY visited_on ASC, created_at ASC, id ASC`,
		userID, minRating,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing rated visits of user %s: %w", userID, err)
	}
	return visits, nil
}

// HasRated reports whether the user has at least one visit rated >= minRating.
func (db *DB) HasRated(ctx context.Context, userID string, minRating int) (bool, error) {
	var exists bool
	err := db.conn.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM venue_visits WHERE user_id = ? AND rating >= ?)`,
		userID, minRating,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking visits of user %s: %w", userID, err)
	}
	return exists, nil
}

// likeEscaper makes a search term match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListHistory returns the user's visits joined with their venues, newest
// first. opts.Query filters on venue name or address.
func (db *DB) ListHistory(ctx context.Context, userID string, opts repository.ListOptions) ([]model.VisitWithVenue, error) {
	var (
		where strings.Builder
		args  = []any{userID}
	)
	where.WriteString(`vv.user_id = ?`)
	if q := strings.TrimSpace(opts.Query); q != "" {
		where.WriteString(` AND (lower(v.name) LIKE ? ESCAPE '\' OR lower(v.address) LIKE ? ESCAPE '\')`)
		pattern := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
		args = append(args, pattern, pattern)
	}
	args = append(args, opts.Limit, opts.Offset)

	rows := []model.VisitWithVenue{}
	err := db.conn.SelectContext(ctx, &rows,
		`SELECT vv.id, vv.user_id, vv.venue_id, vv.visited_on, vv.rating, vv.created_at,
		        v.id          AS "venue.id",
		        v.name        AS "venue.name",
		        v.address     AS "venue.address",
		        v.category    AS "venue.category",
		        v.website     AS "venue.website",
		        v.menu        AS "venue.menu",
		        v.description AS "venue.description",
		        v.price       AS "venue.price",
		        v.tastes      AS "venue.tastes",
		        v.created_at  AS "venue.created_at"
		 FROM venue_visits vv
		 JOIN venues v ON v.id = vv.venue_id
		 WHERE `+where.String()+`
		 ORDER BY vv.visited_on DESC, vv.created_at DESC
		 LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing visit history of user %s: %w", userID, err)
	}
	return rows, nil
}
