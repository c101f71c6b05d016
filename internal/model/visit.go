package model

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// VenueVisit records that a user rated a venue on a given date. Visits are
// append-only; a user may visit the same venue many times.
type VenueVisit struct {
	ID        string    `json:"id"        db:"id"`
	UserID    string    `json:"userId"    db:"user_id"`
	VenueID   string    `json:"venueId"   db:"venue_id"`
	VisitedOn time.Time `json:"visitedOn" db:"visited_on"`
	Rating    int       `json:"rating"    db:"rating"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// VisitWithVenue is a history row: the visit joined with its venue.
type VisitWithVenue struct {
	VenueVisit
	Venue Venue `json:"venue" db:"venue"`
}
