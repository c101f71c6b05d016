// Package model defines the data structures used throughout the application.
package model

import "time"

// Vegetarianism is the user's answer to the dietary survey's diet question.
type Vegetarianism string

const (
	Vegan      Vegetarianism = "vegan"
	Vegetarian Vegetarianism = "vegetarian"
	Neither    Vegetarianism = "neither"
)

// Valid reports whether v is one of the survey's choices.
func (v Vegetarianism) Valid() bool {
	switch v {
	case Vegan, Vegetarian, Neither:
		return true
	}
	return false
}

// User is a registered account plus its dietary survey answers. The
// recommendation engine only reads the survey fields.
type User struct {
	ID            string        `json:"id"            db:"id"`
	Username      string        `json:"username"      db:"username"`
	Email         string        `json:"email"         db:"email"`
	PasswordHash  string        `json:"-"             db:"password_hash"`
	Vegetarianism Vegetarianism `json:"vegetarianism" db:"vegetarianism"`
	GlutenFree    bool          `json:"glutenFree"    db:"gluten_free"`
	Healthy       bool          `json:"healthy"       db:"healthy"`
	NoAlcohol     bool          `json:"noAlcohol"     db:"no_alcohol"`
	CreatedAt     time.Time     `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time     `json:"updatedAt"     db:"updated_at"`
}

// Survey is the dietary questionnaire as submitted by the user.
type Survey struct {
	Vegetarianism Vegetarianism `json:"vegetarianism"`
	GlutenFree    bool          `json:"glutenFree"`
	Healthy       bool          `json:"healthy"`
	NoAlcohol     bool          `json:"noAlcohol"`
}

// Survey returns the user's current survey answers.
func (u *User) Survey() Survey {
	return Survey{
		Vegetarianism: u.Vegetarianism,
		GlutenFree:    u.GlutenFree,
		Healthy:       u.Healthy,
		NoAlcohol:     u.NoAlcohol,
	}
}

// ApplySurvey overwrites the survey fields.
func (u *User) ApplySurvey(s Survey) {
	u.Vegetarianism = s.Vegetarianism
	u.GlutenFree = s.GlutenFree
	u.Healthy = s.Healthy
	u.NoAlcohol = s.NoAlcohol
}
