//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// Game is a title the federation runs competitions for.
type Game struct {
	ID          string    `json:"id"                    db:"id"`
	Name        string    `json:"name"                  db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	IsActive    bool      `json:"is_active"             db:"is_active"`
	CreatedAt   time.Time `json:"created_at"            db:"created_at"`
}

// UserGame is a member's registration for one game.
type UserGame struct {
	ID         string    `json:"id"                   db:"id"`
	UserID     string    `json:"user_id"              db:"user_id"`
	GameID     string    `json:"game_id"              db:"game_id"`
	GameName   string    `json:"game_name"            db:"game_name"`
	GamerTag   *string   `json:"gamer_tag,omitempty"  db:"gamer_tag"`
	SkillLevel *string   `json:"skill_level,omitempty" db:"skill_level"`
	IsActive   bool      `json:"is_active"            db:"is_active"`
	JoinedAt   time.Time `json:"joined_at"            db:"joined_at"`
}

// UpsertUserGameRequest carries a validated game registration.
type UpsertUserGameRequest struct {
	UserID     string
	GameID     string
	GamerTag   string
	SkillLevel string
}

// Event is a published federation event.
type Event struct {
	ID          string     `json:"id"                    db:"id"`
	Title       string     `json:"title"                 db:"title"`
	Description *string    `json:"description,omitempty" db:"description"`
	EventDate   *time.Time `json:"event_date,omitempty"  db:"event_date"`
	Location    *string    `json:"location,omitempty"    db:"location"`
	IsPublished bool       `json:"is_published"          db:"is_published"`
	CreatedAt   time.Time  `json:"created_at"            db:"created_at"`
}

// EventRegistrationStatus is the lifecycle of a member's event entry.
type EventRegistrationStatus string

const (
	EventRegistered EventRegistrationStatus = "registered"
	EventCancelled  EventRegistrationStatus = "cancelled"
)

// UserEvent is a member's registration for one event.
type UserEvent struct {
	ID           string                  `json:"id"                  db:"id"`
	UserID       string                  `json:"user_id"             db:"user_id"`
	EventID      string                  `json:"event_id"            db:"event_id"`
	EventTitle   string                  `json:"event_title"         db:"event_title"`
	Status       EventRegistrationStatus `json:"status"              db:"status"`
	TeamName     *string                 `json:"team_name,omitempty" db:"team_name"`
	Notes        *string                 `json:"notes,omitempty"     db:"notes"`
	RegisteredAt time.Time               `json:"registered_at"       db:"registered_at"`
}

// UpsertUserEventRequest carries a validated event registration.
type UpsertUserEventRequest struct {
	UserID   string
	EventID  string
	TeamName string
	Notes    string
}

// Gamer is an entry in the public national gamer register.
// OmangCipher holds the encrypted national identity number.
type Gamer struct {
	ID           string    `json:"id"            db:"id"`
	Name         string    `json:"name"          db:"name"`
	Surname      string    `json:"surname"       db:"surname"`
	OmangCipher  string    `json:"-"             db:"omang_cipher"`
	ConsentGiven bool      `json:"consent_given" db:"consent_given"`
	CreatedAt    time.Time `json:"created_at"    db:"created_at"`
}

// CreateGamerRequest carries a validated, encrypted register entry.
type CreateGamerRequest struct {
	Name         string
	Surname      string
	OmangCipher  string
	OmangDigest  string
	ConsentGiven bool
	Games        []GamerGameLink
}

// GamerGameLink is one game chosen on the public register.
type GamerGameLink struct {
	GameID  string
	GamerID string
}

// ActivityLog records one member write for the profile history.
type ActivityLog struct {
	ID           string    `json:"id"                    db:"id"`
	UserID       string    `json:"user_id"               db:"user_id"`
	Action       string    `json:"action"                db:"action"`
	ResourceType string    `json:"resource_type"         db:"resource_type"`
	ResourceID   *string   `json:"resource_id,omitempty" db:"resource_id"`
	Details      []byte    `json:"details,omitempty"     db:"details"`
	CreatedAt    time.Time `json:"created_at"            db:"created_at"`
}

// LogActivityRequest groups the fields of an activity entry.
type LogActivityRequest struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	Details      any
}

// DashboardCounts are the headline numbers on the admin dashboard.
type DashboardCounts struct {
	Profiles           int `json:"profiles"`
	Gamers             int `json:"gamers"`
	Events             int `json:"events"`
	GameRegistrations  int `json:"game_registrations"`
	EventRegistrations int `json:"event_registrations"`
}
