package validation

import "strings"

// ProfileUpdate is the editable part of a member profile.
type ProfileUpdate struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// GameRegistration is a member's entry for one game.
type GameRegistration struct {
	GamerTag   string `json:"gamer_tag"`
	SkillLevel string `json:"skill_level"`
}

// EventRegistration is a member's entry for one event. Both fields are optional.
type EventRegistration struct {
	TeamName string `json:"team_name"`
	Notes    string `json:"notes"`
}

// Credentials are the email/password pair used for password sign-in and sign-up.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GamerGame links a public registration to one game with the player's in-game ID.
type GamerGame struct {
	GameID  string `json:"game_id"`
	GamerID string `json:"gamer_id"`
}

// GamerRegistration is the public (signed-out) national gamer register entry.
type GamerRegistration struct {
	Name         string      `json:"name"`
	Surname      string      `json:"surname"`
	OmangNumber  string      `json:"omang_number"`
	ConsentGiven bool        `json:"consent_given"`
	Games        []GamerGame `json:"games"`
}

type step struct {
	schema Schema
	dst    *string
}

// parseAll runs each step in order and stops at the first failing field.
func parseAll(steps ...step) error {
	for _, s := range steps {
		v, err := s.schema.Parse(*s.dst)
		if err != nil {
			return err
		}
		*s.dst = v
	}
	return nil
}

// ValidateProfileUpdate returns the cleaned record or the first *FieldError.
func ValidateProfileUpdate(in ProfileUpdate) (ProfileUpdate, error) {
	out := in
	if err := parseAll(
		step{Username, &out.Username},
		step{FirstName, &out.FirstName},
		step{LastName, &out.LastName},
	); err != nil {
		return ProfileUpdate{}, err
	}
	return out, nil
}

// ValidateGameRegistration returns the cleaned record or the first *FieldError.
func ValidateGameRegistration(in GameRegistration) (GameRegistration, error) {
	out := in
	if err := parseAll(
		step{GamerTag, &out.GamerTag},
		step{SkillLevel, &out.SkillLevel},
	); err != nil {
		return GameRegistration{}, err
	}
	return out, nil
}

// ValidateEventRegistration returns the cleaned record or the first *FieldError.
func ValidateEventRegistration(in EventRegistration) (EventRegistration, error) {
	out := in
	if err := parseAll(
		step{TeamName, &out.TeamName},
		step{Notes, &out.Notes},
	); err != nil {
		return EventRegistration{}, err
	}
	return out, nil
}

// ValidateCredentials returns the credentials with a normalised email or the first *FieldError.
func ValidateCredentials(in Credentials) (Credentials, error) {
	out := in
	if err := parseAll(
		step{Email, &out.Email},
		step{Password, &out.Password},
	); err != nil {
		return Credentials{}, err
	}
	return out, nil
}

// ValidateGamerRegistration checks a public register entry in form order.
func ValidateGamerRegistration(in GamerRegistration) (GamerRegistration, error) {
	out := in
	out.Games = make([]GamerGame, 0, len(in.Games))

	if err := parseAll(
		step{GamerName, &out.Name},
		step{GamerSurname, &out.Surname},
		step{Omang, &out.OmangNumber},
	); err != nil {
		return GamerRegistration{}, err
	}
	if !in.ConsentGiven {
		return GamerRegistration{}, &FieldError{
			Field:   "consent_given",
			Message: "You must consent to data processing to register.",
		}
	}
	if len(in.Games) == 0 {
		return GamerRegistration{}, &FieldError{Field: "games", Message: "Please select at least one game."}
	}

	seen := make(map[string]struct{}, len(in.Games))
	for _, g := range in.Games {
		id := strings.TrimSpace(g.GameID)
		if id == "" {
			return GamerRegistration{}, &FieldError{Field: "games", Message: "Please select at least one game."}
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		gamerID := Sanitize(g.GamerID)
		if gamerID == "" {
			return GamerRegistration{}, &FieldError{
				Field:   "games",
				Message: "Please provide gamer IDs for all selected games.",
			}
		}
		out.Games = append(out.Games, GamerGame{GameID: id, GamerID: gamerID})
	}
	return out, nil
}

// Check pairs a schema with the raw form value it is run against.
type Check struct {
	Schema Schema
	Value  string
}

// CollectErrors runs every check and returns the first message of each failing field.
// Forms use it to show all problems at once; the Validate* functions stop at the first.
func CollectErrors(checks ...Check) map[string]string {
	fv := New()
	for _, c := range checks {
		fv.Schema(c.Schema, c.Value)
	}
	return fv.Errors()
}

// Checks lists the field checks of a profile update in form order.
func (p ProfileUpdate) Checks() []Check {
	return []Check{{Username, p.Username}, {FirstName, p.FirstName}, {LastName, p.LastName}}
}

// Checks lists the field checks of a game registration in form order.
func (g GameRegistration) Checks() []Check {
	return []Check{{GamerTag, g.GamerTag}, {SkillLevel, g.SkillLevel}}
}

// Checks lists the field checks of an event registration in form order.
func (e EventRegistration) Checks() []Check {
	return []Check{{TeamName, e.TeamName}, {Notes, e.Notes}}
}

// Checks lists the field checks of a credentials pair.
func (c Credentials) Checks() []Check {
	return []Check{{Email, c.Email}, {Password, c.Password}}
}
