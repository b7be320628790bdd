package validation

import (
	"regexp"
	"strings"
)

// FieldError reports the first failing rule of one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Schema is an immutable rule set for one field.
//
// Parse applies Normalize (if set), then Rules in order, stopping at the first
// failure, then Transform (if set). An Optional schema accepts the empty string
// without running any rule.
type Schema struct {
	Field     string
	Optional  bool
	Normalize func(string) string
	Rules     []Validator
	Transform func(string) string
}

// Parse validates raw and returns the cleaned value.
func (s Schema) Parse(raw string) (string, *FieldError) {
	v := raw
	if s.Normalize != nil {
		v = s.Normalize(v)
	}
	if s.Optional && v == "" {
		return "", nil
	}
	for _, rule := range s.Rules {
		if msg := rule(v); msg != "" {
			return "", &FieldError{Field: s.Field, Message: msg}
		}
	}
	if s.Transform != nil {
		v = s.Transform(v)
	}
	return v, nil
}

// SkillLevels lists the accepted skill levels in display order.
var SkillLevels = []string{"beginner", "intermediate", "advanced", "expert"}

var (
	reUsername = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	rePerson   = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
	reGamerTag = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
	reTeamName = regexp.MustCompile(`^[a-zA-Z0-9\s_.-]+$`)
	reDigits   = regexp.MustCompile(`^\d{9}$`)

	// Lower-case form of the common browser email shape; the leading-dot and
	// double-dot exclusions live in emailShape.
	reEmail = regexp.MustCompile(`^[a-z0-9_'+\-.]*[a-z0-9_+-]@([a-z0-9][a-z0-9\-]*\.)+[a-z]{2,}$`)

	reHasLower = regexp.MustCompile(`[a-z]`)
	reHasUpper = regexp.MustCompile(`[A-Z]`)
	reHasDigit = regexp.MustCompile(`\d`)
)

const (
	msgInvalidEmail  = "Please enter a valid email address"
	msgPasswordClass = "Password must contain at least one lowercase letter, one uppercase letter, and one number"
)

func emailShape(v string) string {
	if strings.HasPrefix(v, ".") || strings.Contains(v, "..") || !reEmail.MatchString(v) {
		return msgInvalidEmail
	}
	return ""
}

func normalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func personName(field, label string) Schema {
	return Schema{
		Field: field,
		Rules: []Validator{
			MinLen(1, label+" is required"),
			MaxLen(100, label+" must be less than 100 characters"),
			Matches(rePerson, label+" can only contain letters, spaces, apostrophes, and hyphens"),
		},
		Transform: Sanitize,
	}
}

// Field schemas. They are values, safe to share between goroutines.
var (
	Username = Schema{
		Field: "username",
		Rules: []Validator{
			MinLen(3, "Username must be at least 3 characters"),
			MaxLen(50, "Username must be less than 50 characters"),
			Matches(reUsername, "Username can only contain letters, numbers, underscores, and hyphens"),
		},
		Transform: Sanitize,
	}

	FirstName = personName("first_name", "First name")
	LastName  = personName("last_name", "Last name")

	GamerName    = personName("name", "Name")
	GamerSurname = personName("surname", "Surname")

	GamerTag = Schema{
		Field: "gamer_tag",
		Rules: []Validator{
			MinLen(3, "Gamer tag must be at least 3 characters"),
			MaxLen(50, "Gamer tag must be less than 50 characters"),
			Matches(reGamerTag, "Gamer tag can only contain letters, numbers, underscores, dots, and hyphens"),
		},
		Transform: Sanitize,
	}

	SkillLevel = Schema{
		Field: "skill_level",
		Rules: []Validator{OneOf(SkillLevels, "Please select a valid skill level")},
	}

	TeamName = Schema{
		Field:    "team_name",
		Optional: true,
		Rules: []Validator{
			MinLen(3, "Team name must be at least 3 characters"),
			MaxLen(100, "Team name must be less than 100 characters"),
			Matches(reTeamName, "Team name can only contain letters, numbers, spaces, underscores, dots, and hyphens"),
		},
		Transform: Sanitize,
	}

	Notes = Schema{
		Field:     "notes",
		Optional:  true,
		Rules:     []Validator{MaxLen(500, "Notes must be less than 500 characters")},
		Transform: Sanitize,
	}

	Omang = Schema{
		Field: "omang_number",
		Rules: []Validator{
			ExactLen(9, "Omang number must be exactly 9 digits"),
			Matches(reDigits, "Omang number must contain only digits"),
		},
	}

	Email = Schema{
		Field:     "email",
		Normalize: normalizeEmail,
		Rules: []Validator{
			emailShape,
			MaxLen(255, "Email must be less than 255 characters"),
		},
	}

	Password = Schema{
		Field: "password",
		Rules: []Validator{
			MinLen(8, "Password must be at least 8 characters"),
			MaxLen(128, "Password must be less than 128 characters"),
			ContainsAll(msgPasswordClass, reHasLower, reHasUpper, reHasDigit),
		},
	}
)
