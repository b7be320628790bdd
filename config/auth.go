package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode selects the redirect sign-in provider. Password sign-in is controlled
// separately by AuthConfig.PasswordEnabled.
type AuthMode string

const (
	// AuthModeOAuth uses OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
	// AuthModePassword disables redirect sign-in; members use email and password only.
	AuthModePassword AuthMode = "password"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "oauth", "mock", "password":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock, password)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	LogoutURL    string `env:"LOGOUT_URL"`
}

// Complete reports whether every setting the OIDC provider needs is present.
func (o OAuthConfig) Complete() bool {
	return o.DiscoveryURL != "" && o.ClientID != "" && o.ClientSecret != ""
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID    string   `env:"USER_ID"    envDefault:"dev-user"`
	Email     string   `env:"EMAIL"      envDefault:"dev@besf.local"`
	FirstName string   `env:"FIRST_NAME" envDefault:"Dev"`
	LastName  string   `env:"LAST_NAME"  envDefault:"Member"`
	Groups    []string `env:"GROUPS"     envSeparator:";"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which redirect sign-in provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"password"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// PasswordEnabled turns on email/password sign-up and sign-in.
	PasswordEnabled bool `env:"AUTH_PASSWORD_ENABLED" envDefault:"true"`
	// BcryptCost is the cost used for new password hashes.
	BcryptCost int `env:"AUTH_BCRYPT_COST" envDefault:"12"`

	// AdminEmails receive the admin role when their profile is first created.
	AdminEmails []string `env:"AUTH_ADMIN_EMAILS" envSeparator:","`
	// AdminGroup grants the admin role to identities carrying this IdP group.
	AdminGroup string `env:"AUTH_ADMIN_GROUP"`

	// TokenSecret signs session access tokens. At least 32 bytes.
	TokenSecret string `env:"AUTH_TOKEN_SECRET"`
	// TokenTTL is the lifetime of an access token and of the stored session.
	TokenTTL time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"8h"`
}

const (
	minBcryptCost = 4
	maxBcryptCost = 31
)

// Sanitize normalises admin emails and clamps numeric settings.
func (a *AuthConfig) Sanitize() {
	emails := a.AdminEmails[:0]
	for _, e := range a.AdminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			emails = append(emails, e)
		}
	}
	a.AdminEmails = emails
	a.AdminGroup = strings.TrimSpace(a.AdminGroup)
	a.TokenSecret = strings.TrimSpace(a.TokenSecret)

	if a.BcryptCost < minBcryptCost {
		a.BcryptCost = minBcryptCost
	}
	if a.BcryptCost > maxBcryptCost {
		a.BcryptCost = maxBcryptCost
	}
	if a.TokenTTL <= 0 {
		a.TokenTTL = 8 * time.Hour
	}
}
