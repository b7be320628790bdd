package httpx

// Page identifiers used in templates and navigation.
const (
	PageHome     = "home"
	PageAbout    = "about"
	PageGames    = "games"
	PageEvents   = "events"
	PageNews     = "news"
	PageContact  = "contact"
	PagePrivacy  = "privacy"
	PageTerms    = "terms"
	PageNotFound = "not-found"
	PageError    = "error"
	PageLoading  = "loading"

	// Sign-in entry point.
	PageAuth = "auth"

	// Member pages; all behind the route guard.
	PageProfile       = "profile"
	PageRegisterGames = "register-games"
	PageMyEvents      = "my-events"

	// Public national gamer register.
	PageGamerRegister = "gamer-register"

	PageAdmin = "admin"
)

// Template paths used for loading templates in tests and dev mode.
const (
	TemplatePathFromRoot = "web/templates"       // From project root
	TemplatePathFromTest = "../../web/templates" // From internal/http test files
	StaticPathFromRoot   = "web/static"
)

//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageHome:          "home-content",
	PageAbout:         "about-content",
	PageGames:         "games-content",
	PageEvents:        "events-content",
	PageNews:          "news-content",
	PageContact:       "contact-content",
	PagePrivacy:       "privacy-content",
	PageTerms:         "terms-content",
	PageNotFound:      "not-found-content",
	PageError:         "error-content",
	PageLoading:       "loading-content",
	PageAuth:          "auth-content",
	PageProfile:       "profile-content",
	PageRegisterGames: "register-games-content",
	PageMyEvents:      "my-events-content",
	PageGamerRegister: "gamer-register-content",
	PageAdmin:         "admin-content",
}

// ContentTemplateFor returns the content template for the given CurrentPage.
// Unknown pages render the not-found content.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "not-found-content"
}
