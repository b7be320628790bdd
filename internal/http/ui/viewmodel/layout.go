package viewmodel

// User represents the signed-in member exposed to templates.
type User struct {
	Email string
	Name  string
}

// Layout captures shared chrome metadata (titles, navigation state, auth flags).
type Layout struct {
	Title           string
	PageTitle       string
	CurrentPage     string
	CSRFToken       string
	IsAuthenticated bool
	IsAdmin         bool
	Loading         bool
	User            *User
}
