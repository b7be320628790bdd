package ratelimit

import "time"

// Policy names a throttled action and its budget.
type Policy struct {
	Action      string
	MaxAttempts int
	Window      time.Duration
}

// Key returns the bucket key for one subject, e.g. "game_register_<userID>".
func (p Policy) Key(subject string) string {
	return p.Action + "_" + subject
}

var (
	// GameRegister throttles game registrations per member.
	GameRegister = Policy{Action: "game_register", MaxAttempts: 5, Window: time.Minute}
	// SignIn throttles password sign-in attempts per email.
	SignIn = Policy{Action: "sign_in", MaxAttempts: 5, Window: time.Minute}
	// GamerRegister throttles public register submissions per client IP.
	GamerRegister = Policy{Action: "gamer_register", MaxAttempts: 3, Window: 10 * time.Minute}
)
