package config

import "time"

// GateConfig tunes the per-client session gates and the route guard that reads them.
type GateConfig struct {
	// Capacity bounds how many client gates are held at once; the least recently
	// used gate is closed when it is exceeded.
	Capacity int `env:"GATE_CAPACITY" envDefault:"10000"`
	// IdleTTL closes gates whose client has not made a request for this long.
	IdleTTL time.Duration `env:"GATE_IDLE_TTL" envDefault:"30m"`
	// JanitorInterval is how often idle gates are swept.
	JanitorInterval time.Duration `env:"GATE_JANITOR_INTERVAL" envDefault:"1m"`
	// RefreshInterval re-derives a gate on request when it is older than this.
	// Zero disables request-driven refreshes.
	RefreshInterval time.Duration `env:"GATE_REFRESH_INTERVAL" envDefault:"5m"`
	// GuardGrace is how long a protected request waits for a loading gate before
	// the loading page is served. Zero serves it without waiting.
	GuardGrace time.Duration `env:"GATE_GUARD_GRACE" envDefault:"1500ms"`
	// LookupTimeout bounds one session + role derivation.
	LookupTimeout time.Duration `env:"GATE_LOOKUP_TIMEOUT" envDefault:"5s"`
}

// Sanitize applies guardrails to gate configuration values.
func (g *GateConfig) Sanitize() {
	if g.Capacity < 1 {
		g.Capacity = 1
	}
	if g.IdleTTL < 0 {
		g.IdleTTL = 0
	}
	if g.JanitorInterval < 0 {
		g.JanitorInterval = 0
	}
	if g.RefreshInterval < 0 {
		g.RefreshInterval = 0
	}
	if g.GuardGrace < 0 {
		g.GuardGrace = 0
	}
	if g.LookupTimeout <= 0 {
		g.LookupTimeout = 5 * time.Second
	}
}
