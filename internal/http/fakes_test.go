package httpx

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/domain/model"
	apperrors "github.com/besf/portal/internal/errors"
)

// stubGate is a SessionGate whose state the test sets directly.
type stubGate struct {
	mu        sync.Mutex
	clientID  string
	state     domainauth.GateState
	ready     chan struct{}
	derivedAt time.Time
	refreshes int
	signedOut bool
	// onRefresh, when set, produces the state RefreshSession moves to.
	onRefresh func() domainauth.GateState
}

func newStubGate(state domainauth.GateState) *stubGate {
	g := &stubGate{clientID: "client-1", state: state, ready: make(chan struct{}), derivedAt: time.Now()}
	if !state.Loading {
		close(g.ready)
	}
	return g
}

func signedInState(userID, email string, admin bool) domainauth.GateState {
	return domainauth.GateState{
		Session:  &domainauth.Session{ID: "sess-" + userID, UserID: userID, Email: email, ExpiresAt: time.Now().Add(time.Hour)},
		Identity: &domainauth.Identity{UserID: userID, Email: email, FirstName: "Neo", LastName: "Kgosi"},
		IsAdmin:  admin,
	}
}

func (g *stubGate) ClientID() string { return g.clientID }

func (g *stubGate) State() domainauth.GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *stubGate) Ready() <-chan struct{} { return g.ready }

func (g *stubGate) DerivedAt() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.derivedAt
}

func (g *stubGate) RefreshSession(context.Context) domainauth.GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refreshes++
	g.derivedAt = time.Now()
	if g.onRefresh != nil {
		g.state = g.onRefresh()
	}
	return g.state
}

func (g *stubGate) SignOut(context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.signedOut = true
	g.onRefresh = func() domainauth.GateState { return domainauth.GateState{} }
}

// settle moves a loading gate to state and releases waiters.
func (g *stubGate) settle(state domainauth.GateState) {
	g.mu.Lock()
	g.state = state
	g.mu.Unlock()
	close(g.ready)
}

func (g *stubGate) refreshCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refreshes
}

// memStore backs every repository the portal services need with maps.
type memStore struct {
	mu         sync.Mutex
	seq        int
	profiles   []*model.Profile
	accounts   map[string]model.Account
	games      []*model.Game
	userGames  map[string]*model.UserGame
	events     []*model.Event
	userEvents map[string]*model.UserEvent
	gamers     []model.CreateGamerRequest
	activity   []*model.ActivityLog
}

func newMemStore() *memStore {
	desc := "Tactical shooter"
	loc := "Gaborone"
	when := time.Date(2026, 12, 5, 10, 0, 0, 0, time.UTC)
	return &memStore{
		accounts:   map[string]model.Account{},
		userGames:  map[string]*model.UserGame{},
		userEvents: map[string]*model.UserEvent{},
		games: []*model.Game{
			{ID: "game-1", Name: "Valorant", Description: &desc, IsActive: true},
			{ID: "game-2", Name: "EA FC", IsActive: true},
			{ID: "game-3", Name: "Retired Title", IsActive: false},
		},
		events: []*model.Event{
			{ID: "event-1", Title: "National Qualifiers", EventDate: &when, Location: &loc, IsPublished: true},
		},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return prefix + "-" + strconv.Itoa(m.seq)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func copyProfile(p *model.Profile) *model.Profile {
	cp := *p
	return &cp
}

type memProfiles struct{ *memStore }

func (r memProfiles) find(userID string) *model.Profile {
	for _, p := range r.profiles {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (r memProfiles) GetByUserID(_ context.Context, userID string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.find(userID); p != nil {
		return copyProfile(p), nil
	}
	return nil, apperrors.NotFound("Profile not found")
}

func (r memProfiles) GetByEmail(_ context.Context, email string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Email == email {
			return copyProfile(p), nil
		}
	}
	return nil, apperrors.NotFound("Profile not found")
}

func (r memProfiles) Ensure(_ context.Context, req model.EnsureProfileRequest) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.find(req.UserID); p != nil {
		return copyProfile(p), nil
	}
	now := time.Now()
	p := &model.Profile{
		ID:        r.nextID("profile"),
		UserID:    req.UserID,
		Email:     req.Email,
		FirstName: strPtr(req.FirstName),
		LastName:  strPtr(req.LastName),
		Role:      req.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.profiles = append(r.profiles, p)
	return copyProfile(p), nil
}

func (r memProfiles) Update(_ context.Context, userID string, req model.UpdateProfileRequest) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.find(userID)
	if p == nil {
		return nil, apperrors.NotFound("Profile not found")
	}
	for _, other := range r.profiles {
		if other != p && other.Username != nil && *other.Username == req.Username {
			return nil, apperrors.ConflictField("username", "Username is already taken")
		}
	}
	p.Username = strPtr(req.Username)
	p.FirstName = strPtr(req.FirstName)
	p.LastName = strPtr(req.LastName)
	p.UpdatedAt = time.Now()
	return copyProfile(p), nil
}

func (r memProfiles) SetRole(_ context.Context, userID string, role domainauth.Role) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.find(userID)
	if p == nil {
		return nil, apperrors.NotFound("Profile not found")
	}
	p.Role = role
	return copyProfile(p), nil
}

func (r memProfiles) List(_ context.Context, limit, offset int) ([]*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Profile, 0, len(r.profiles))
	for _, p := range slices.Backward(r.profiles) {
		out = append(out, copyProfile(p))
	}
	if offset >= len(out) {
		return []*model.Profile{}, nil
	}
	return out[offset:min(offset+limit, len(out))], nil
}

func (r memProfiles) LookupRole(_ context.Context, userID string) (domainauth.Role, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.find(userID); p != nil {
		return p.Role, true, nil
	}
	return "", false, nil
}

type memAccounts struct{ *memStore }

func (r memAccounts) Create(_ context.Context, acct model.Account) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[acct.Email]; ok {
		return nil, apperrors.ConflictField("email", "An account with this email already exists")
	}
	acct.CreatedAt = time.Now()
	r.accounts[acct.Email] = acct
	return &acct, nil
}

func (r memAccounts) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.accounts[email]
	if !ok {
		return nil, apperrors.NotFound("Account not found")
	}
	return &acct, nil
}

type memGames struct{ *memStore }

func (r memGames) ListActive(context.Context) ([]*model.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Game
	for _, g := range r.games {
		if g.IsActive {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memGames) GetByID(_ context.Context, id string) (*model.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.games {
		if g.ID == id {
			cp := *g
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("Game not found")
}

func (r memGames) gameName(id string) string {
	for _, g := range r.games {
		if g.ID == id {
			return g.Name
		}
	}
	return ""
}

type memUserGames struct{ *memStore }

func (r memUserGames) ListByUser(_ context.Context, userID string) ([]*model.UserGame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.UserGame
	for _, ug := range r.userGames {
		if ug.UserID == userID && ug.IsActive {
			cp := *ug
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *model.UserGame) int { return a.JoinedAt.Compare(b.JoinedAt) })
	return out, nil
}

func (r memUserGames) Upsert(_ context.Context, req model.UpsertUserGameRequest) (*model.UserGame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := req.UserID + "/" + req.GameID
	ug, ok := r.userGames[key]
	if !ok {
		ug = &model.UserGame{
			ID:       r.nextID("ug"),
			UserID:   req.UserID,
			GameID:   req.GameID,
			GameName: memGames(r).gameName(req.GameID),
			JoinedAt: time.Now(),
		}
		r.userGames[key] = ug
	}
	ug.GamerTag = strPtr(req.GamerTag)
	ug.SkillLevel = strPtr(req.SkillLevel)
	ug.IsActive = true
	cp := *ug
	return &cp, nil
}

func (r memUserGames) Deactivate(_ context.Context, userID, gameID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ug, ok := r.userGames[userID+"/"+gameID]
	if !ok || !ug.IsActive {
		return false, nil
	}
	ug.IsActive = false
	return true, nil
}

type memEvents struct{ *memStore }

func (r memEvents) ListPublished(context.Context) ([]*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Event
	for _, e := range r.events {
		if e.IsPublished {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memEvents) GetPublished(_ context.Context, id string) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID == id && e.IsPublished {
			cp := *e
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("Event not found")
}

type memUserEvents struct{ *memStore }

func (r memUserEvents) ListByUser(_ context.Context, userID string) ([]*model.UserEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.UserEvent
	for _, ue := range r.userEvents {
		if ue.UserID == userID {
			cp := *ue
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memUserEvents) Create(_ context.Context, req model.UpsertUserEventRequest) (*model.UserEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := req.UserID + "/" + req.EventID
	ue, ok := r.userEvents[key]
	if ok && ue.Status == model.EventRegistered {
		return nil, apperrors.Conflict("You are already registered for this event")
	}
	if !ok {
		ue = &model.UserEvent{ID: r.nextID("ue"), UserID: req.UserID, EventID: req.EventID}
		r.userEvents[key] = ue
	}
	ue.Status = model.EventRegistered
	ue.TeamName = strPtr(req.TeamName)
	ue.Notes = strPtr(req.Notes)
	ue.RegisteredAt = time.Now()
	cp := *ue
	return &cp, nil
}

func (r memUserEvents) Update(_ context.Context, req model.UpsertUserEventRequest) (*model.UserEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ue, ok := r.userEvents[req.UserID+"/"+req.EventID]
	if !ok || ue.Status != model.EventRegistered {
		return nil, apperrors.NotFound("Registration not found")
	}
	ue.TeamName = strPtr(req.TeamName)
	ue.Notes = strPtr(req.Notes)
	cp := *ue
	return &cp, nil
}

func (r memUserEvents) Cancel(_ context.Context, userID, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ue, ok := r.userEvents[userID+"/"+eventID]
	if !ok || ue.Status != model.EventRegistered {
		return false, nil
	}
	ue.Status = model.EventCancelled
	return true, nil
}

type memGamers struct{ *memStore }

func (r memGamers) Create(_ context.Context, req model.CreateGamerRequest) (*model.Gamer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.gamers {
		if g.OmangDigest == req.OmangDigest {
			return nil, apperrors.ConflictField("omang_number", "This Omang number is already registered")
		}
	}
	r.gamers = append(r.gamers, req)
	return &model.Gamer{
		ID:           r.nextID("gamer"),
		Name:         req.Name,
		Surname:      req.Surname,
		OmangCipher:  req.OmangCipher,
		ConsentGiven: req.ConsentGiven,
		CreatedAt:    time.Now(),
	}, nil
}

type memActivity struct{ *memStore }

func (r memActivity) Log(_ context.Context, req model.LogActivityRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activity = append(r.activity, &model.ActivityLog{
		ID:           r.nextID("act"),
		UserID:       req.UserID,
		Action:       req.Action,
		ResourceType: req.ResourceType,
		ResourceID:   strPtr(req.ResourceID),
		CreatedAt:    time.Now(),
	})
	return nil
}

func (r memActivity) ListRecent(_ context.Context, userID string, limit int) ([]*model.ActivityLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ActivityLog
	for _, a := range slices.Backward(r.activity) {
		if a.UserID == userID && len(out) < limit {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memStats struct{ *memStore }

func (r memStats) CountProfiles(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.profiles), nil
}

func (r memStats) CountGamers(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.gamers), nil
}

func (r memStats) CountEvents(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events), nil
}

func (r memStats) CountGameRegistrations(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ug := range r.userGames {
		if ug.IsActive {
			n++
		}
	}
	return n, nil
}

func (r memStats) CountEventRegistrations(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ue := range r.userEvents {
		if ue.Status == model.EventRegistered {
			n++
		}
	}
	return n, nil
}
