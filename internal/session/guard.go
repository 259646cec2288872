// Package session guards authenticated views: it owns the persisted session
// token, decides whether it is still usable and invalidates it when it is not.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the guard's view of the session.
type State int

const (
	Unchecked State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unchecked"
	}
}

// Session is a token found valid by the last check.
type Session struct {
	Token     string
	Subject   string
	Role      Role
	ExpiresAt time.Time
}

// Guard gates one mount of an authenticated area. Once it reaches
// Unauthenticated it stays there; a new login gets a new Guard.
type Guard struct {
	store   Store
	decoder Decoder
	clock   Clock
	log     *zap.Logger

	mu      sync.Mutex
	state   State
	session Session
	checks  int
}

// NewGuard returns an Unchecked guard. A nil decoder selects JWTDecoder,
// a nil clock the wall clock and a nil logger discards output.
func NewGuard(store Store, decoder Decoder, clock Clock, log *zap.Logger) *Guard {
	if decoder == nil {
		decoder = JWTDecoder{}
	}
	if clock == nil {
		clock = RealClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{store: store, decoder: decoder, clock: clock, log: log}
}

// Check validates the stored token. Missing tokens report Unauthenticated
// without touching storage; malformed or expired tokens are cleared first.
// Errors never escape.
func (g *Guard) Check() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checks++

	if g.state == Unauthenticated {
		return g.state
	}

	token, err := g.store.Read()
	if err != nil {
		g.log.Warn("read session token", zap.Error(err))
		token = ""
	}
	if token == "" {
		g.log.Debug("no session token")
		return g.terminate()
	}

	claims, err := g.decoder.Decode(token)
	if err != nil {
		if !errors.Is(err, ErrMalformed) {
			err = fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		g.log.Info("session token rejected", zap.Error(err))
		g.clear()
		return g.terminate()
	}

	now := g.clock.Now()
	if !claims.Exp.After(now) {
		g.log.Info("session token rejected",
			zap.Error(ErrExpired),
			zap.Time("expires_at", claims.Exp),
		)
		g.clear()
		return g.terminate()
	}

	g.state = Authenticated
	g.session = Session{Token: token, Subject: claims.Subject, Role: claims.Role, ExpiresAt: claims.Exp}
	return g.state
}

// Invalidate ends the session explicitly (logout).
func (g *Guard) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clear()
	g.terminate()
}

// State returns the current state without checking.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Session returns the session found by the last successful check.
func (g *Guard) Session() (Session, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Authenticated {
		return Session{}, false
	}
	return g.session, true
}

// Token returns the bearer token while authenticated, "" otherwise.
func (g *Guard) Token() string {
	s, _ := g.Session()
	return s.Token
}

// Checks returns how many times Check has run.
func (g *Guard) Checks() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.checks
}

// clear removes the stored token. Caller holds g.mu.
func (g *Guard) clear() {
	if err := g.store.Clear(); err != nil {
		g.log.Warn("clear session token", zap.Error(err))
	}
}

// terminate enters Unauthenticated. Caller holds g.mu.
func (g *Guard) terminate() State {
	g.state = Unauthenticated
	g.session = Session{}
	return g.state
}
