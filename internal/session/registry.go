// internal/session/registry.go
//
// Concurrency-safe registry of active sessions.
//
// Responsibilities:
//   - Own the only shared mutable map in the system: session id → session.
//   - Make every read-modify-write of a session (join, phase change, board
//     deal, score change) atomic under one mutex, so handlers for the same
//     session are serialized no matter which goroutine runs them.
//   - Issue collision-free short game ids (crypto/rand draw + checked retry).
//
// Characteristics:
//   - All methods return deep copies; no caller can hold a live reference to
//     a session's mutable fields across an event boundary.
//   - No I/O happens under the lock.
//   - State is lost when the process restarts; that is by contract.

package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/letterdash/go-server/internal/board"
)

var (
	// ErrNotFound means the referenced session does not exist.
	ErrNotFound = errors.New("session: not found")
	// ErrFull means a join was attempted against a session at capacity.
	ErrFull = errors.New("session: full")
	// ErrBadPhase means the operation is not legal in the session's current phase.
	ErrBadPhase = errors.New("session: wrong phase")
	// ErrNoPlayer means the connection is not a participant of the session.
	ErrNoPlayer = errors.New("session: player not in session")
)

// Game ids are five-digit codes, short enough to type into the join screen.
const (
	idMin       = 10000
	idSpan      = 90000
	maxIDProbes = 50
)

// Registry is the single owner of live session state.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	byConn   map[string]string // connection id → session id
}

// NewRegistry constructs an empty Registry. One per process, built in main
// and passed to the coordinator; tests build their own isolated instances.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		byConn:   make(map[string]string),
	}
}

// Create opens a new session with the host as player 0 and returns a copy.
// Id assignment is atomic: concurrent creates can never share an id.
func (r *Registry) Create(hostConnID, hostName string) (Session, error) {
	if hostName = strings.TrimSpace(hostName); hostName == "" {
		hostName = DefaultPlayerName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.newIDLocked()
	if err != nil {
		return Session{}, err
	}
	s := &Session{
		ID:        id,
		Players:   []Player{{ConnID: hostConnID, Name: hostName}},
		Phase:     AwaitingPlayers,
		CreatedAt: time.Now().UTC(),
	}
	r.sessions[id] = s
	r.byConn[hostConnID] = id
	return s.clone(), nil
}

// Get returns a copy of the session or ErrNotFound.
func (r *Registry) Get(id string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s.clone(), nil
}

// Join adds a second player. The capacity check and the append happen under
// the registry lock, so two concurrent joins against a one-player session
// yield exactly one success and one ErrFull. A successful join moves the
// session to ReadyToStart in the same critical section.
func (r *Registry) Join(id, connID, name string) (Session, error) {
	if name = strings.TrimSpace(name); name == "" {
		name = DefaultPlayerName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if len(s.Players) >= MaxPlayers || s.Phase != AwaitingPlayers {
		return Session{}, ErrFull
	}
	s.Players = append(s.Players, Player{ConnID: connID, Name: name})
	s.Phase = ReadyToStart
	r.byConn[connID] = id
	return s.clone(), nil
}

// Summary is one row of the joinable-rooms listing.
type Summary struct {
	GameID   string `json:"gameId"`
	HostName string `json:"hostName"`
	Players  int    `json:"players"`
}

// ListJoinable returns a point-in-time snapshot of sessions still waiting for
// a second player, ordered by id for stable output. Staleness is fine: a room
// filling between snapshot and join surfaces as ErrFull at join time.
func (r *Registry) ListJoinable() []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Summary, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s.Joinable() {
			out = append(out, Summary{GameID: s.ID, HostName: s.Players[0].Name, Players: len(s.Players)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameID < out[j].GameID })
	return out
}

// StartCountdown moves a full session from ReadyToStart to Countdown.
func (r *Registry) StartCountdown(id string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if s.Phase != ReadyToStart || len(s.Players) != MaxPlayers {
		return Session{}, ErrBadPhase
	}
	s.Phase = Countdown
	return s.clone(), nil
}

// StartPlay stores the generated board and moves the session to InProgress.
// The board is stored exactly once; a second call is rejected by the phase
// guard, which is what guarantees both clients see the identical board.
func (r *Registry) StartPlay(id string, grid board.Grid) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if s.Phase != Countdown {
		return Session{}, ErrBadPhase
	}
	s.Board = grid
	s.Phase = InProgress
	return s.clone(), nil
}

// ApplyScore adds delta to the submitting player's score and returns the
// updated session plus the player's new record. Scores are unbounded in both
// directions.
func (r *Registry) ApplyScore(id, connID string, delta int) (Session, Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, Player{}, ErrNotFound
	}
	if s.Phase != InProgress {
		return Session{}, Player{}, ErrBadPhase
	}
	for i := range s.Players {
		if s.Players[i].ConnID == connID {
			s.Players[i].Score += delta
			return s.clone(), s.Players[i], nil
		}
	}
	return Session{}, Player{}, ErrNoPlayer
}

// SetUserID attaches an account id to a participant (authenticated players).
func (r *Registry) SetUserID(id, connID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return ErrNotFound
	}
	for i := range s.Players {
		if s.Players[i].ConnID == connID {
			s.Players[i].UserID = userID
			return nil
		}
	}
	return ErrNoPlayer
}

// ByConnection resolves the session a connection participates in, if any.
func (r *Registry) ByConnection(connID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byConn[connID]
	if !ok {
		return Session{}, false
	}
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return s.clone(), true
}

// End marks the session Ended, removes it, and returns the final state for
// recording. Removing under the same lock keeps a half-ended session from
// ever appearing in a listing.
func (r *Registry) End(id string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	s.Phase = Ended
	final := s.clone()
	r.removeLocked(s)
	return final, nil
}

// Remove drops a session without ceremony (reaping path).
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		r.removeLocked(s)
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) removeLocked(s *Session) {
	for _, p := range s.Players {
		delete(r.byConn, p.ConnID)
	}
	delete(r.sessions, s.ID)
}

// newIDLocked draws five-digit codes from crypto/rand until one is unused.
// Caller holds r.mu, so assignment is atomic across concurrent creates.
func (r *Registry) newIDLocked() (string, error) {
	for i := 0; i < maxIDProbes; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(idSpan))
		if err != nil {
			return "", fmt.Errorf("session: id generation: %w", err)
		}
		id := fmt.Sprintf("%d", idMin+n.Int64())
		if _, taken := r.sessions[id]; !taken {
			return id, nil
		}
	}
	return "", errors.New("session: id space exhausted")
}
