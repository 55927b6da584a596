// internal/session/session.go
//
// Core type definitions for game sessions.
// Defines:
//   - Phase: lifecycle state of a session.
//   - Player: a participant (connection handle, display name, running score).
//   - Session: one game instance (id, ordered players, shared board, phase).

package session

import (
	"time"

	"github.com/letterdash/go-server/internal/board"
)

// Phase is the lifecycle state of a session.
// Possible values:
//   - "awaiting_players": host created the session, waiting for a second player.
//   - "ready":            both players present, host not yet started.
//   - "countdown":        host-side countdown running.
//   - "in_progress":      board dealt, answers being scored.
//   - "ended":            terminal; session is about to leave the registry.
type Phase string

const (
	AwaitingPlayers Phase = "awaiting_players"
	ReadyToStart    Phase = "ready"
	Countdown       Phase = "countdown"
	InProgress      Phase = "in_progress"
	Ended           Phase = "ended"
)

// MaxPlayers is the hard capacity of a session.
const MaxPlayers = 2

// DefaultPlayerName is substituted when a join request carries no name.
const DefaultPlayerName = "anon"

// Player is a participant within a session.
type Player struct {
	ConnID string `json:"mySocketId"`           // gateway connection handle, also the score key
	UserID string `json:"-"`                    // account id when authenticated, else empty
	Name   string `json:"playerName"`           // display name supplied at join time
	Score  int    `json:"score"`                // mutated only by the coordinator's answer handler
}

// Session holds the state of a single game instance.
// Values handed out by the Registry are copies: mutations go through
// Registry methods, never through a held Session.
type Session struct {
	ID        string     // short numeric code typed by the joining player
	Players   []Player   // join order; Players[0] is always the host
	Board     board.Grid // nil until the countdown finishes
	Phase     Phase
	CreatedAt time.Time
}

// Host returns the creating player. Valid for any session in the registry,
// which never holds a session with zero players.
func (s Session) Host() Player { return s.Players[0] }

// PlayerByConn finds a participant by connection id.
func (s Session) PlayerByConn(connID string) (Player, bool) {
	for _, p := range s.Players {
		if p.ConnID == connID {
			return p, true
		}
	}
	return Player{}, false
}

// Joinable reports whether the session should appear in the open-rooms listing.
func (s Session) Joinable() bool {
	return s.Phase == AwaitingPlayers && len(s.Players) == 1
}

// clone deep-copies the session so callers never alias registry-owned state.
func (s *Session) clone() Session {
	out := *s
	out.Players = append([]Player(nil), s.Players...)
	if s.Board != nil {
		out.Board = make(board.Grid, len(s.Board))
		for i, row := range s.Board {
			out.Board[i] = append([]string(nil), row...)
		}
	}
	return out
}
