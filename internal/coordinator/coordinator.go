// internal/coordinator/coordinator.go
//
// Session coordinator: the game's lifecycle state machine.
//
// Responsibilities:
//   - Consume connection-layer events and drive sessions through
//     awaiting_players → ready → countdown → in_progress → ended.
//   - Own the only writes to session state, via the Registry's atomic methods;
//     a session is re-fetched per event and never held across events.
//   - Validate answers against the dictionary, apply the fixed scoring deltas
//     (+5 valid, −3 invalid), and broadcast results to the whole session group
//     so both score boards update live.
//   - Turn every failure into an `error` event addressed to the requesting
//     connection; nothing here is fatal to the process.
//   - Reap sessions on participant disconnect and hand the final state to the
//     match recorder (best effort).
//
// Notes:
//   - The countdown itself is host-driven: the coordinator only reacts to the
//     completion signal by dealing the board exactly once.
//   - Handlers take the originating connection id explicitly; there is no
//     ambient "current connection".

package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/letterdash/go-server/internal/board"
	"github.com/letterdash/go-server/internal/dict"
	"github.com/letterdash/go-server/internal/history"
	"github.com/letterdash/go-server/internal/session"
)

// Scoring deltas applied by the answer handler.
const (
	scoreCorrect = 5
	scoreWrong   = -3
)

// Client-facing error messages. The join ones are displayed verbatim by the
// browser client.
const (
	msgRoomMissing   = "This room does not exist."
	msgRoomFull      = "This room is already full."
	msgDictNotReady  = "The dictionary is still loading. Try again in a moment."
	msgBadPayload    = "Malformed request."
	msgUnknownEvent  = "Unknown event."
	msgWelcome       = "You are connected!"
)

// recordTimeout bounds the best-effort match history write.
const recordTimeout = 5 * time.Second

// Gateway is the slice of the connection layer the coordinator emits through.
// Sends are fire-and-forget: delivery is the gateway's contract.
type Gateway interface {
	SendTo(connID string, evt Event)
	Broadcast(sessionID string, evt Event)
	JoinGroup(sessionID, connID string)
	DisbandGroup(sessionID string)
}

// Recorder persists finished matches. Satisfied by history.Store.
type Recorder interface {
	RecordMatch(ctx context.Context, m history.Match) error
}

// Coordinator mediates every session state transition.
type Coordinator struct {
	registry *session.Registry
	dict     *dict.Dictionary
	boards   *board.Generator
	gateway  Gateway
	recorder Recorder // optional; nil disables match history
}

// New wires the coordinator to its collaborators. All of them are explicit
// constructor dependencies; tests pass isolated instances and a fake gateway.
func New(reg *session.Registry, d *dict.Dictionary, gen *board.Generator, gw Gateway, rec Recorder) *Coordinator {
	return &Coordinator{registry: reg, dict: d, boards: gen, gateway: gw, recorder: rec}
}

// HandleConnect greets a freshly attached connection.
func (c *Coordinator) HandleConnect(connID string) {
	c.gateway.SendTo(connID, NewEvent(EvConnected, connectedPayload{Message: msgWelcome}))
}

// Dispatch decodes one inbound envelope and routes it to the matching handler.
// The caller passes the originating connection id and, when the connection is
// authenticated, the account id (empty for guests).
func (c *Coordinator) Dispatch(connID, userID string, raw []byte) {
	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil || evt.Name == "" {
		c.sendError(connID, msgBadPayload)
		return
	}

	switch evt.Name {
	case EvHostCreateNewGame:
		var p createGamePayload
		if !c.decode(connID, evt.Data, &p) {
			return
		}
		c.HostCreateNewGame(connID, userID, p.PlayerName)

	case EvHostRoomFull:
		var p roomRefPayload
		if !c.decode(connID, evt.Data, &p) {
			return
		}
		c.HostRoomFull(connID, string(p.GameID))

	case EvHostCountdownFinished:
		var p roomRefPayload
		if !c.decode(connID, evt.Data, &p) {
			return
		}
		c.HostCountdownFinished(connID, string(p.GameID))

	case EvHostListJoinableGames:
		c.HostListJoinableGames(connID)

	case EvPlayerJoinGame:
		var p joinGamePayload
		if !c.decode(connID, evt.Data, &p) {
			return
		}
		c.PlayerJoinGame(connID, userID, string(p.GameID), p.PlayerName)

	case EvPlayerAnswer:
		var p answerPayload
		if !c.decode(connID, evt.Data, &p) {
			return
		}
		c.PlayerAnswer(connID, string(p.GameID), p.Answer)

	default:
		log.Debug().Str("event", evt.Name).Str("conn", connID).Msg("unknown event")
		c.sendError(connID, msgUnknownEvent)
	}
}

// HostCreateNewGame opens a session with the requester as host and returns
// the room code. The connection joins the session's broadcast group at once.
func (c *Coordinator) HostCreateNewGame(connID, userID, playerName string) {
	s, err := c.registry.Create(connID, playerName)
	if err != nil {
		// Only id-space exhaustion lands here; treat as transient.
		log.Error().Err(err).Msg("create session")
		c.sendError(connID, "Could not create a game. Try again.")
		return
	}
	if userID != "" {
		_ = c.registry.SetUserID(s.ID, connID, userID)
	}
	c.gateway.JoinGroup(s.ID, connID)
	c.gateway.SendTo(connID, NewEvent(EvNewGameCreated, newGameCreatedPayload{
		GameID:     s.ID,
		MySocketID: connID,
	}))
	log.Info().Str("game", s.ID).Str("host", s.Host().Name).Msg("game created")
}

// HostListJoinableGames returns the open-rooms snapshot to the requester only.
func (c *Coordinator) HostListJoinableGames(connID string) {
	rooms := make(map[string]session.Summary)
	for _, sum := range c.registry.ListJoinable() {
		rooms[sum.GameID] = sum
	}
	c.gateway.SendTo(connID, NewEvent(EvDidGetJoinableRooms, rooms))
}

// PlayerJoinGame seats a second player. Capacity errors go to the requester
// only; a successful join is announced to the whole session group.
func (c *Coordinator) PlayerJoinGame(connID, userID, gameID, playerName string) {
	s, err := c.registry.Join(gameID, connID, playerName)
	switch {
	case errors.Is(err, session.ErrNotFound):
		c.sendError(connID, msgRoomMissing)
		return
	case errors.Is(err, session.ErrFull):
		c.sendError(connID, msgRoomFull)
		return
	case err != nil:
		log.Error().Err(err).Str("game", gameID).Msg("join session")
		c.sendError(connID, msgRoomMissing)
		return
	}
	if userID != "" {
		_ = c.registry.SetUserID(s.ID, connID, userID)
	}
	c.gateway.JoinGroup(s.ID, connID)
	c.gateway.Broadcast(s.ID, NewEvent(EvPlayerJoinedRoom, playerJoinedPayload{
		PlayerName: s.Players[1].Name,
		GameID:     s.ID,
		MySocketID: connID,
	}))
	log.Info().Str("game", s.ID).Str("player", s.Players[1].Name).Msg("player joined")
}

// HostRoomFull reacts to the host's "both seats taken" signal by opening the
// countdown and telling the group the game is about to begin.
func (c *Coordinator) HostRoomFull(connID, gameID string) {
	s, err := c.registry.StartCountdown(gameID)
	if err != nil {
		c.anomaly(connID, gameID, "hostRoomFull", err)
		return
	}
	c.gateway.Broadcast(s.ID, NewEvent(EvBeginNewGame, beginNewGamePayload{
		MySocketID: s.Host().ConnID,
		GameID:     s.ID,
	}))
}

// HostCountdownFinished deals the board. The registry's phase guard makes the
// deal happen exactly once, so every member sees the identical grid even if
// the signal arrives twice.
func (c *Coordinator) HostCountdownFinished(connID, gameID string) {
	grid := c.boards.GenerateDefault()
	s, err := c.registry.StartPlay(gameID, grid)
	if err != nil {
		c.anomaly(connID, gameID, "hostCountdownFinished", err)
		return
	}
	c.gateway.Broadcast(s.ID, NewEvent(EvNewBoardData, newBoardPayload{Board: s.Board}))
	log.Info().Str("game", s.ID).Msg("game started")
}

// PlayerAnswer validates one submitted word and applies the scoring delta to
// the submitting connection. The result is broadcast to the whole group, not
// just the submitter, so the opposing score board updates live.
//
// Word existence is all that is checked; whether the word is formable on the
// board is not the server's concern here.
func (c *Coordinator) PlayerAnswer(connID, gameID, answer string) {
	exists, err := c.dict.Exists(answer)
	if errors.Is(err, dict.ErrNotReady) {
		// Never silently score an unready dictionary as "word does not exist".
		c.sendError(connID, msgDictNotReady)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("dictionary lookup")
		c.sendError(connID, msgDictNotReady)
		return
	}

	delta := scoreWrong
	if exists {
		delta = scoreCorrect
	}
	s, p, err := c.registry.ApplyScore(gameID, connID, delta)
	if err != nil {
		c.anomaly(connID, gameID, "playerAnswer", err)
		return
	}
	c.gateway.Broadcast(s.ID, NewEvent(EvCheckAnswer, checkAnswerPayload{
		PlayerID:   p.ConnID,
		Answer:     answer,
		WordExists: exists,
		GameID:     s.ID,
		Score:      p.Score,
	}))
}

// HandleDisconnect reaps the departed connection's session, notifies the
// remaining member, and records the match. Without this, abandoned sessions
// would accumulate unboundedly.
func (c *Coordinator) HandleDisconnect(connID string) {
	s, ok := c.registry.ByConnection(connID)
	if !ok {
		return
	}
	wasLive := s.Phase == session.InProgress

	final, err := c.registry.End(s.ID)
	if err != nil {
		return // raced with another reaper; nothing left to do
	}

	c.gateway.Broadcast(final.ID, NewEvent(EvGameOver, c.gameOver(final, "opponent disconnected")))
	c.gateway.DisbandGroup(final.ID)
	log.Info().Str("game", final.ID).Str("conn", connID).Msg("session reaped on disconnect")

	if wasLive {
		c.record(final)
	}
}

// gameOver assembles the terminal payload with final scores and winner.
func (c *Coordinator) gameOver(s session.Session, reason string) gameOverPayload {
	out := gameOverPayload{GameID: s.ID, Reason: reason}
	best, tie := 0, false
	for i, p := range s.Players {
		out.Scores = append(out.Scores, finalScore{PlayerName: p.Name, Score: p.Score})
		if i == 0 || p.Score > best {
			best, tie = p.Score, false
			out.Winner = p.Name
		} else if p.Score == best {
			tie = true
		}
	}
	if tie || len(s.Players) < 2 {
		out.Winner = ""
	}
	return out
}

// record hands the final session to the match recorder, best effort.
func (c *Coordinator) record(s session.Session) {
	if c.recorder == nil || len(s.Players) < 2 {
		return
	}
	m := history.Match{
		GameID:     s.ID,
		StartedAt:  s.CreatedAt,
		FinishedAt: time.Now().UTC(),
	}
	m.HostName, m.HostScore = s.Players[0].Name, s.Players[0].Score
	m.HostUserID = s.Players[0].UserID
	m.PlayerName, m.PlayerScore = s.Players[1].Name, s.Players[1].Score
	m.PlayerUserID = s.Players[1].UserID
	switch {
	case m.HostScore > m.PlayerScore:
		m.Winner = m.HostName
	case m.PlayerScore > m.HostScore:
		m.Winner = m.PlayerName
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := c.recorder.RecordMatch(ctx, m); err != nil {
		log.Warn().Err(err).Str("game", s.ID).Msg("record match")
	}
}

// decode unmarshals an inbound payload, answering with a malformed-request
// error on failure.
func (c *Coordinator) decode(connID string, raw json.RawMessage, into any) bool {
	if len(raw) == 0 {
		c.sendError(connID, msgBadPayload)
		return false
	}
	if err := json.Unmarshal(raw, into); err != nil {
		c.sendError(connID, msgBadPayload)
		return false
	}
	return true
}

// anomaly logs a handler hitting a session in an unexpected state. Per the
// error policy this is a no-op for the session, never fatal; the requester
// still gets told when the session is plain gone.
func (c *Coordinator) anomaly(connID, gameID, handler string, err error) {
	log.Warn().Err(err).Str("game", gameID).Str("handler", handler).Msg("session anomaly")
	if errors.Is(err, session.ErrNotFound) {
		c.sendError(connID, msgRoomMissing)
	}
}

func (c *Coordinator) sendError(connID, msg string) {
	c.gateway.SendTo(connID, NewEvent(EvError, errorPayload{Message: msg}))
}
